// Package httpjson is the single place API handlers write JSON responses.
//
// Error bodies follow the `{"message": "..."}` shape the frontend expects:
// 400 for validation failures (optionally with field-level details), 401/403
// for auth failures, 404 for missing documents, 409 for conflicts, and a
// generic 500 for anything unexpected.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Write encodes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the wire shape for all error responses.
type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error writes a JSON error body with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, errorBody{Message: message})
}

// ValidationError writes a 400 with field-level messages.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	Write(w, http.StatusBadRequest, errorBody{Message: "Validation failed", Fields: fields})
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Authentication required")
}

// Forbidden writes a 403. The message is deliberately generic; callers
// should not reveal which permission was missing.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Access denied")
}

// NotFound writes a 404 with the given message.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Conflict writes a 409 with the given message.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// ServerError logs err and writes a generic 500. Details never reach the
// caller.
func ServerError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	Error(w, http.StatusInternalServerError, "Server error")
}

// NotFoundOrServerError writes 404 for mongo.ErrNoDocuments and a logged 500
// for everything else. Most single-document lookups funnel through this.
func NotFoundOrServerError(w http.ResponseWriter, log *zap.Logger, notFoundMsg, logMsg string, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		NotFound(w, notFoundMsg)
		return
	}
	ServerError(w, log, logMsg, err)
}

// Decode reads the request body into dst. Returns false (after writing a
// 400) when the body is not valid JSON for dst.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}
