package documents

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/glojourn/casehub/internal/app/automation"
	"github.com/glojourn/casehub/internal/app/policy/casepolicy"
	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	documentstore "github.com/glojourn/casehub/internal/app/store/documents"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/htmlsanitize"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single document upload (10 MiB).
const maxUploadBytes = 10 << 20

// Handler serves document upload and retrieval for cases.
type Handler struct {
	DB        *mongo.Database
	Documents *documentstore.Store
	Cases     *casestore.Store
	Storage   storage.Store
	Executor  *automation.Executor
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Documents: documentstore.New(db),
		Cases:     casestore.New(db),
		Storage:   store,
		Executor:  automation.NewExecutor(db, logger),
		Log:       logger,
	}
}

// loadViewableCase loads the case behind {caseID} and checks visibility.
// Returns nil when the response has been written.
func (h *Handler) loadViewableCase(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Case {
	caseID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "caseID"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid case ID")
		return nil
	}

	c, err := h.Cases.GetByID(ctx, caseID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "load case failed", err)
		return nil
	}

	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return nil
	}
	if !casepolicy.CanViewCase(role, userID, c) {
		httpjson.Forbidden(w)
		return nil
	}
	return c
}

// HandleUpload handles POST /api/cases/{caseID}/documents as
// multipart/form-data with fields "file" and "doc_type". The stored path is
// uuid-prefixed so uploads can never collide or overwrite each other.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpjson.BadRequest(w, "Invalid or oversized upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.BadRequest(w, "A file is required")
		return
	}
	defer file.Close()

	docType := strings.TrimSpace(r.FormValue("doc_type"))
	if docType == "" {
		httpjson.BadRequest(w, "doc_type is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c := h.loadViewableCase(ctx, w, r)
	if c == nil {
		return
	}

	contentType := header.Header.Get("Content-Type")
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("documents/%04d/%02d", now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(header.Filename))
	path := filepath.ToSlash(filepath.Join(dateDir, uniqueName))

	if err := h.Storage.Put(ctx, path, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		httpjson.ServerError(w, h.Log, "store upload failed", err)
		return
	}

	doc, err := h.Documents.Create(ctx, models.Document{
		CaseID:       c.ID,
		UploadedByID: userID,
		DocType:      docType,
		FileName:     header.Filename,
		FilePath:     path,
		FileSize:     header.Size,
		ContentType:  contentType,
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "record upload failed", err)
		return
	}

	// An upload satisfies any pending request for the same document type.
	if _, err := h.Documents.FulfillRequests(ctx, c.ID, docType); err != nil {
		h.Log.Warn("fulfill document requests failed", zap.Error(err))
	}

	h.Executor.Fire(ctx, models.TriggerDocumentUploaded, c)

	httpjson.Write(w, http.StatusCreated, doc)
}

// ServeList handles GET /api/cases/{caseID}/documents.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadViewableCase(ctx, w, r)
	if c == nil {
		return
	}

	docs, err := h.Documents.ListByCase(ctx, c.ID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list documents failed", err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"documents": docs})
}

type requestRequest struct {
	DocumentType string `json:"document_type"`
	Message      string `json:"message"`
}

// HandleRequest handles POST /api/cases/{caseID}/document-requests: staff
// ask the client to upload a specific document.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req requestRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DocumentType) == "" {
		httpjson.BadRequest(w, "document_type is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadViewableCase(ctx, w, r)
	if c == nil {
		return
	}

	created, err := h.Documents.CreateRequest(ctx, models.DocumentRequest{
		CaseID:        c.ID,
		RequestedByID: userID,
		DocumentType:  strings.TrimSpace(req.DocumentType),
		Message:       htmlsanitize.Plain(req.Message),
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "create document request failed", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeRequests handles GET /api/cases/{caseID}/document-requests.
func (h *Handler) ServeRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadViewableCase(ctx, w, r)
	if c == nil {
		return
	}

	reqs, err := h.Documents.ListRequestsByCase(ctx, c.ID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list document requests failed", err)
		return
	}
	if reqs == nil {
		reqs = []models.DocumentRequest{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"requests": reqs})
}

// HandleDelete handles DELETE /api/cases/{caseID}/documents/{docID}. The
// stored file is removed best-effort after the record is gone.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	docID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "docID"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid document ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadViewableCase(ctx, w, r)
	if c == nil {
		return
	}

	doc, err := h.Documents.GetByID(ctx, docID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Document not found", "load document failed", err)
		return
	}
	if doc.CaseID != c.ID {
		httpjson.NotFound(w, "Document not found")
		return
	}

	if _, err := h.Documents.Delete(ctx, docID); err != nil {
		httpjson.ServerError(w, h.Log, "delete document failed", err)
		return
	}
	if err := h.Storage.Delete(ctx, doc.FilePath); err != nil {
		h.Log.Warn("failed to delete stored file", zap.String("path", doc.FilePath), zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

// sanitizeFilename strips path components and replaces characters that
// could be problematic on disk.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		base := string(result[:100-len(ext)])
		return base + ext
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '-' || c == '_'
}
