// internal/app/system/auth/authenticator.go
package auth

import (
	"net/http"
	"strings"

	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Authenticator resolves the caller for each request. Bearer tokens are
// preferred; the session cookie is the fallback for browser clients.
//
// Bearer callers are re-fetched from the users collection on every request
// so deactivated accounts lose access immediately rather than at token
// expiry.
type Authenticator struct {
	Tokens     *TokenManager
	SessionMgr *SessionManager
	DB         *mongo.Database
}

// NewAuthenticator constructs the request-authentication middleware holder.
func NewAuthenticator(tokens *TokenManager, sessionMgr *SessionManager, db *mongo.Database) *Authenticator {
	return &Authenticator{Tokens: tokens, SessionMgr: sessionMgr, DB: db}
}

// Authenticate injects the current user into context if the request carries
// a valid credential. It never rejects on its own; RequireSignedIn and
// RequireRole do the gating.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := a.bearerUser(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		if a.SessionMgr != nil {
			if u, ok := a.SessionMgr.sessionUser(r); ok {
				next.ServeHTTP(w, withUser(r, u))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// bearerUser validates an Authorization: Bearer token and loads the user.
func (a *Authenticator) bearerUser(r *http.Request) (*SessionUser, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := a.Tokens.Parse(parts[1])
	if err != nil {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, false
	}

	var u models.User
	if err := a.DB.Collection("users").
		FindOne(r.Context(), bson.M{"_id": oid}).
		Decode(&u); err != nil {
		return nil, false
	}
	if !u.IsActive {
		return nil, false
	}

	return &SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}, true
}
