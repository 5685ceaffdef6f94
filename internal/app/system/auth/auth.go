// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
)

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager owns the cookie session store. Browser clients
// authenticate with the session cookie; API clients use bearer tokens
// (see Authenticator).
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager initializes the cookie store. The secure flag controls
// whether cookies are marked Secure and which SameSite mode is used: in
// production cookies should be Secure + SameSite=None for cross-site use
// with HTTPS; over http://localhost use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// SignIn writes the user into the session cookie. A cookie that fails to
// decode (rotated key, tampering) is replaced with a fresh session rather
// than failing the login.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			m.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			m.log.Error("session store error during sign-in, using fresh session", zap.Error(err))
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = u.Role
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// sessionUser reads the user out of the session cookie, if authenticated.
func (m *SessionManager) sessionUser(r *http.Request) (*SessionUser, bool) {
	sess, _ := m.store.Get(r, m.name)
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil, false
	}
	return &SessionUser{
		ID:    getString(sess, userIDKey),
		Name:  getString(sess, userNameKey),
		Email: getString(sess, userEmailKey),
		Role:  getString(sess, userRoleKey),
	}, true
}

// RequireSignedIn ensures there is a user in context (set by the
// Authenticator middleware). API callers get a plain 401 JSON body.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		httpjson.Unauthorized(w)
	})
}

// RequireRole ensures there is a user with one of the allowed roles in
// context. Not signed in → 401; signed in with the wrong role → 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.Unauthorized(w)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				httpjson.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects a user into the request context. Test helper only;
// production requests go through the Authenticator middleware.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}
