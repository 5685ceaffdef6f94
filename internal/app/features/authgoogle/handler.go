// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/glojourn/casehub/internal/app/store/oauthstate"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/app/system/normalize"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler implements the Google OAuth2 code flow. Accounts are matched by
// Google subject first, then by verified email; unknown Google users get a
// fresh client account (staff accounts are provisioned by admins, never
// through OAuth).
type Handler struct {
	DB         *mongo.Database
	Users      *userstore.Store
	States     *oauthstate.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://casehub.example.com/auth/google/callback"
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Users:        userstore.New(db),
		States:       oauthstate.New(db),
		SessionMgr:   sessionMgr,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin initiates the flow by redirecting to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// State is single-use and expires in 10 minutes.
	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.States.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles the redirect back from Google: validates state,
// exchanges the code, fetches user info, and signs the user in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google account email not verified",
			zap.String("google_id", googleUser.ID))
		http.Redirect(w, r, "/login?error=email_not_verified", http.StatusSeeOther)
		return
	}

	user, err := h.findOrCreateUser(ctx, googleUser)
	if err != nil {
		if errors.Is(err, errUserDisabled) {
			http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
			return
		}
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", user.Role))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

var errUserDisabled = errors.New("user disabled")

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo
// endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// findOrCreateUser resolves the Google identity to a local account:
//  1. by google_id for returning Google users
//  2. by email, linking google_id on first OAuth login of a password account
//  3. otherwise a new client account is provisioned
func (h *Handler) findOrCreateUser(ctx context.Context, googleUser *googleUserInfo) (*models.User, error) {
	userColl := h.DB.Collection("users")
	email := normalize.Email(googleUser.Email)

	var u models.User
	err := userColl.FindOne(ctx, bson.M{"google_id": googleUser.ID}).Decode(&u)
	if err == nil {
		if !u.IsActive {
			return nil, errUserDisabled
		}
		return &u, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	err = userColl.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == nil {
		if u.GoogleID == "" {
			if _, updateErr := userColl.UpdateOne(ctx,
				bson.M{"_id": u.ID},
				bson.M{"$set": bson.M{"google_id": googleUser.ID, "updated_at": time.Now().UTC()}},
			); updateErr != nil {
				h.Log.Warn("failed to link google_id",
					zap.Error(updateErr),
					zap.String("user_id", u.ID.Hex()))
			}
		}
		if !u.IsActive {
			return nil, errUserDisabled
		}
		return &u, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := h.Users.Create(ctx, models.User{
		FullName:   googleUser.Name,
		Email:      email,
		AuthMethod: "google",
		GoogleID:   googleUser.ID,
		Role:       models.RoleClient,
		IsActive:   true,
	})
	if err != nil {
		// Lost a race with a concurrent first login for the same email.
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			var existing models.User
			if lookupErr := userColl.FindOne(ctx, bson.M{"email": email}).Decode(&existing); lookupErr == nil {
				if !existing.IsActive {
					return nil, errUserDisabled
				}
				return &existing, nil
			}
		}
		return nil, err
	}

	h.Log.Info("provisioned client account via Google OAuth",
		zap.String("user_id", created.ID.Hex()))
	return &created, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
