// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/glojourn/casehub/internal/app/features/admin"
	applicationsfeature "github.com/glojourn/casehub/internal/app/features/applications"
	assignmentsfeature "github.com/glojourn/casehub/internal/app/features/assignments"
	authgooglefeature "github.com/glojourn/casehub/internal/app/features/authgoogle"
	automationsfeature "github.com/glojourn/casehub/internal/app/features/automations"
	casesfeature "github.com/glojourn/casehub/internal/app/features/cases"
	documentsfeature "github.com/glojourn/casehub/internal/app/features/documents"
	healthfeature "github.com/glojourn/casehub/internal/app/features/health"
	loginfeature "github.com/glojourn/casehub/internal/app/features/login"
	sessionsfeature "github.com/glojourn/casehub/internal/app/features/sessions"
	usersfeature "github.com/glojourn/casehub/internal/app/features/users"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app. WAFFLE calls this after configuration, DB connections, schema
// setup, and the Startup hook have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.CaseHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	tokens := auth.NewTokenManager(appCfg.TokenSecret, appCfg.TokenTTL)
	authenticator := auth.NewAuthenticator(tokens, sessionMgr, db)

	// Uploaded case documents land on local disk; the fileserver below
	// serves them back under StorageLocalURL.
	fileStore, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		logger.Error("file storage init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: resolves the caller from a bearer token or
	// the session cookie and puts it in context. Gating happens per-route.
	r.Use(authenticator.Authenticate)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CaseHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Uploaded files with pre-compressed file support (gzip/brotli)
	r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))

	// Authentication
	loginHandler := loginfeature.NewHandler(userstore.New(db), tokens, sessionMgr, logger)
	r.Mount("/api/auth", loginfeature.Routes(loginHandler))

	googleHandler := authgooglefeature.NewHandler(db, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Visa applications (role-scoped list plus the client's own case)
	applicationsHandler := applicationsfeature.NewHandler(db, logger)
	r.Mount("/api/applications", applicationsfeature.Routes(applicationsHandler))

	// Case details, notes, and documents share the /api/cases router.
	casesHandler := casesfeature.NewHandler(db, logger)
	documentsHandler := documentsfeature.NewHandler(db, fileStore, logger)
	r.Route("/api/cases", func(cr chi.Router) {
		casesfeature.Register(cr, casesHandler)
		documentsfeature.Register(cr, documentsHandler)
	})

	// Consultation sessions
	sessionsHandler := sessionsfeature.NewHandler(db, logger)
	r.Mount("/api/sessions", sessionsfeature.Routes(sessionsHandler))

	// Coordinator assignment (managers and admins)
	assignmentsHandler := assignmentsfeature.NewHandler(db, logger)
	r.Mount("/api/assignments", assignmentsfeature.Routes(assignmentsHandler))

	// Workflow automations (admins)
	automationsHandler := automationsfeature.NewHandler(db, logger)
	r.Mount("/api/automations", automationsfeature.Routes(automationsHandler))

	// Dashboard statistics (admins)
	adminHandler := adminfeature.NewHandler(db, logger)
	r.Mount("/api/admin", adminfeature.Routes(adminHandler))

	// User administration
	usersHandler := usersfeature.NewHandler(db, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	return r, nil
}
