// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to CaseHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g. mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration (browser clients)
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer token configuration (API clients)
	TokenSecret string
	TokenTTL    time.Duration

	// File storage for uploaded case documents
	StorageLocalPath string // e.g. "./uploads/documents"
	StorageLocalURL  string // URL prefix for serving local files (e.g. "/uploads")

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks
	BaseURL string // e.g. "https://casehub.example.com" or "http://localhost:3000"

	// Admin bootstrap: promotes/creates this account on startup
	AdminEmail string
}
