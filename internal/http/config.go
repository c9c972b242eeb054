package http

import (
	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/logging"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  Pinger
	Imports   ImportRunner
	Questions QuestionReader
	AppState  AppStateStore
	Practice  PracticeStore
	Audit     AuditReader
	Settings  SettingsAuditor

	// Progress streaming (optional, needs redis)
	Progress ProgressSubscriber

	// Import defaults and upload limit
	ImportConfig config.Import

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthEvents     auth.EventLogger
	AuthConfig     config.Auth
	CSRFSecret     []byte

	// CORS
	AllowedOrigins []string

	// Application info
	Version string

	Log *logging.Logger
}
