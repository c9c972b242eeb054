package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", auth.CSRFTokenHeader},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(authMiddleware.Handler())

	// CSRF runs after auth so it can tell cookie sessions from bearer requests.
	if len(cfg.CSRFSecret) > 0 && cfg.AuthConfig.Mode == config.AuthModeLocal {
		router.Use(auth.CSRFMiddleware(auth.CSRFConfig{
			Secret:         cfg.CSRFSecret,
			Secure:         cfg.AuthConfig.SecureCookies,
			AllowedOrigins: cfg.AllowedOrigins,
		}))
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthService != nil {
		auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthEvents, log, cfg.AuthConfig).RegisterRoutes(router)
	}

	api := router.Group("/api")
	admin := api.Group("", authMiddleware.RequireAdmin())

	if cfg.Imports != nil {
		importController := NewImportController(cfg.Imports, cfg.ImportConfig, log)
		admin.POST("/questions/import", importController.Import)
		admin.DELETE("/questions", importController.ClearQuestions)
		admin.GET("/imports", importController.ListRuns)
		admin.GET("/imports/:id", importController.GetRun)
		admin.POST("/imports/:id/reset", importController.ResetRun)

		progressController := NewProgressController(cfg.Imports, cfg.Progress, log)
		admin.GET("/imports/:id/events", progressController.Stream)
	}

	if cfg.Questions != nil {
		questionsController := NewQuestionsController(cfg.Questions, log)
		api.GET("/questions", questionsController.List)
		api.GET("/questions/topics", questionsController.Topics)
		api.GET("/questions/combo/:key", questionsController.Combo)
		api.GET("/questions/:id", questionsController.Get)
	}

	if cfg.AppState != nil {
		appStateController := NewAppStateController(cfg.AppState, cfg.Settings, log)
		api.GET("/app-state", appStateController.Get)
		api.PUT("/app-state", appStateController.Update)
		api.DELETE("/app-state", appStateController.Reset)
	}

	if cfg.Practice != nil && cfg.Questions != nil {
		practiceController := NewPracticeController(cfg.Practice, cfg.Questions, log)
		api.POST("/practice", practiceController.Create)
		api.GET("/practice", practiceController.List)
	}

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, log)
		admin.GET("/audit", auditController.GetAuditEvents)
	}

	return router
}
