package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opicprep/trainer/internal/appstate"
	"github.com/opicprep/trainer/internal/audit"
	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/database"
	dbaudit "github.com/opicprep/trainer/internal/database/audit"
	"github.com/opicprep/trainer/internal/database/imports"
	"github.com/opicprep/trainer/internal/database/practice"
	"github.com/opicprep/trainer/internal/database/questions"
	"github.com/opicprep/trainer/internal/database/settings"
	"github.com/opicprep/trainer/internal/events"
	http_controllers "github.com/opicprep/trainer/internal/http"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/logging"
	"github.com/opicprep/trainer/internal/scheduler"
	"github.com/opicprep/trainer/internal/services"
	"github.com/opicprep/trainer/internal/tasks"
)

// staleImportsSchedule sweeps runs left processing by a crashed worker.
const staleImportsSchedule = "*/5 * * * *"

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the storage and services shared by the server and the CLI commands.
type App struct {
	Config    *config.Config
	Log       *logging.Logger
	DB        *database.Database
	Audit     *audit.Service
	Questions *questions.Repository
	Runs      *imports.Repository
	Imports   *services.ImportService
	// Publisher is nil unless REDIS_ADDR is set and reachable.
	Publisher *events.Publisher
}

// Open connects the database and builds the import service. The redis
// publisher is optional: a connection failure is logged and imports continue
// without live progress events.
func Open(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Audit:     audit.NewService(dbaudit.NewRepository(db.DB), log),
		Questions: questions.NewRepository(db.DB),
		Runs:      imports.NewRepository(db.DB),
	}

	var reporters []importers.ProgressReporter
	publisher, err := events.NewPublisher(ctx, cfg.Redis, log)
	switch {
	case err == nil:
		app.Publisher = publisher
		reporters = append(reporters, publisher)
		log.Info("import progress events enabled", "channel", publisher.Channel())
	case errors.Is(err, events.ErrNotConfigured):
		log.Info("REDIS_ADDR is not set, import progress events are disabled")
	default:
		log.Warn("redis unavailable, import progress events are disabled", "error", err)
	}

	app.Imports = services.NewImportService(services.ImportServiceConfig{
		Questions: app.Questions,
		Runs:      app.Runs,
		Reporters: reporters,
		Audit:     app.Audit,
		UploadDir: cfg.Import.UploadDir,
		Log:       log,
	})
	return app, nil
}

// Close waits for pending audit writes and releases connections.
func (a *App) Close() {
	a.Audit.Wait()
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.Warn("error closing redis publisher", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("error closing database", "error", err)
	}
}

func Serve(srv *http.Server, log *logging.Logger, timeout time.Duration, onShutdown ShutdownFunc) {
	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	// Workers are stopped after the server so in-flight uploads can still enqueue.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exited")
}

func Run(cfg *config.Config, version string) error {
	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting OPIc trainer", "version", version)

	ctx := context.Background()
	app, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	staleAfter := cfg.Tasks.ReleaseAfter
	if staleAfter <= 0 {
		staleAfter = tasks.DefaultConfig().ReleaseAfter
	}
	if _, err := app.Imports.RecoverInterrupted(ctx, staleAfter); err != nil {
		log.Warn("failed to recover interrupted imports", "error", err)
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.FromConfig(cfg.Tasks)
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Warn("error closing task client", "error", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportQuestionsQueue(app.Imports, taskCfg.ImportTimeout),
			tasks.NewCleanupAuditEventsQueue(app.Audit, log),
		)
		app.Imports.SetEnqueuer(taskClient)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		defer taskCtxCancel()
		go taskClient.Start(taskCtx)
	} else {
		log.Info("task queue disabled, imports run inline only")
	}

	sched := scheduler.New(log)
	var cleanupQueue scheduler.AuditCleanupQueue
	if taskClient != nil {
		cleanupQueue = taskClient
	}
	if err := sched.Add(scheduler.JobAuditCleanup, cfg.Audit.CleanupSchedule,
		scheduler.AuditCleanupJob(cleanupQueue, app.Audit, cfg.Audit.RetentionDays)); err != nil {
		return err
	}
	if err := sched.Add(scheduler.JobStaleImports, staleImportsSchedule,
		scheduler.StaleImportsJob(app.Imports, staleAfter)); err != nil {
		return err
	}
	sched.Start()

	routerCfg := http_controllers.RouterConfig{
		Database:       app.DB,
		Imports:        app.Imports,
		Questions:      app.Questions,
		AppState:       appstate.New(settings.NewRepository(app.DB.DB)),
		Practice:       practice.NewRepository(app.DB.DB),
		Audit:          app.Audit,
		Settings:       app.Audit,
		ImportConfig:   cfg.Import,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AuthConfig:     cfg.Auth,
		Version:        version,
		Log:            log,
	}
	if app.Publisher != nil {
		routerCfg.Progress = app.Publisher
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		if err := configureLocalAuth(ctx, app, &routerCfg); err != nil {
			return err
		}
	} else {
		log.Info("authentication mode: none (no authentication required)")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           http_controllers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	onShutdown := func(ctx context.Context) {
		sched.Stop(ctx)
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(srv, log, time.Duration(cfg.Global.ShutdownTimeoutInSeconds)*time.Second, onShutdown)
	return nil
}

func configureLocalAuth(ctx context.Context, app *App, routerCfg *http_controllers.RouterConfig) error {
	cfg := app.Config
	log := app.Log
	log.Info("authentication mode: local")

	authService := auth.NewService(app.DB.DB, cfg.Auth)

	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, app.DB.Driver, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	csrfSecret, err := sessionSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}
	if cfg.Auth.SessionSecret == "" {
		log.Warn("generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	hasUsers, err := authService.HasUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if !hasUsers {
		log.Info("no users found, POST /api/auth/setup or run create-admin to create an administrator")
	}

	routerCfg.AuthService = authService
	routerCfg.SessionManager = sessionManager
	routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
	routerCfg.AuthEvents = app.Audit
	routerCfg.CSRFSecret = csrfSecret
	return nil
}

// sessionSecret decodes a hex secret, falls back to the raw bytes and
// generates one when none is configured.
func sessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.DecodeString(secret)
}
