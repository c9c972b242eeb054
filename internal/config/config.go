package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		Import
		Audit
		Tasks
		Auth
		Redis
	}

	HTTP struct {
		Port           int32
		Host           string
		AllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Mode string // "dev" or "prod"
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // sqlite file
		DSN    string // postgres connection string
	}
	Import struct {
		Mode           string // "row" or "batch"
		BatchSize      int
		SkipDuplicates bool
		ComboKeyPolicy string // "auto", "column" or "derived"
		UploadDir      string
		MaxUploadMB    int64
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Redis struct {
		Addr     string // Empty disables progress publishing
		Password string
		DB       int
		Channel  string
	}
)

// ClampBatchSize keeps n inside the supported batch window.
func ClampBatchSize(n int) int {
	if n < MinImportBatchSize {
		return MinImportBatchSize
	}
	if n > MaxImportBatchSize {
		return MaxImportBatchSize
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "http://localhost:8081,http://localhost:19006")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("log_mode", "dev")

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	// Import defaults
	v.SetDefault("import_mode", "row")
	v.SetDefault("import_batch_size", DefaultImportBatchSize)
	v.SetDefault("import_skip_duplicates", true)
	v.SetDefault("import_combo_key_policy", "auto")
	v.SetDefault("import_upload_dir", DefaultUploadDir)
	v.SetDefault("import_max_upload_mb", 10)

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", "opic:import-progress")

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
		Database: Database{
			Driver: DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Import: Import{
			Mode:           strings.ToLower(v.GetString("IMPORT_MODE")),
			BatchSize:      ClampBatchSize(v.GetInt("IMPORT_BATCH_SIZE")),
			SkipDuplicates: v.GetBool("IMPORT_SKIP_DUPLICATES"),
			ComboKeyPolicy: strings.ToLower(v.GetString("IMPORT_COMBO_KEY_POLICY")),
			UploadDir:      v.GetString("IMPORT_UPLOAD_DIR"),
			MaxUploadMB:    v.GetInt64("IMPORT_MAX_UPLOAD_MB"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
	}
}
