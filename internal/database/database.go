package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// models are migrated in dependency order.
var models = []any{
	&entities.User{},
	&entities.Question{},
	&entities.ImportRun{},
	&entities.PracticeAttempt{},
	&entities.Setting{},
	&entities.AuditEvent{},
}

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

func dialector(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// sqliteDSN enables WAL and a busy timeout so HTTP handlers, task workers
// and audit writers can share one file.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// NewDatabase connects to the configured store and migrates the schema.
func NewDatabase(cfg config.Database, log *logging.Logger) (*Database, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Questions are bulk-cleared independently of practice history.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	if log != nil {
		log.Info("database initialized", "driver", driver, "path", cfg.Path)
	}
	return &Database{DB: db, Driver: driver}, nil
}

// Ping checks the connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
