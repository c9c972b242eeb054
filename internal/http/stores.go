package http

import (
	"context"

	"github.com/opicprep/trainer/internal/appstate"
	dbaudit "github.com/opicprep/trainer/internal/database/audit"
	"github.com/opicprep/trainer/internal/database/questions"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/events"
	"github.com/opicprep/trainer/internal/importers"
)

// This file consolidates the interfaces HTTP controllers depend on. Each
// controller takes only what it uses, so tests can hand in small fakes.

// ImportRunner runs imports and manages their runs. Implemented by
// services.ImportService.
type ImportRunner interface {
	Import(ctx context.Context, userID uint, upload importers.Upload, opts importers.Options, extra ...importers.ProgressReporter) (*importers.Report, error)
	Enqueue(ctx context.Context, userID uint, upload importers.Upload, opts importers.Options) (*entities.ImportRun, error)
	AsyncEnabled() bool
	GetRun(ctx context.Context, id string) (*entities.ImportRun, error)
	ListRuns(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportRun, int64, error)
	ResetRun(ctx context.Context, id string) (*entities.ImportRun, error)
	ClearQuestions(ctx context.Context, userID uint) (int64, error)
}

// QuestionReader provides read access to the question bank.
type QuestionReader interface {
	GetByID(ctx context.Context, id uint) (*entities.Question, error)
	List(ctx context.Context, f questions.Filter) ([]entities.Question, int64, error)
	Topics(ctx context.Context, level entities.Level) ([]string, error)
	ByComboKey(ctx context.Context, key string) ([]entities.Question, error)
}

type AppStateStore interface {
	Get(ctx context.Context, userID uint) (appstate.State, error)
	Update(ctx context.Context, userID uint, p appstate.Patch) (appstate.State, error)
	Reset(ctx context.Context, userID uint) (appstate.State, error)
}

type PracticeStore interface {
	Create(ctx context.Context, attempt *entities.PracticeAttempt) error
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.PracticeAttempt, int64, error)
}

// AuditReader lists audit events. Implemented by audit.Service.
type AuditReader interface {
	ListEvents(ctx context.Context, f dbaudit.Filter) ([]entities.AuditEvent, int64, error)
}

// SettingsAuditor records app state changes.
type SettingsAuditor interface {
	LogSettings(userID uint, action, description string)
}

// ProgressSubscriber streams import progress. Implemented by events.Publisher.
type ProgressSubscriber interface {
	Subscribe(ctx context.Context, onEvent func(events.ProgressEvent)) error
}

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
