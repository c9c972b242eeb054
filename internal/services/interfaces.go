package services

import (
	"context"
	"time"

	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
)

// QuestionBank is the question store plus the administrative bulk clear.
type QuestionBank interface {
	importers.QuestionStore
	DeleteAll(ctx context.Context) (int64, error)
}

// RunStore persists import runs. It is also the pipeline's primary progress reporter.
type RunStore interface {
	importers.ProgressReporter
	CreateRun(ctx context.Context, userID uint, fileName string, mode entities.ImportMode) (*entities.ImportRun, error)
	PrepareRun(ctx context.Context, id, fileName string, mode entities.ImportMode) (*entities.ImportRun, error)
	GetRun(ctx context.Context, id string) (*entities.ImportRun, error)
	ListRuns(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportRun, int64, error)
	ResetRun(ctx context.Context, id string) (*entities.ImportRun, error)
	FailStaleRuns(ctx context.Context, staleAfter time.Duration) (int64, error)
}

// ImportAuditor records import and clear operations in the audit trail.
type ImportAuditor interface {
	LogImport(userID uint, runID, fileName string, counts entities.ImportCounts, message string, err error)
	LogClear(userID uint, deleted int64, err error)
}

// ImportEnqueuer hands a stored upload to the background task queue.
type ImportEnqueuer interface {
	EnqueueImport(ctx context.Context, job ImportJob) error
}

// ImportJob is an upload waiting on disk for a background worker.
type ImportJob struct {
	RunID    string            `json:"run_id"`
	UserID   uint              `json:"user_id"`
	FilePath string            `json:"file_path"`
	FileName string            `json:"file_name"`
	Options  importers.Options `json:"options"`
}
