package scheduler

import (
	"context"
	"time"
)

const (
	JobAuditCleanup = "audit_cleanup"
	JobStaleImports = "stale_imports"
)

// AuditCleanupQueue hands audit cleanup to the task queue.
type AuditCleanupQueue interface {
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) error
}

// AuditCleaner deletes audit events inline.
type AuditCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditCleanupJob enqueues the cleanup when a queue is available and runs it
// inline otherwise.
func AuditCleanupJob(queue AuditCleanupQueue, cleaner AuditCleaner, retentionDays int) Job {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return func(ctx context.Context) error {
		if queue != nil {
			return queue.EnqueueAuditCleanup(ctx, retentionDays)
		}
		_, err := cleaner.DeleteOldEvents(ctx, time.Duration(retentionDays)*24*time.Hour)
		return err
	}
}

// StaleRunRecoverer fails import runs stuck in processing.
type StaleRunRecoverer interface {
	RecoverInterrupted(ctx context.Context, staleAfter time.Duration) (int64, error)
}

func StaleImportsJob(recoverer StaleRunRecoverer, staleAfter time.Duration) Job {
	return func(ctx context.Context) error {
		_, err := recoverer.RecoverInterrupted(ctx, staleAfter)
		return err
	}
}
