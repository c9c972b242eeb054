package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/opicprep/trainer/internal/services"
)

// JobProcessor runs a queued import. Implemented by services.ImportService.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job services.ImportJob) error
}

// ImportQuestionsTask carries an upload stored on disk to a worker.
type ImportQuestionsTask struct {
	services.ImportJob
}

// Config runs each import once: the stored upload is removed after the first
// attempt and the run already records the failure.
func (t ImportQuestionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_questions",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportQuestionsProcessor creates a processor function for ImportQuestionsTask.
// timeout bounds one import when positive.
func ImportQuestionsProcessor(processor JobProcessor, timeout time.Duration) backlite.QueueProcessor[ImportQuestionsTask] {
	return func(ctx context.Context, task ImportQuestionsTask) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return processor.ProcessJob(ctx, task.ImportJob)
	}
}

// NewImportQuestionsQueue creates a backlite queue for question imports.
func NewImportQuestionsQueue(processor JobProcessor, timeout time.Duration) backlite.Queue {
	return backlite.NewQueue(ImportQuestionsProcessor(processor, timeout))
}
