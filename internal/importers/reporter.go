package importers

import (
	"context"
	"errors"

	"github.com/opicprep/trainer/internal/entities"
)

// ProgressReporter receives status updates while an import runs.
//
// Implementations:
//   - imports.Repository (database/imports) persists the run row
//   - events.Publisher (events) fans progress out over redis
//   - the CLI prints a progress line
type ProgressReporter interface {
	// StartRun moves the run to processing.
	StartRun(ctx context.Context, runID string) error
	// UpdateProgress is called after every upload unit. percent never decreases.
	UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error
	// CompleteRun records the terminal status and the user-facing message.
	CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error
}

// MultiReporter forwards every call to each reporter in order.
type MultiReporter []ProgressReporter

func (m MultiReporter) StartRun(ctx context.Context, runID string) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.StartRun(ctx, runID))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.UpdateProgress(ctx, runID, percent, counts))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.CompleteRun(ctx, runID, status, counts, message))
	}
	return errors.Join(errs...)
}

// progressTracker turns processed units into a non-decreasing percentage.
type progressTracker struct {
	total int
	last  int
}

func (t *progressTracker) percent(done int) int {
	pct := 100
	if t.total > 0 {
		pct = done * 100 / t.total
	}
	if pct > 100 {
		pct = 100
	}
	if pct < t.last {
		pct = t.last
	}
	t.last = pct
	return pct
}
