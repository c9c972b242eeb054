// Package imports provides database operations for question import runs.
//
// This package implements the ProgressReporter interface used by the import pipeline.
//
// # Interface Implementation
//
//	var _ importers.ProgressReporter = (*Repository)(nil)
//
// # Usage
//
//	repo := imports.NewRepository(db)
//	run, err := repo.CreateRun(ctx, userID, "bank.xlsx", entities.ImportModeRow)
package imports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
)

var ErrRunNotFound = errors.New("import run not found")

// Repository handles all import run database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new imports repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun registers a new idle run.
func (r *Repository) CreateRun(ctx context.Context, userID uint, fileName string, mode entities.ImportMode) (*entities.ImportRun, error) {
	run := &entities.ImportRun{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		Mode:     mode,
		Status:   entities.ImportStatusIdle,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create import run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs, most recent first. userID 0 lists every user's runs.
func (r *Repository) ListRuns(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.ImportRun{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var runs []entities.ImportRun
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, total, err
}

// PrepareRun puts an idle run back to work for a new file.
func (r *Repository) PrepareRun(ctx context.Context, id, fileName string, mode entities.ImportMode) (*entities.ImportRun, error) {
	run, err := r.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != entities.ImportStatusIdle {
		return nil, fmt.Errorf("%w: run %s is %s", importers.ErrInvalidTransition, id, run.Status)
	}
	err = r.db.WithContext(ctx).Model(run).Updates(map[string]any{
		"file_name": fileName,
		"mode":      mode,
	}).Error
	return run, err
}

// transition moves run id from its current status to next, guarding against
// concurrent writers with a compare-and-set on the status column.
func (r *Repository) transition(ctx context.Context, id string, next entities.ImportStatus, updates map[string]any) error {
	run, err := r.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if err := importers.Transition(run.Status, next); err != nil {
		return err
	}

	updates["status"] = next
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entities.ImportRun{}).
		Where("id = ? AND status = ?", id, run.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: run %s changed concurrently", importers.ErrInvalidTransition, id)
	}
	return nil
}

// StartRun moves an idle run to processing.
// Implements ProgressReporter.StartRun.
func (r *Repository) StartRun(ctx context.Context, runID string) error {
	now := time.Now()
	return r.transition(ctx, runID, entities.ImportStatusProcessing, map[string]any{
		"percent":      0,
		"started_at":   now,
		"completed_at": nil,
		"message":      "",
		"error":        "",
	})
}

// UpdateProgress stores the latest percentage and counts of a processing run.
// Implements ProgressReporter.UpdateProgress.
func (r *Repository) UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error {
	updates := countUpdates(counts)
	updates["percent"] = percent
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&entities.ImportRun{}).
		Where("id = ? AND status = ? AND percent <= ?", runID, entities.ImportStatusProcessing, percent).
		Updates(updates).Error
}

// CompleteRun records the terminal status of a processing run.
// Implements ProgressReporter.CompleteRun.
func (r *Repository) CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error {
	updates := countUpdates(counts)
	updates["message"] = message
	updates["completed_at"] = time.Now()
	if status == entities.ImportStatusSuccess {
		updates["percent"] = 100
	} else {
		updates["error"] = message
	}
	return r.transition(ctx, runID, status, updates)
}

// ResetRun returns a finished run to idle so another file can be uploaded.
func (r *Repository) ResetRun(ctx context.Context, runID string) (*entities.ImportRun, error) {
	updates := countUpdates(entities.ImportCounts{})
	updates["percent"] = 0
	updates["message"] = ""
	updates["error"] = ""
	updates["started_at"] = nil
	updates["completed_at"] = nil
	if err := r.transition(ctx, runID, entities.ImportStatusIdle, updates); err != nil {
		return nil, err
	}
	return r.GetRun(ctx, runID)
}

// FailStaleRuns marks processing runs not updated within staleAfter as failed.
// Runs are left processing when the server stops mid-import.
func (r *Repository) FailStaleRuns(ctx context.Context, staleAfter time.Duration) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entities.ImportRun{}).
		Where("status = ? AND updated_at < ?", entities.ImportStatusProcessing, now.Add(-staleAfter)).
		Updates(map[string]any{
			"status":       entities.ImportStatusError,
			"message":      "import was interrupted",
			"error":        "import was interrupted",
			"completed_at": now,
			"updated_at":   now,
		})
	return result.RowsAffected, result.Error
}

func countUpdates(c entities.ImportCounts) map[string]any {
	return map[string]any{
		"total":      c.Total,
		"inserted":   c.Inserted,
		"skipped":    c.Skipped,
		"duplicates": c.Duplicates,
		"errored":    c.Errored,
	}
}
