// Package practice stores learners' recorded answers.
package practice

import (
	"context"

	"gorm.io/gorm"

	"github.com/opicprep/trainer/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, attempt *entities.PracticeAttempt) error {
	return r.db.WithContext(ctx).Omit("Question").Create(attempt).Error
}

// ListForUser returns a user's attempts, newest first, with their questions loaded.
func (r *Repository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.PracticeAttempt, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.PracticeAttempt{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}

	var attempts []entities.PracticeAttempt
	err := query.Preload("Question").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&attempts).Error
	return attempts, total, err
}
