// Package questions provides database operations for the question bank.
//
// This package implements the QuestionStore interface used by the import pipeline.
//
// # Interface Implementation
//
//	var _ importers.QuestionStore = (*Repository)(nil)
//
// # Usage
//
//	repo := questions.NewRepository(db)
//	inserted, err := repo.InsertQuestions(ctx, batch)
package questions

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opicprep/trainer/internal/entities"
)

var ErrQuestionNotFound = errors.New("question not found")

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Filter narrows a question listing. Empty fields match everything.
type Filter struct {
	Level  entities.Level
	Topic  string
	Style  string
	Limit  int
	Offset int
}

// Repository handles all question database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new questions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ExistingKeys returns the natural key of every stored question.
func (r *Repository) ExistingKeys(ctx context.Context) ([]entities.QuestionKey, error) {
	var rows []entities.Question
	err := r.db.WithContext(ctx).
		Select("level", "topic", "style", "order_no", "question").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make([]entities.QuestionKey, len(rows))
	for i, q := range rows {
		keys[i] = q.Key()
	}
	return keys, nil
}

// InsertQuestion stores q. It returns false without error when a question
// with the same natural key already exists.
func (r *Repository) InsertQuestion(ctx context.Context, q *entities.Question) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(q)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// InsertQuestions stores qs in a single statement and returns how many rows
// were new. Rows whose natural key exists are dropped by the database.
func (r *Repository) InsertQuestions(ctx context.Context, qs []entities.Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&qs)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// DeleteAll removes every question. This is the administrative bulk clear.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&entities.Question{})
	return result.RowsAffected, result.Error
}

// GetByID retrieves a single question.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Question, error) {
	var q entities.Question
	err := r.db.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns matching questions ordered by level, topic, style and order,
// plus the total number of matches.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Question{})
	if f.Level != "" {
		query = query.Where("level = ?", f.Level)
	}
	if f.Topic != "" {
		query = query.Where("topic = ?", f.Topic)
	}
	if f.Style != "" {
		query = query.Where("style = ?", f.Style)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var out []entities.Question
	err := query.Order("level, topic, style, order_no, id").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// Topics returns the distinct topics, optionally for one level.
func (r *Repository) Topics(ctx context.Context, level entities.Level) ([]string, error) {
	query := r.db.WithContext(ctx).Model(&entities.Question{}).Distinct("topic")
	if level != "" {
		query = query.Where("level = ?", level)
	}
	var topics []string
	err := query.Order("topic").Pluck("topic", &topics).Error
	return topics, err
}

// ByComboKey returns the parts of a multi-part prompt in order.
func (r *Repository) ByComboKey(ctx context.Context, key string) ([]entities.Question, error) {
	var out []entities.Question
	err := r.db.WithContext(ctx).
		Where("combo_key = ?", key).
		Order("order_no, id").
		Find(&out).Error
	return out, err
}

// Count returns the number of stored questions.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Question{}).Count(&n).Error
	return n, err
}
