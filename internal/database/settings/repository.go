// Package settings provides database operations for per-user settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	value, ok, err := repo.Get(ctx, userID, entities.SettingKeyOnboardingSeen)
package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opicprep/trainer/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the value for key. ok is false when the key was never set.
func (r *Repository) Get(ctx context.Context, userID uint, key string) (string, bool, error) {
	var setting entities.Setting
	err := r.db.WithContext(ctx).Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// All returns every setting of a user keyed by name.
func (r *Repository) All(ctx context.Context, userID uint) (map[string]string, error) {
	var rows []entities.Setting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

// Set creates or updates a setting.
func (r *Repository) Set(ctx context.Context, userID uint, key, value string) error {
	setting := entities.Setting{UserID: userID, Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// Delete removes the given keys for a user. No keys removes all of them.
func (r *Repository) Delete(ctx context.Context, userID uint, keys ...string) error {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(keys) > 0 {
		query = query.Where("key IN ?", keys)
	}
	return query.Delete(&entities.Setting{}).Error
}
