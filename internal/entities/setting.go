package entities

import (
	"time"
)

// Setting is a key/value pair scoped to a user. UserID 0 holds global values.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_settings_user_key" json:"user_id"`
	Key       string    `gorm:"uniqueIndex:idx_settings_user_key;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingKeyOnboardingSeen = "onboarding_seen"
	SettingKeyPreferredLevel = "preferred_level"
	SettingKeyLastTopic      = "last_topic"
)
