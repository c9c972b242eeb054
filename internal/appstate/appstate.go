// Package appstate holds the per-user flags the app used to keep in ad-hoc
// on-device storage: whether onboarding was seen, the preferred exam level and
// the last browsed topic.
//
// Values resolve as stored setting > initial value, and Reset returns a user
// to the initial values.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/opicprep/trainer/internal/entities"
)

var ErrInvalidLevel = errors.New("preferred level must be intermediate or advanced")

// State is the application state of one user.
type State struct {
	OnboardingSeen bool           `json:"onboarding_seen"`
	PreferredLevel entities.Level `json:"preferred_level"`
	LastTopic      string         `json:"last_topic"`
}

// Initial is the state of a user that never changed anything.
func Initial() State {
	return State{
		OnboardingSeen: false,
		PreferredLevel: entities.LevelIntermediate,
		LastTopic:      "",
	}
}

// Patch changes only the fields that are set.
type Patch struct {
	OnboardingSeen *bool           `json:"onboarding_seen"`
	PreferredLevel *entities.Level `json:"preferred_level"`
	LastTopic      *string         `json:"last_topic"`
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.OnboardingSeen == nil && p.PreferredLevel == nil && p.LastTopic == nil
}

// SettingsRepository is the key/value storage behind the store.
type SettingsRepository interface {
	All(ctx context.Context, userID uint) (map[string]string, error)
	Set(ctx context.Context, userID uint, key, value string) error
	Delete(ctx context.Context, userID uint, keys ...string) error
}

var stateKeys = []string{
	entities.SettingKeyOnboardingSeen,
	entities.SettingKeyPreferredLevel,
	entities.SettingKeyLastTopic,
}

type Store struct {
	repo SettingsRepository
}

func New(repo SettingsRepository) *Store {
	return &Store{repo: repo}
}

func (s *Store) Get(ctx context.Context, userID uint) (State, error) {
	values, err := s.repo.All(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("failed to load app state: %w", err)
	}

	state := Initial()
	if v, ok := values[entities.SettingKeyOnboardingSeen]; ok {
		if seen, err := strconv.ParseBool(v); err == nil {
			state.OnboardingSeen = seen
		}
	}
	if v, ok := values[entities.SettingKeyPreferredLevel]; ok {
		if level := entities.Level(v); level.Valid() {
			state.PreferredLevel = level
		}
	}
	if v, ok := values[entities.SettingKeyLastTopic]; ok {
		state.LastTopic = v
	}
	return state, nil
}

// Update applies p and returns the resulting state. The patch is validated
// before anything is written.
func (s *Store) Update(ctx context.Context, userID uint, p Patch) (State, error) {
	writes := make(map[string]string, 3)
	if p.OnboardingSeen != nil {
		writes[entities.SettingKeyOnboardingSeen] = strconv.FormatBool(*p.OnboardingSeen)
	}
	if p.PreferredLevel != nil {
		level := entities.Level(strings.ToLower(strings.TrimSpace(string(*p.PreferredLevel))))
		if !level.Valid() {
			return State{}, ErrInvalidLevel
		}
		writes[entities.SettingKeyPreferredLevel] = string(level)
	}
	if p.LastTopic != nil {
		writes[entities.SettingKeyLastTopic] = strings.TrimSpace(*p.LastTopic)
	}

	for _, key := range stateKeys {
		value, ok := writes[key]
		if !ok {
			continue
		}
		if err := s.repo.Set(ctx, userID, key, value); err != nil {
			return State{}, fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return s.Get(ctx, userID)
}

// Reset drops every stored value so the user is back at Initial.
func (s *Store) Reset(ctx context.Context, userID uint) (State, error) {
	if err := s.repo.Delete(ctx, userID, stateKeys...); err != nil {
		return State{}, fmt.Errorf("failed to reset app state: %w", err)
	}
	return Initial(), nil
}
