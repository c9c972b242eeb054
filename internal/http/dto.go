package http

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/opicprep/trainer/internal/entities"
)

type QuestionResponse struct {
	ID           uint           `json:"id"`
	Level        entities.Level `json:"level"`
	Topic        string         `json:"topic"`
	QuestionType string         `json:"question_type"`
	Style        string         `json:"style"`
	Order        int            `json:"order"`
	Text         string         `json:"question"`
	IsRandom     bool           `json:"is_random"`
	ComboKey     *string        `json:"combo_key"`
}

type ImportRunResponse struct {
	ID          string                `json:"id"`
	FileName    string                `json:"file_name"`
	Mode        entities.ImportMode   `json:"mode"`
	Status      entities.ImportStatus `json:"status"`
	Percent     int                   `json:"percent"`
	Total       int                   `json:"total"`
	Inserted    int                   `json:"inserted"`
	Skipped     int                   `json:"skipped"`
	Duplicates  int                   `json:"duplicates"`
	Errored     int                   `json:"errored"`
	Message     string                `json:"message,omitempty"`
	Error       string                `json:"error,omitempty"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type PracticeAttemptResponse struct {
	ID              uint             `json:"id"`
	QuestionID      uint             `json:"question_id"`
	Question        QuestionResponse `json:"question"`
	Transcript      string           `json:"transcript"`
	DurationSeconds int              `json:"duration_seconds"`
	CreatedAt       time.Time        `json:"created_at"`
}

type AuditEventResponse struct {
	ID          uint                    `json:"id"`
	UserID      uint                    `json:"user_id"`
	EventType   entities.AuditEventType `json:"event_type"`
	Action      string                  `json:"action"`
	Description string                  `json:"description"`
	EntityType  string                  `json:"entity_type"`
	EntityID    string                  `json:"entity_id,omitempty"`
	Status      entities.AuditStatus    `json:"status"`
	ErrorMsg    string                  `json:"error_msg,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// toResponse copies src into a new T. copier matches fields by name and
// flattens embedded structs such as ImportRun.ImportCounts.
func toResponse[T any](src any) (T, error) {
	var dst T
	err := copier.Copy(&dst, src)
	return dst, err
}

// toResponses maps a slice and never returns nil, so empty lists encode as [].
func toResponses[T any, S any](src []S) ([]T, error) {
	dst := make([]T, 0, len(src))
	if len(src) == 0 {
		return dst, nil
	}
	err := copier.Copy(&dst, &src)
	return dst, err
}
