package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/opicprep/trainer/internal/database/audit"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	log     *logging.Logger
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{repo: repo, log: log}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.log.Warn("failed to log audit event", "action", event.Action, "error", err)
		}
	}()
}

// Wait blocks until background writes have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records the outcome of a question import run.
func (s *Service) LogImport(userID uint, runID, fileName string, counts entities.ImportCounts, message string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      "question_import",
		Description: truncate(fmt.Sprintf("%s: %s", fileName, message), 500),
		EntityType:  "import_run",
		EntityID:    runID,
		Metadata:    marshalMetadata(counts),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogClear records an administrative bulk delete of the question bank.
func (s *Service) LogClear(userID uint, deleted int64, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      "question_clear",
		Description: fmt.Sprintf("Deleted %d questions", deleted),
		EntityType:  "question",
		Metadata:    marshalMetadata(map[string]any{"deleted": deleted}),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(userID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	})
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(ctx context.Context, f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(ctx, f)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func marshalMetadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
