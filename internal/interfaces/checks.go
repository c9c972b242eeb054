package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/opicprep/trainer/internal/appstate"
	"github.com/opicprep/trainer/internal/audit"
	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/database"
	"github.com/opicprep/trainer/internal/database/imports"
	"github.com/opicprep/trainer/internal/database/practice"
	"github.com/opicprep/trainer/internal/database/questions"
	"github.com/opicprep/trainer/internal/database/settings"
	"github.com/opicprep/trainer/internal/events"
	"github.com/opicprep/trainer/internal/http"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/scheduler"
	"github.com/opicprep/trainer/internal/services"
	"github.com/opicprep/trainer/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// QuestionStore implementations
var _ importers.QuestionStore = (*questions.Repository)(nil)
var _ services.QuestionBank = (*questions.Repository)(nil)
var _ http.QuestionReader = (*questions.Repository)(nil)

// RunStore implementations
var _ services.RunStore = (*imports.Repository)(nil)

var _ appstate.SettingsRepository = (*settings.Repository)(nil)
var _ http.AppStateStore = (*appstate.Store)(nil)
var _ http.PracticeStore = (*practice.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Import Service
// =============================================================================

var _ http.ImportRunner = (*services.ImportService)(nil)
var _ http.RunGetter = (*services.ImportService)(nil)
var _ tasks.JobProcessor = (*services.ImportService)(nil)
var _ scheduler.StaleRunRecoverer = (*services.ImportService)(nil)

// ImportEnqueuer implementations
var _ services.ImportEnqueuer = (*tasks.Client)(nil)
var _ scheduler.AuditCleanupQueue = (*tasks.Client)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

// ProgressReporter implementations
var _ importers.ProgressReporter = (*imports.Repository)(nil)
var _ importers.ProgressReporter = (*events.Publisher)(nil)
var _ importers.ProgressReporter = importers.MultiReporter(nil)

var _ http.ProgressSubscriber = (*events.Publisher)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.ImportAuditor = (*audit.Service)(nil)
var _ auth.EventLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.SettingsAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.AuditCleaner = (*audit.Service)(nil)
