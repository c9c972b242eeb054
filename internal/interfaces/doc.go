// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - QuestionStore: the remote record store the import pipeline writes to (internal/importers/pipeline.go)
//   - QuestionBank / RunStore: what the import service needs from storage (internal/services/interfaces.go)
//   - QuestionReader, AppStateStore, PracticeStore: read/write surfaces of the API (internal/http/stores.go)
//
// ## Progress Tracking Interfaces
//
//   - ProgressReporter: receives run start, percentage and completion (internal/importers/reporter.go).
//     Implemented by the import run repository, the redis publisher and the CLI printer.
//   - ProgressSubscriber: live progress for the SSE stream (internal/http/stores.go)
//
// ## Background Work
//
//   - ImportEnqueuer: hands an upload to the task queue (internal/services/interfaces.go)
//   - JobProcessor: runs a queued import (internal/tasks/import_questions.go)
//   - AuditCleanupQueue, AuditCleaner, StaleRunRecoverer: scheduled maintenance (internal/scheduler/jobs.go)
//
// # Adding a New Input Format
//
// To accept another file type:
//
//  1. Add the suffix to DetectFormat in internal/importers/reader.go
//
//  2. Return []Sheet from a parser next to csv.go and xlsx.go:
//
//     func parseODS(content []byte) ([]Sheet, error)
//
//     Every sheet carries its header in Rows[0]; the schema mapper and
//     transformer need no changes.
//
//  3. Cover it with a case in pipeline_test.go
//
// # Adding a New Progress Sink
//
// Implement ProgressReporter and pass it to ImportServiceConfig.Reporters
// (every run) or as an extra reporter to ImportService.Import (one run):
//
//	type webhookReporter struct{ url string }
//
//	func (r *webhookReporter) StartRun(ctx context.Context, runID string) error
//	func (r *webhookReporter) UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error
//	func (r *webhookReporter) CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error
//
//	var _ importers.ProgressReporter = (*webhookReporter)(nil)
//
// Reporter errors are logged and never fail the import.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
