package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/logging"
)

var ErrAsyncUnavailable = errors.New("background imports are disabled")

// ImportService runs question imports and keeps their run records and audit
// trail consistent, whether the import runs inline or on a worker.
type ImportService struct {
	questions QuestionBank
	runs      RunStore
	reporters []importers.ProgressReporter
	audit     ImportAuditor
	enqueuer  ImportEnqueuer
	uploadDir string
	log       *logging.Logger
}

type ImportServiceConfig struct {
	Questions QuestionBank
	Runs      RunStore
	// Reporters receive progress next to the run store, e.g. the redis publisher.
	Reporters []importers.ProgressReporter
	Audit     ImportAuditor
	// UploadDir holds uploads waiting for a background worker.
	UploadDir string
	Log       *logging.Logger
}

func NewImportService(cfg ImportServiceConfig) *ImportService {
	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}
	return &ImportService{
		questions: cfg.Questions,
		runs:      cfg.Runs,
		reporters: cfg.Reporters,
		audit:     cfg.Audit,
		uploadDir: cfg.UploadDir,
		log:       log.With("component", "import_service"),
	}
}

// SetEnqueuer enables Enqueue. The task client is built after the service, so
// it is attached separately.
func (s *ImportService) SetEnqueuer(e ImportEnqueuer) {
	s.enqueuer = e
}

func (s *ImportService) AsyncEnabled() bool {
	return s.enqueuer != nil
}

// Import runs the pipeline inline. When opts.RunID names an idle run it is
// reused, otherwise a new run is created. extra reporters only see this run.
func (s *ImportService) Import(ctx context.Context, userID uint, upload importers.Upload, opts importers.Options, extra ...importers.ProgressReporter) (*importers.Report, error) {
	run, err := s.claimRun(ctx, userID, upload.FileName, opts)
	if err != nil {
		return nil, err
	}
	opts.RunID = run.ID
	return s.execute(ctx, userID, upload, opts, extra...)
}

// Enqueue validates the upload, stores it in the upload directory and queues
// it. The returned run is idle until a worker picks it up.
func (s *ImportService) Enqueue(ctx context.Context, userID uint, upload importers.Upload, opts importers.Options) (*entities.ImportRun, error) {
	if s.enqueuer == nil {
		return nil, ErrAsyncUnavailable
	}
	format, err := importers.DetectFormat(upload.FileName)
	if err != nil {
		return nil, err
	}
	if len(upload.Content) == 0 {
		return nil, importers.ErrEmptyFile
	}

	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+"."+string(format))
	if err := os.WriteFile(path, upload.Content, 0o640); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	run, err := s.claimRun(ctx, userID, upload.FileName, opts)
	if err != nil {
		s.removeUpload(path)
		return nil, err
	}
	opts.RunID = run.ID

	job := ImportJob{RunID: run.ID, UserID: userID, FilePath: path, FileName: upload.FileName, Options: opts}
	if err := s.enqueuer.EnqueueImport(ctx, job); err != nil {
		s.removeUpload(path)
		s.abandon(ctx, run.ID, fmt.Errorf("failed to queue import: %w", err))
		return nil, fmt.Errorf("failed to queue import: %w", err)
	}

	s.log.Info("import queued", "run_id", run.ID, "file", upload.FileName)
	return run, nil
}

// ProcessJob runs a queued upload and removes it from disk afterwards.
func (s *ImportService) ProcessJob(ctx context.Context, job ImportJob) error {
	defer s.removeUpload(job.FilePath)

	content, err := os.ReadFile(job.FilePath)
	if err != nil {
		err = fmt.Errorf("failed to read queued upload: %w", err)
		s.abandon(ctx, job.RunID, err)
		s.auditImport(job.UserID, job.RunID, job.FileName, entities.ImportCounts{}, err.Error(), err)
		return err
	}

	opts := job.Options
	opts.RunID = job.RunID
	_, err = s.execute(ctx, job.UserID, importers.Upload{FileName: job.FileName, Content: content}, opts)
	return err
}

func (s *ImportService) execute(ctx context.Context, userID uint, upload importers.Upload, opts importers.Options, extra ...importers.ProgressReporter) (*importers.Report, error) {
	reporters := make([]importers.ProgressReporter, 0, 1+len(s.reporters)+len(extra))
	reporters = append(reporters, s.runs)
	reporters = append(reporters, s.reporters...)
	reporters = append(reporters, extra...)

	report, err := importers.NewPipeline(s.questions, s.log, reporters...).Run(ctx, upload, opts)
	s.auditImport(userID, opts.RunID, upload.FileName, report.ImportCounts, report.Message, err)
	return report, err
}

func (s *ImportService) claimRun(ctx context.Context, userID uint, fileName string, opts importers.Options) (*entities.ImportRun, error) {
	mode, err := importers.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if opts.RunID != "" {
		return s.runs.PrepareRun(ctx, opts.RunID, fileName, mode)
	}
	return s.runs.CreateRun(ctx, userID, fileName, mode)
}

// abandon moves a run that never reached the pipeline to error.
func (s *ImportService) abandon(ctx context.Context, runID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	message := "import failed: " + cause.Error()
	if err := s.runs.StartRun(ctx, runID); err != nil {
		s.log.Warn("failed to start abandoned run", "run_id", runID, "error", err)
	}
	if err := s.runs.CompleteRun(ctx, runID, entities.ImportStatusError, entities.ImportCounts{}, message); err != nil {
		s.log.Warn("failed to fail abandoned run", "run_id", runID, "error", err)
	}
}

func (s *ImportService) removeUpload(path string) {
	if path == "" || !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.uploadDir)) {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove upload", "path", path, "error", err)
	}
}

func (s *ImportService) auditImport(userID uint, runID, fileName string, counts entities.ImportCounts, message string, err error) {
	if s.audit == nil {
		return
	}
	s.audit.LogImport(userID, runID, fileName, counts, message, err)
}

func (s *ImportService) GetRun(ctx context.Context, id string) (*entities.ImportRun, error) {
	return s.runs.GetRun(ctx, id)
}

func (s *ImportService) ListRuns(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportRun, int64, error) {
	return s.runs.ListRuns(ctx, userID, limit, offset)
}

// ResetRun returns a finished run to idle.
func (s *ImportService) ResetRun(ctx context.Context, id string) (*entities.ImportRun, error) {
	return s.runs.ResetRun(ctx, id)
}

// RecoverInterrupted fails runs that were left processing by a previous process.
func (s *ImportService) RecoverInterrupted(ctx context.Context, staleAfter time.Duration) (int64, error) {
	n, err := s.runs.FailStaleRuns(ctx, staleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to recover interrupted runs: %w", err)
	}
	if n > 0 {
		s.log.Warn("marked interrupted import runs as failed", "count", n)
	}
	return n, nil
}

// ClearQuestions deletes the whole question bank. It is never part of an import.
func (s *ImportService) ClearQuestions(ctx context.Context, userID uint) (int64, error) {
	deleted, err := s.questions.DeleteAll(ctx)
	if s.audit != nil {
		s.audit.LogClear(userID, deleted, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear questions: %w", err)
	}
	s.log.Info("question bank cleared", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
