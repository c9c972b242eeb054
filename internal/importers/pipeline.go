package importers

import (
	"context"
	"fmt"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

// QuestionStore is the remote record store the pipeline writes to.
type QuestionStore interface {
	// ExistingKeys returns the natural key of every stored question.
	ExistingKeys(ctx context.Context) ([]entities.QuestionKey, error)
	// InsertQuestion stores q unless its natural key exists. inserted is false
	// when the row was dropped as a duplicate.
	InsertQuestion(ctx context.Context, q *entities.Question) (inserted bool, err error)
	// InsertQuestions stores qs in one statement and returns how many were new.
	InsertQuestions(ctx context.Context, qs []entities.Question) (inserted int, err error)
}

// Options control a single import.
type Options struct {
	RunID          string
	Mode           entities.ImportMode
	BatchSize      int
	SkipDuplicates bool
	ComboKeyPolicy ComboKeyPolicy
	DryRun         bool
}

// DefaultOptions mirrors the configured import defaults.
func DefaultOptions(cfg config.Import) (Options, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return Options{}, err
	}
	policy, err := ParseComboKeyPolicy(cfg.ComboKeyPolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Mode:           mode,
		BatchSize:      config.ClampBatchSize(cfg.BatchSize),
		SkipDuplicates: cfg.SkipDuplicates,
		ComboKeyPolicy: policy,
	}, nil
}

func ParseMode(s string) (entities.ImportMode, error) {
	switch m := entities.ImportMode(lowerTrim(s)); m {
	case "":
		return entities.ImportModeRow, nil
	case entities.ImportModeRow, entities.ImportModeBatch:
		return m, nil
	default:
		return "", fmt.Errorf("%w: mode %q", ErrInvalidOptions, s)
	}
}

func (o Options) normalized() (Options, error) {
	mode, err := ParseMode(string(o.Mode))
	if err != nil {
		return o, err
	}
	policy, err := ParseComboKeyPolicy(string(o.ComboKeyPolicy))
	if err != nil {
		return o, err
	}
	o.Mode = mode
	o.ComboKeyPolicy = policy
	o.BatchSize = config.ClampBatchSize(o.BatchSize)
	return o, nil
}

// Pipeline handles the question import workflow:
// read → parse → map → transform → filter duplicates → upload.
type Pipeline struct {
	store    QuestionStore
	reporter MultiReporter
	log      *logging.Logger
}

// NewPipeline creates a pipeline writing to store and reporting to reporters.
func NewPipeline(store QuestionStore, log *logging.Logger, reporters ...ProgressReporter) *Pipeline {
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{store: store, reporter: MultiReporter(reporters), log: log}
}

// Run imports one file. The returned Report is always non-nil and carries the
// terminal status. A non-nil error means the run ended in error; use
// IsInputError to tell rejected files from store failures.
func (p *Pipeline) Run(ctx context.Context, upload Upload, opts Options) (*Report, error) {
	report := &Report{
		RunID:    opts.RunID,
		FileName: upload.FileName,
		Mode:     opts.Mode,
		Status:   entities.ImportStatusProcessing,
		DryRun:   opts.DryRun,
	}
	log := p.log.With("run_id", opts.RunID, "file", upload.FileName)

	if err := p.reporter.StartRun(ctx, opts.RunID); err != nil {
		report.Status = entities.ImportStatusError
		report.Message = report.failureMessage(err)
		return report, fmt.Errorf("failed to start import run: %w", err)
	}

	opts, err := opts.normalized()
	if err != nil {
		return p.fail(ctx, log, report, err)
	}
	report.Mode = opts.Mode

	candidates, err := p.prepare(upload, opts, report)
	if err != nil {
		return p.fail(ctx, log, report, err)
	}
	log.Info("import validated", "rows", report.Total, "candidates", len(candidates), "skipped", report.Skipped)

	if opts.SkipDuplicates {
		existing, err := p.store.ExistingKeys(ctx)
		if err != nil {
			return p.fail(ctx, log, report, fmt.Errorf("%w: %w", ErrFetchExisting, err))
		}
		candidates = filterDuplicates(candidates, existing, report)
	}

	p.progress(ctx, log, report, 0)

	if opts.DryRun {
		report.Pending = len(candidates)
	} else if err := p.upload(ctx, log, candidates, opts, report); err != nil {
		return p.fail(ctx, log, report, err)
	}

	report.Status = entities.ImportStatusSuccess
	report.Message = report.successMessage()
	p.progress(ctx, log, report, 100)
	if err := p.reporter.CompleteRun(ctx, opts.RunID, report.Status, report.ImportCounts, report.Message); err != nil {
		log.Warn("failed to record import completion", "error", err)
	}
	log.Info("import finished",
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
		"errored", report.Errored,
	)
	return report, nil
}

// prepare runs the input-validation and transform stages. It never touches the store.
func (p *Pipeline) prepare(upload Upload, opts Options, report *Report) ([]entities.Question, error) {
	sheets, parseIssues, err := ReadSheets(upload)
	if err != nil {
		return nil, err
	}

	// Map every header first so a bad sheet rejects the whole file.
	transformers := make([]*Transformer, len(sheets))
	for i, sheet := range sheets {
		columns, err := MapHeader(sheet.Rows[0].Fields, sheet.DefaultStyle)
		if err != nil {
			if sheet.Name != "" {
				return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
			}
			return nil, err
		}
		transformers[i] = NewTransformer(columns, opts.ComboKeyPolicy)
	}

	for _, issue := range parseIssues {
		report.Total++
		report.skip(issue.Sheet, issue.Line, issue.Reason)
	}

	var candidates []entities.Question
	for i, sheet := range sheets {
		for _, row := range sheet.Rows[1:] {
			report.Total++
			q, reason := transformers[i].Transform(row.Fields)
			if reason != "" {
				report.skip(sheet.Name, row.Line, reason)
				continue
			}
			candidates = append(candidates, *q)
		}
	}
	return candidates, nil
}

func filterDuplicates(candidates []entities.Question, existing []entities.QuestionKey, report *Report) []entities.Question {
	filter := newDuplicateFilter(existing)
	kept := candidates[:0]
	for i := range candidates {
		if !filter.Admit(&candidates[i]) {
			report.Duplicates++
			continue
		}
		kept = append(kept, candidates[i])
	}
	return kept
}

// upload sends candidates to the store one unit at a time, in order.
func (p *Pipeline) upload(ctx context.Context, log *logging.Logger, candidates []entities.Question, opts Options, report *Report) error {
	tracker := &progressTracker{total: len(candidates)}

	if opts.Mode == entities.ImportModeRow {
		for i := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}
			inserted, err := p.store.InsertQuestion(ctx, &candidates[i])
			switch {
			case err != nil:
				report.Errored++
				log.Error("failed to insert question", "topic", candidates[i].Topic, "order", candidates[i].Order, "error", err)
			case inserted:
				report.Inserted++
			default:
				report.Duplicates++
			}
			p.progress(ctx, log, report, tracker.percent(i+1))
		}
		return nil
	}

	for start := 0; start < len(candidates); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+opts.BatchSize, len(candidates))
		batch := candidates[start:end]
		inserted, err := p.store.InsertQuestions(ctx, batch)
		if err != nil {
			report.Errored += len(batch)
			return fmt.Errorf("%w: rows %d-%d: %w", ErrBatchInsert, start+1, end, err)
		}
		report.Inserted += inserted
		report.Duplicates += len(batch) - inserted
		p.progress(ctx, log, report, tracker.percent(end))
	}
	return nil
}

func (p *Pipeline) progress(ctx context.Context, log *logging.Logger, report *Report, percent int) {
	if err := p.reporter.UpdateProgress(ctx, report.RunID, percent, report.ImportCounts); err != nil {
		log.Warn("failed to report import progress", "percent", percent, "error", err)
	}
}

func (p *Pipeline) fail(ctx context.Context, log *logging.Logger, report *Report, err error) (*Report, error) {
	report.Status = entities.ImportStatusError
	report.Message = report.failureMessage(err)
	log.Error("import failed", "error", err, "inserted", report.Inserted)
	// The run must reach a terminal state even if the caller's context is done.
	if cerr := p.reporter.CompleteRun(context.WithoutCancel(ctx), report.RunID, report.Status, report.ImportCounts, report.Message); cerr != nil {
		log.Warn("failed to record import failure", "error", cerr)
	}
	return report, err
}
