package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/entrypoint"
	"github.com/opicprep/trainer/internal/importers"
	"github.com/opicprep/trainer/internal/utils"
)

// ImportCommand imports a question bank file without going through the API.
type ImportCommand struct {
	FilePath        string
	Mode            string
	BatchSize       int
	AllowDuplicates bool
	ComboKeyPolicy  string
	DryRun          bool
}

func newImportCommand() *cobra.Command {
	ic := &ImportCommand{}
	cmd := &cobra.Command{
		Use:   "import --file <path>",
		Short: "Import questions from a .csv, .xlsx or .xls file",
		Long: `Import questions from a spreadsheet or CSV file into the question bank.

Columns: level, topic, question_type (or type), style, question, order (or
question_no) and an optional combo_key. Workbook sheets named after a style
(e.g. "roleplay") may omit the style column.`,
		Example: `  opic-trainer import --file bank.xlsx
  opic-trainer import --file bank.csv --mode batch --batch-size 100
  opic-trainer import --file bank.csv --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				return ic.Run(ctx, app, cmd.OutOrStdout())
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ic.FilePath, "file", "f", "", "Path to the question file (required)")
	f.StringVar(&ic.Mode, "mode", "", "Upload mode: row or batch (default from IMPORT_MODE)")
	f.IntVar(&ic.BatchSize, "batch-size", 0, "Rows per batch in batch mode, clamped to 50..100 (default from IMPORT_BATCH_SIZE)")
	f.BoolVar(&ic.AllowDuplicates, "allow-duplicates", false, "Do not skip rows that already exist in the bank")
	f.StringVar(&ic.ComboKeyPolicy, "combo-key-policy", "", "Combo key source: auto, column or derived (default from IMPORT_COMBO_KEY_POLICY)")
	f.BoolVar(&ic.DryRun, "dry-run", false, "Validate the file and report what would be imported without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// Options overlays the flags on the configured import defaults.
func (ic *ImportCommand) Options(cfg config.Import) (importers.Options, error) {
	opts, err := importers.DefaultOptions(cfg)
	if err != nil {
		return opts, err
	}
	if ic.Mode != "" {
		if opts.Mode, err = importers.ParseMode(ic.Mode); err != nil {
			return opts, err
		}
	}
	if ic.BatchSize > 0 {
		opts.BatchSize = config.ClampBatchSize(ic.BatchSize)
	}
	if ic.ComboKeyPolicy != "" {
		if opts.ComboKeyPolicy, err = importers.ParseComboKeyPolicy(ic.ComboKeyPolicy); err != nil {
			return opts, err
		}
	}
	if ic.AllowDuplicates {
		opts.SkipDuplicates = false
	}
	opts.DryRun = ic.DryRun
	return opts, nil
}

func (ic *ImportCommand) Run(ctx context.Context, app *entrypoint.App, out io.Writer) error {
	opts, err := ic.Options(app.Config.Import)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(ic.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ic.FilePath, err)
	}
	upload := importers.Upload{FileName: utils.SanitizeFilename(ic.FilePath), Content: content}

	fmt.Fprintf(out, "Importing %s (mode %s", upload.FileName, opts.Mode)
	if opts.Mode == entities.ImportModeBatch {
		fmt.Fprintf(out, ", batch size %d", opts.BatchSize)
	}
	fmt.Fprintln(out, ")")
	if opts.DryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
	}

	report, err := app.Imports.Import(ctx, auth.DefaultUserID, upload, opts, &progressPrinter{out: out})
	if report != nil {
		printReport(out, report)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

// progressPrinter is a ProgressReporter that writes one line per update.
type progressPrinter struct {
	out io.Writer
}

func (p *progressPrinter) StartRun(_ context.Context, runID string) error {
	fmt.Fprintf(p.out, "Run %s started\n", runID)
	return nil
}

func (p *progressPrinter) UpdateProgress(_ context.Context, _ string, percent int, counts entities.ImportCounts) error {
	fmt.Fprintf(p.out, "%3d%%  inserted %d, duplicates %d, skipped %d, failed %d\n",
		percent, counts.Inserted, counts.Duplicates, counts.Skipped, counts.Errored)
	return nil
}

func (p *progressPrinter) CompleteRun(_ context.Context, _ string, status entities.ImportStatus, _ entities.ImportCounts, _ string) error {
	fmt.Fprintf(p.out, "Finished with status %s\n", status)
	return nil
}

func printReport(out io.Writer, r *importers.Report) {
	fmt.Fprintln(out, "\n=== Import Summary ===")
	fmt.Fprintln(out, r.Message)
	fmt.Fprintf(out, "Rows: %d  Inserted: %d  Duplicates: %d  Skipped: %d  Failed: %d\n",
		r.Total, r.Inserted, r.Duplicates, r.Skipped, r.Errored)
	if r.DryRun {
		fmt.Fprintf(out, "Would insert: %d\n", r.Pending)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintf(out, "\n%d rows skipped:\n", len(r.Issues))
		for _, issue := range r.Issues {
			fmt.Fprintf(out, "  [SKIP] %s\n", issue)
		}
		if r.IssuesTruncated {
			fmt.Fprintln(out, "  ...")
		}
	}
}
