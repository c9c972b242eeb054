// Package importers turns question spreadsheets into stored questions.
//
// # Pipeline
//
// Every import runs the same stages, strictly in sequence:
//
//	read file → parse rows → map header → validate/transform → filter duplicates → upload
//
// The first three stages are input validation. Any failure there aborts the
// run before the question store is touched. Row-level problems (missing
// fields, bad level, bad order) skip the row and are counted. Duplicates are
// counted separately from skips.
//
// # Upload modes
//
//   - ModeRow inserts one question at a time. A failed insert is logged and
//     counted, and the run carries on.
//   - ModeBatch inserts chunks of 50–100 questions. The first failed chunk
//     aborts the run.
//
// # combo_key
//
// The grouping key for multi-part prompts comes from exactly one source per
// sheet, chosen by ComboKeyPolicy. PolicyAuto uses the combo_key column when
// the header has one and the derived rule table otherwise.
//
// # Usage
//
//	pipeline := importers.NewPipeline(questionsRepo, logger, importsRepo, publisher)
//	report, err := pipeline.Run(ctx, importers.Upload{FileName: "bank.xlsx", Content: data}, importers.Options{
//		RunID: runID,
//		Mode:  entities.ImportModeBatch,
//	})
package importers
