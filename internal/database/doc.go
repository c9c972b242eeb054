// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go   # Connection setup (sqlite or postgres) and migrations
//	├── questions/    # Question bank: conflict-tolerant inserts, browsing, bulk clear
//	├── imports/      # Import run status and progress
//	├── practice/     # Practice attempts
//	├── settings/     # Per-user key/value settings
//	└── audit/        # Audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, logger)
//
//	questionsRepo := questions.NewRepository(db.DB)
//	importsRepo := imports.NewRepository(db.DB)
//
//	report, err := importers.NewPipeline(questionsRepo, logger, importsRepo).Run(ctx, upload, opts)
//
// # Uniqueness
//
// Questions carry a unique index over (level, topic, style, order_no, question).
// Inserts use ON CONFLICT DO NOTHING, so two concurrent imports of the same
// file never store a question twice.
package database
