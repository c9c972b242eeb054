// Package cli holds the command tree of the trainer binary.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entrypoint"
	"github.com/opicprep/trainer/internal/logging"
)

// NewRootCommand builds the command tree. Without a subcommand the server starts.
func NewRootCommand(version string) *cobra.Command {
	serve := newServeCommand(version)

	root := &cobra.Command{
		Use:           "opic-trainer",
		Short:         "OPIc trainer backend: question bank, imports and practice history",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(
		serve,
		newImportCommand(),
		newClearQuestionsCommand(),
		newCreateAdminCommand(),
	)
	return root
}

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return entrypoint.Run(config.NewConfig(), version)
		},
	}
}

// withApp opens the database and services for a one-shot command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.NewConfig()
	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	app, err := entrypoint.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}
