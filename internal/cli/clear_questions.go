package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/entrypoint"
)

var errNotConfirmed = errors.New("refusing to clear the question bank without --yes")

func newClearQuestionsCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-questions --yes",
		Short: "Delete every question in the bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNotConfirmed
			}
			return withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				deleted, err := app.Imports.ClearQuestions(ctx, auth.DefaultUserID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d questions\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
