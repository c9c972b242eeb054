package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/entrypoint"
)

func newCreateAdminCommand() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account for AUTH_MODE=local",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				service := auth.NewService(app.DB.DB, app.Config.Auth)
				user, err := service.CreateUser(ctx, username, email, password, entities.UserRoleAdmin)
				app.Audit.LogAuth(userIDOf(user), "create_admin", "cli", "", err == nil)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&username, "username", "", "Login name (required)")
	f.StringVar(&email, "email", "", "Email address (required)")
	f.StringVar(&password, "password", "", "Password (required)")
	for _, name := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func userIDOf(u *entities.User) uint {
	if u == nil {
		return 0
	}
	return u.ID
}
