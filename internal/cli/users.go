package cli

import (
	"github.com/spf13/cobra"

	"wealthwise/internal/errors"
)

// addUserCommands adds the user registry commands.
func addUserCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage ledger users",
		Long:  "Register, list and delete users. Each user keeps a separate ledger database.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "register <username>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Users == nil {
				return errors.Wrap(errors.ErrConfigInvalid, "user registry unavailable")
			}
			if err := app.Users.Register(args[0]); err != nil {
				return err
			}
			app.Logger.Info().Str("user", args[0]).Msg("User registered")
			if output.IsJSON() {
				return output.JSON(map[string]string{"registered": args[0]})
			}
			output.Success("Registered user %s", args[0])
			output.Dim("Ledger database: %s", app.Users.DBPath(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Users == nil {
				return errors.Wrap(errors.ErrConfigInvalid, "user registry unavailable")
			}
			users, err := app.Users.List()
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(users)
			}
			if len(users) == 0 {
				output.Dim("No users registered")
				return nil
			}
			table := NewTable(output, "USER", "REGISTERED")
			for _, u := range users {
				table.AddRow(u.Username, u.CreatedAt.Format(dateLayout))
			}
			table.Render()
			return nil
		},
	})

	deleteCmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Long:  "Remove a user from the registry. With --purge the ledger database is deleted too.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Users == nil {
				return errors.Wrap(errors.ErrConfigInvalid, "user registry unavailable")
			}
			purge, _ := cmd.Flags().GetBool("purge")
			if err := app.Users.Delete(args[0], purge); err != nil {
				return err
			}
			app.Logger.Info().Str("user", args[0]).Bool("purge", purge).Msg("User deleted")
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"deleted": args[0], "purged": purge})
			}
			if purge {
				output.Success("Deleted user %s and their ledger", args[0])
			} else {
				output.Success("Deleted user %s (ledger kept on disk)", args[0])
			}
			return nil
		},
	}
	deleteCmd.Flags().Bool("purge", false, "also delete the user's ledger database")
	cmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(cmd)
}
