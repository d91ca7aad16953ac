/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"

	"github.com/seckatie/snapmark/internal/core"
	"github.com/spf13/cobra"
)

// userCmd groups account management commands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

// userAddCmd registers an account without going through the web form.
var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := cmd.Flags().GetString("username")
		if err != nil {
			return fmt.Errorf("failed to read --username: %w", err)
		}
		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return fmt.Errorf("failed to read --password: %w", err)
		}

		database, err := initDB()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer closeDB(database)

		u, err := core.NewAccounts(database, logger).Register(cmd.Context(), username, password, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("username", "", "Username")
	userAddCmd.Flags().String("password", "", "Password")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("password")
}
