/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/seckatie/snapmark/internal/core"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// importCmd loads a browser bookmark export for one user.
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import bookmarks from a browser export (Netscape HTML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0])
	},
}

func runImport(cmd *cobra.Command, path string) error {
	username, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("failed to read --user: %w", err)
	}
	noCapture, err := cmd.Flags().GetBool("no-capture")
	if err != nil {
		return fmt.Errorf("failed to read --no-capture: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open bookmark file: %w", err)
	}
	defer f.Close()

	database, err := initDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(database)

	ctx := cmd.Context()
	u, err := database.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	var bookmarks *core.Bookmarks
	if noCapture {
		bookmarks = core.NewBookmarks(database, nil, logger)
	} else {
		var stop func()
		bookmarks, stop, err = newBookmarks(database)
		if err != nil {
			return err
		}
		defer stop()
	}

	res, err := bookmarks.Import(ctx, u.ID, f, !noCapture)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"user":     u.Username,
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"captured": res.Captured,
	}).Info("Import complete")
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmark(s), skipped %d\n", res.Imported, res.Skipped)
	return nil
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("user", "", "User that will own the imported bookmarks")
	importCmd.Flags().Bool("no-capture", false, "Import without capturing screenshots")
	_ = importCmd.MarkFlagRequired("user")
}
