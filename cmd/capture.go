/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The capture command takes screenshots from the shell.
//
// Features:
//   - Re-capture a single bookmark by ID. The owner must be named with --user.
//   - Capture every bookmark that has no screenshot yet, oldest first.
//   - Limit how many bookmarks a run attempts.
//
// Example usage:
//
//	snapmark capture --id=123 --user=alice
//	snapmark capture --limit=10 --browser=rod --stealth
package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture mobile screenshots for bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture(cmd)
	},
}

// runCapture is the main function for the capture command.
func runCapture(cmd *cobra.Command) error {
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return fmt.Errorf("failed to read --id: %w", err)
	}
	username, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("failed to read --user: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit: %w", err)
	}
	if id > 0 && username == "" {
		return errors.New("--user is required with --id")
	}

	database, err := initDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(database)

	bookmarks, stop, err := newBookmarks(database)
	if err != nil {
		return err
	}
	defer stop()

	ctx := cmd.Context()

	if id > 0 {
		u, err := database.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		res, err := bookmarks.Refresh(ctx, u.ID, id)
		if err != nil {
			return err
		}
		if !res.ScreenshotCaptured {
			return fmt.Errorf("failed to capture screenshot for bookmark %d", id)
		}
		logger.WithField("path", res.Bookmark.ScreenshotPath).Info("Screenshot refreshed")
		return nil
	}

	res, err := bookmarks.CaptureMissing(ctx, limit)
	logger.WithFields(logrus.Fields{
		"attempted": res.Attempted,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}).Info("Capture run finished")
	return err
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int64("id", 0, "Re-capture a specific bookmark id")
	captureCmd.Flags().String("user", "", "Owner of the bookmark given by --id")
	captureCmd.Flags().Int("limit", 0, "Limit the number of bookmarks to capture (0 = all without a screenshot)")
}
