package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/profscan/internal/config"
	"github.com/nao1215/profscan/internal/database"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived harvest runs",
		Long: `Runs lists harvest runs archived in the local database, newest first.

Each line shows the run ID, start time, duration, discovered and
dispatched counts, successes, and failures.

Examples:
  # Show the 20 most recent runs
  profscan runs

  # Show everything ever archived
  profscan runs --limit 0`,
		Args: cobra.NoArgs,
		RunE: runRunsCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the run archive database")
	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list (0 = all)")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Listing must never create an empty archive.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no run archive found in %s (run 'profscan harvest' first): %w", dbDir, err)
	}
	defer db.Close() //nolint:errcheck

	runs, err := db.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-20s %-10s %-11s %-11s %-10s %-8s %s\n",
		"ID", "STARTED", "ELAPSED", "DISCOVERED", "DISPATCHED", "SUCCEEDED", "FAILED", "SEEDS")
	for _, run := range runs {
		status := ""
		if run.Cancelled {
			status = " (cancelled)"
		}
		fmt.Fprintf(out, "%-5d %-20s %-10s %-11d %-11d %-10d %-8d %s%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Elapsed.Round(time.Second),
			run.Discovered,
			run.Dispatched,
			run.Succeeded,
			run.Failed,
			strings.Join(run.Seeds, ","),
			status,
		)
	}

	return nil
}
