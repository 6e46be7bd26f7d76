// Package main provides the entry point for the profscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for profscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profscan",
		Short: "Harvest public advisor profiles from sitemap-indexed websites",
		Long: `profscan harvests public advisor profiles from sitemap-indexed websites.

It expands sitemap indexes recursively, fetches every profile page with a
politeness delay and retry budget, extracts contact data from JSON-LD and
microdata markup, and exports the deduplicated result as CSV, XLSX, JSON,
or Markdown.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
