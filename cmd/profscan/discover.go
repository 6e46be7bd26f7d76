package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/profscan/internal/log"
	"github.com/nao1215/profscan/internal/sitemap"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Expand sitemaps and print the discovered profile URLs",
		Long: `Discover runs only the sitemap expansion phase and prints every
discovered profile URL, one per line, in discovery order. No profile page
is fetched.

This is useful for dry runs: inspect what a harvest would fetch, count
profiles with 'wc -l', or pipe the list into other tools.

Examples:
  # Print all profile URLs for the default site
  profscan discover

  # Check marker coverage on another site
  profscan discover --sitemap https://example.com/sitemap.xml --marker /advisor/`,
		Args: cobra.NoArgs,
		RunE: runDiscoverCmd,
	}

	addCrawlFlags(cmd)

	return cmd
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewRedactingLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	client := newFetchClient(cfg, logger)
	expander := sitemap.NewExpander(client, cfg.Marker, sitemap.WithLogger(logger))
	discovery := expander.Expand(ctx, cfg.Seeds)

	for _, url := range discovery.ProfileURLs {
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d profile URLs from %d sitemaps (%d URLs examined)\n",
		len(discovery.ProfileURLs), discovery.SitemapsFetched, discovery.URLsSeen)
	for _, failure := range discovery.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "sitemap failure: %s: %s\n", failure.URL, failure.Reason)
	}

	return nil
}
