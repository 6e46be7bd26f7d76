package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/profscan/internal/config"
	"github.com/nao1215/profscan/internal/database"
	"github.com/nao1215/profscan/internal/extract"
	"github.com/nao1215/profscan/internal/fetch"
	"github.com/nao1215/profscan/internal/log"
	"github.com/nao1215/profscan/internal/model"
	"github.com/nao1215/profscan/internal/pipeline"
	"github.com/nao1215/profscan/internal/report"
	"github.com/nao1215/profscan/internal/sitemap"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Expand sitemaps and harvest profile pages into a table",
		Long: `Harvest runs the full pipeline: it expands the seed sitemap indexes,
collects every URL whose path contains the profile marker, fetches those
pages concurrently with a politeness delay, extracts contact data from
JSON-LD and microdata markup, and exports the result.

The run summary is always printed to the terminal. Unless --no-db is
given, the completed run is also archived in the local database so it
appears in 'profscan runs'.

Examples:
  # Harvest with the built-in defaults
  profscan harvest

  # Harvest a different site into an Excel workbook
  profscan harvest --sitemap https://example.com/sitemap.xml \
    --marker /advisor/ --format xlsx --output advisors.xlsx

  # Dry-run sized harvest: first 100 profiles only
  profscan harvest --limit 100

  # Slow down for a sensitive site
  profscan harvest --workers 2 --min-delay 1s --max-delay 3s --max-rps 1`,
		Args: cobra.NoArgs,
		RunE: runHarvestCmd,
	}

	addCrawlFlags(cmd)

	// Export flags
	cmd.Flags().StringP("output", "o", "",
		"Export file path (default: profiles.<format extension>)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Export format: csv, xlsx, json, or markdown")
	cmd.Flags().IntP("limit", "l", 0,
		"Harvest only the first N discovered profile URLs (0 = all)")
	cmd.Flags().Bool("no-db", false,
		"Do not archive the run in the local database")

	return cmd
}

// addCrawlFlags registers the flags shared by harvest and discover.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("sitemap", "s", []string{config.DefaultSeed},
		"Sitemap index URL to expand (repeatable)")
	cmd.Flags().StringP("marker", "m", config.DefaultMarker,
		"Path fragment identifying a profile page URL")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent harvest workers")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay,
		"Lower bound of the per-worker politeness delay")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay,
		"Upper bound of the per-worker politeness delay")
	cmd.Flags().IntP("retries", "r", config.DefaultRetryLimit,
		"Number of retries for transient fetch failures")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request HTTP timeout")
	cmd.Flags().Float64("max-rps", 0,
		"Aggregate request rate cap across all workers (0 = none)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .profscan in current or home directory)")
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, _ []string) error {
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

	return runHarvest(ctx, cmd, cfg, logger)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// buildConfig creates a Config from the configuration file and command
// flags. File values apply first; explicitly set flags win over them.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	found := config.FindConfigFile(configPath)
	if found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.Apply(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("sitemap") {
		if cfg.Seeds, err = flags.GetStringSlice("sitemap"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("marker") {
		if cfg.Marker, err = flags.GetString("marker"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("min-delay") {
		if cfg.MinDelay, err = flags.GetDuration("min-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-delay") {
		if cfg.MaxDelay, err = flags.GetDuration("max-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retries") {
		if cfg.RetryLimit, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-rps") {
		if cfg.MaxRPS, err = flags.GetFloat64("max-rps"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}

	// Export flags exist on harvest only.
	if flags.Lookup("output") != nil {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("format") != nil {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("limit") != nil {
		if cfg.Limit, err = flags.GetInt("limit"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("no-db") != nil {
		if cfg.NoDB, err = flags.GetBool("no-db"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getVerboseFlag retrieves the persistent verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newFetchClient builds the shared HTTP fetch client from the crawl budget.
func newFetchClient(cfg *config.Config, logger *slog.Logger) *fetch.Client {
	return fetch.New(
		&http.Client{Timeout: cfg.Timeout},
		fetch.WithDelayBounds(cfg.MinDelay, cfg.MaxDelay),
		fetch.WithRetryLimit(cfg.RetryLimit),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithRateLimit(cfg.MaxRPS),
		fetch.WithLogger(logger),
	)
}

// runHarvest executes the harvest pipeline end to end.
// A cancelled run still exports and summarizes the partial results.
func runHarvest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	client := newFetchClient(cfg, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Expanding %d sitemap seed(s)...\n", len(cfg.Seeds))
	expander := sitemap.NewExpander(client, cfg.Marker, sitemap.WithLogger(logger))
	discovery := expander.Expand(ctx, cfg.Seeds)
	fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d profile URLs across %d sitemaps\n",
		len(discovery.ProfileURLs), discovery.SitemapsFetched)

	extractor := extract.NewExtractor(client, extract.WithLogger(logger))
	harvester := pipeline.NewHarvester(extractor,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLimit(cfg.Limit),
		pipeline.WithLogger(logger),
	)
	harvestReport := harvester.Run(ctx, discovery.ProfileURLs)

	harvestReport.Seeds = cfg.Seeds
	harvestReport.Marker = cfg.Marker
	harvestReport.Failures = append(discovery.Failures, harvestReport.Failures...)

	outputPath, err := exportReport(cfg, harvestReport)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d profiles to %s\n",
		len(harvestReport.Records), outputPath)

	if _, err := report.NewSummaryWriter(cmd.OutOrStdout()).Write(harvestReport); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if !cfg.NoDB {
		if err := archiveRun(ctx, cfg, harvestReport, logger); err != nil {
			// The export already succeeded; a broken archive should not
			// fail the run.
			logger.Error("failed to archive run", "error", err)
		}
	}

	return nil
}

// exportReport writes the report in the configured format and returns the
// output path used.
func exportReport(cfg *config.Config, harvestReport *model.HarvestReport) (string, error) {
	outputPath := cfg.Output
	if outputPath == "" {
		outputPath = "profiles." + formatExtension(cfg.Format)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(outputPath) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := newExportWriter(cfg.Format, f).Write(harvestReport); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s export: %w", cfg.Format, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	return outputPath, nil
}

// newExportWriter selects the report writer for the given format.
// Validate has already rejected unknown formats; CSV is the default.
func newExportWriter(format string, out io.Writer) report.Writer {
	switch format {
	case "xlsx":
		return report.NewXLSXWriter(out)
	case "json":
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case "markdown":
		return report.NewMarkdownWriter(out)
	default:
		return report.NewCSVWriter(out)
	}
}

// formatExtension maps an export format to its file extension.
func formatExtension(format string) string {
	if format == "markdown" {
		return "md"
	}
	return format
}

// archiveRun saves the completed run in the local database.
func archiveRun(ctx context.Context, cfg *config.Config, harvestReport *model.HarvestReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	runID, err := db.SaveReport(ctx, harvestReport)
	if err != nil {
		return err
	}
	logger.Info("run archived", "run_id", runID, "db", db.Path())
	return nil
}
