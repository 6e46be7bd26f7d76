package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Worker count and delay bounds are deliberately conservative so a
// default run stays polite.
const (
	// DefaultWorkers is the number of concurrent harvest workers.
	// Eight workers keeps the number of outstanding connections small
	// while still saturating the politeness delay window.
	DefaultWorkers = 8

	// DefaultMinDelay is the lower bound of the per-worker politeness
	// delay applied before every request.
	DefaultMinDelay = 300 * time.Millisecond

	// DefaultMaxDelay is the upper bound of the politeness delay.
	DefaultMaxDelay = 800 * time.Millisecond

	// DefaultRetryLimit is the number of retries after the first attempt
	// for transient fetch failures (timeout, 5xx, 429).
	DefaultRetryLimit = 3

	// DefaultTimeout is the per-request HTTP timeout. It applies to each
	// request individually, never to the overall run.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for sitemaps and profile pages while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSeed is the well-known sitemap index the harvest starts from
	// when no --sitemap flag is given.
	DefaultSeed = "https://www.dvag.de/sitemap-index.xml"

	// DefaultMarker is the path fragment identifying a profile page URL.
	DefaultMarker = "/vermoegensberater/"

	// DefaultFormat is the export format when --format is not given.
	DefaultFormat = "csv"

	// DefaultUserAgent identifies profscan in HTTP requests. A descriptive
	// User-Agent lets site operators identify harvester traffic in logs.
	DefaultUserAgent = "profscan/1.0 (+https://github.com/nao1215/profscan)"

	// AppName is the application name used for XDG directory paths.
	AppName = "profscan"
)

// Formats lists the supported export formats.
var Formats = []string{"csv", "xlsx", "json", "markdown"}

// Config holds the crawl budget and output options for one harvest run.
// It is populated from CLI flags (and optionally a .profscan file), validated
// once before any network activity, and then passed by value through the
// application. Components never reach for global mutable settings.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ExportConfig) for simplicity, matching the manageable
// number of options. If the configuration grows significantly, consider
// refactoring into sub-structs.
type Config struct {
	// Seeds are the sitemap index URLs expansion starts from.
	// Each must be a well-formed absolute http(s) URL.
	Seeds []string

	// Marker is the path substring identifying a leaf URL as a profile
	// page. Matching is case-insensitive.
	Marker string

	// Workers is the size of the harvest worker pool. Must be positive.
	Workers int

	// MinDelay and MaxDelay bound the uniform random politeness delay each
	// worker waits before a request. The delay throttles each worker's own
	// request rate, not the aggregate.
	MinDelay time.Duration
	MaxDelay time.Duration

	// RetryLimit is the number of retries for transient fetch failures.
	RetryLimit int

	// Limit caps the number of profile URLs dispatched to workers.
	// Zero means no cap. The first Limit URLs in discovery order are used.
	Limit int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// MaxRPS, when positive, caps the aggregate request rate across all
	// workers in addition to the per-worker delay. Zero disables the cap.
	MaxRPS float64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request, typically
	// loaded from the configuration file.
	Headers map[string]string

	// Output is the export file path. Empty means a format-derived default
	// chosen by the CLI layer.
	Output string

	// Format selects the export writer: csv, xlsx, json, or markdown.
	Format string

	// NoDB disables archiving the completed run in the local database.
	NoDB bool

	// DBDir is the directory holding the run archive database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (delays, timeout, worker count). The
// constructor also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Seeds:       []string{DefaultSeed},
		Marker:      DefaultMarker,
		Workers:     DefaultWorkers,
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		RetryLimit:  DefaultRetryLimit,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		Format:      DefaultFormat,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for profscan.
// On Linux: ~/.local/share/profscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for profscan.
// On Linux: ~/.config/profscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks whether the configuration is usable and returns a
// specific sentinel error for the first violated rule.
//
// Design decision: Validation happens once, before any network activity,
// so a misconfigured run fails fast instead of half-harvesting. We return
// the first error found rather than collecting all errors because fixing
// one often makes the others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidSeed
		}
	}
	if c.Marker == "" {
		return ErrEmptyMarker
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return ErrNegativeDelay
	}
	if c.MinDelay > c.MaxDelay {
		return ErrDelayBounds
	}
	if c.RetryLimit < 0 {
		return ErrInvalidRetryLimit
	}
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxRPS < 0 {
		return ErrInvalidMaxRPS
	}
	if !validFormat(c.Format) {
		return ErrUnknownFormat
	}
	return nil
}

// validFormat reports whether name is a supported export format.
func validFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}
