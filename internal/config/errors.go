package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and describe the first
// rule a configuration violates.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic handling while still providing human-readable messages.
var (
	// ErrNoSeeds is returned when no sitemap seed URL is configured.
	ErrNoSeeds = errors.New("no seed sitemap specified: provide at least one --sitemap URL")

	// ErrInvalidSeed is returned when a seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed sitemap: must be an absolute http or https URL")

	// ErrEmptyMarker is returned when the profile-marker substring is empty.
	// Without a marker every leaf URL would be discarded.
	ErrEmptyMarker = errors.New("empty profile marker: --marker must be a non-empty path fragment")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrNegativeDelay is returned when a politeness delay bound is negative.
	ErrNegativeDelay = errors.New("invalid politeness delay: must be non-negative")

	// ErrDelayBounds is returned when the minimum delay exceeds the maximum.
	ErrDelayBounds = errors.New("invalid politeness delay: --min-delay cannot exceed --max-delay")

	// ErrInvalidRetryLimit is returned when the retry limit is negative.
	ErrInvalidRetryLimit = errors.New("invalid retry limit: must be non-negative")

	// ErrInvalidLimit is returned when the profile limit is negative.
	// Use 0 to harvest everything.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxRPS is returned when the aggregate rate cap is negative.
	// Use 0 to disable the cap.
	ErrInvalidMaxRPS = errors.New("invalid max requests per second: must be non-negative")

	// ErrUnknownFormat is returned when the export format is not one of
	// csv, xlsx, json, or markdown.
	ErrUnknownFormat = errors.New("unknown export format: use csv, xlsx, json, or markdown")
)
