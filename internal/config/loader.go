package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".profscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .profscan configuration file.
// Every field is optional; CLI flags take precedence over file values.
type File struct {
	// Seeds are the sitemap index URLs to expand.
	Seeds []string `yaml:"seeds,omitempty"`

	// Marker is the profile-marker path fragment.
	Marker string `yaml:"marker,omitempty"`

	// Workers is the harvest worker pool size.
	Workers int `yaml:"workers,omitempty"`

	// MinDelay and MaxDelay bound the politeness delay, e.g. "300ms".
	MinDelay time.Duration `yaml:"minDelay,omitempty"`
	MaxDelay time.Duration `yaml:"maxDelay,omitempty"`

	// RetryLimit is the number of retries for transient fetch failures.
	RetryLimit int `yaml:"retryLimit,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// LoadConfigFile loads harvest settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that is fatal based on whether the path was explicitly given.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies the file's non-zero values onto the config.
// It is called before flag values are applied, so flags win.
func (f *File) Apply(c *Config) {
	if len(f.Seeds) > 0 {
		c.Seeds = f.Seeds
	}
	if f.Marker != "" {
		c.Marker = f.Marker
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	if f.MinDelay > 0 {
		c.MinDelay = f.MinDelay
	}
	if f.MaxDelay > 0 {
		c.MaxDelay = f.MaxDelay
	}
	if f.RetryLimit > 0 {
		c.RetryLimit = f.RetryLimit
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .profscan in the current directory
// 3. Look for .profscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
