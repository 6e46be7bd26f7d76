// Package config provides configuration structures and utilities for
// profscan. It defines the crawl budget for a harvest run (worker count,
// politeness delays, retry limits) and the loader for the optional
// .profscan YAML configuration file.
package config
