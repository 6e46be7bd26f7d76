// Package pipeline fans profile extraction out over a bounded worker pool.
//
// The Harvester pulls profile URLs from a shared channel with a fixed number
// of workers, runs the extractor on each, and collects every outcome into a
// single HarvestReport. Worker failures never abort the run; they are
// recorded as failures in the report.
package pipeline
