// Package model defines the core data structures used throughout profscan.
//
// This package contains the following main types:
//   - ProfileRecord: One extracted profile with the fixed export schema
//   - FailedExtraction: A URL that produced no record, with a failure kind
//   - HarvestReport: The full result of one harvest run
//   - Summary: Aggregated counts and a failure breakdown for reporting
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (sitemap, extract, pipeline, report,
// database) need to use these types, so centralizing them prevents import
// cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
