package model

import (
	"sort"
	"time"
)

// HarvestReport is the complete result of one harvest run.
//
// Design decision: We keep records and failures in a single structure rather
// than returning them separately from every layer because the report is what
// flows into the writers and the database. Completed runs satisfy
// len(Records)+len(Failures) == Dispatched, so the report never under-counts.
type HarvestReport struct {
	// Seeds are the sitemap index URLs the run started from.
	Seeds []string `json:"seeds"`

	// Marker is the profile-marker substring used to classify leaf URLs.
	Marker string `json:"marker"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Discovered is the number of unique profile URLs found in the sitemaps.
	Discovered int `json:"discovered"`

	// Dispatched is the number of profile URLs actually fetched.
	// Equal to Discovered unless a limit was set or the run was cancelled.
	Dispatched int `json:"dispatched"`

	// Cancelled reports whether the run was interrupted before completion.
	// Records and Failures still hold everything collected up to that point.
	Cancelled bool `json:"cancelled,omitempty"`

	// Records holds the successfully extracted profiles.
	Records []ProfileRecord `json:"records"`

	// Failures holds every URL that produced no record, including
	// discovery-phase sitemap failures.
	Failures []FailedExtraction `json:"failures"`
}

// NewHarvestReport creates an empty report for the given seeds and marker.
func NewHarvestReport(seeds []string, marker string) *HarvestReport {
	return &HarvestReport{
		Seeds:     seeds,
		Marker:    marker,
		StartedAt: time.Now(),
		Records:   make([]ProfileRecord, 0),
		Failures:  make([]FailedExtraction, 0),
	}
}

// Summary is the aggregated view of a harvest run used by the reporting
// layer and the run archive.
type Summary struct {
	// Discovered is the number of unique profile URLs found.
	Discovered int `json:"discovered"`

	// Dispatched is the number of profile URLs fetched.
	Dispatched int `json:"dispatched"`

	// Succeeded is the number of records extracted.
	Succeeded int `json:"succeeded"`

	// Failed is the total number of failures, discovery included.
	Failed int `json:"failed"`

	// FailureBreakdown maps failure kind names to counts.
	FailureBreakdown map[string]int `json:"failure_breakdown,omitempty"`

	// Elapsed is the run duration.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Summary computes the aggregated counts for the report.
func (r *HarvestReport) Summary() Summary {
	s := Summary{
		Discovered: r.Discovered,
		Dispatched: r.Dispatched,
		Succeeded:  len(r.Records),
		Failed:     len(r.Failures),
		Elapsed:    r.Elapsed,
	}
	if len(r.Failures) > 0 {
		s.FailureBreakdown = make(map[string]int)
		for _, f := range r.Failures {
			s.FailureBreakdown[f.Kind.String()]++
		}
	}
	return s
}

// FailureKinds returns the kind names present in the report, sorted, so
// writers can render the breakdown in a stable order.
func (r *HarvestReport) FailureKinds() []string {
	seen := make(map[string]bool)
	kinds := make([]string, 0)
	for _, f := range r.Failures {
		name := f.Kind.String()
		if !seen[name] {
			seen[name] = true
			kinds = append(kinds, name)
		}
	}
	sort.Strings(kinds)
	return kinds
}
