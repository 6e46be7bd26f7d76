package model

// FailureKind classifies why a URL produced no record.
type FailureKind int

// Failure kinds, ordered roughly by pipeline phase.
const (
	// FailureKindUnknown is the zero value and should not appear in reports.
	FailureKindUnknown FailureKind = iota

	// FailureKindDiscovery marks a sitemap that could not be fetched or
	// decoded during URL discovery. Discovery failures never abort the run.
	FailureKindDiscovery

	// FailureKindNetwork marks a profile page fetch that failed after
	// retries were exhausted, or failed with a non-retryable status.
	FailureKindNetwork

	// FailureKindParse marks a profile page whose HTML or embedded
	// structured data could not be parsed.
	FailureKindParse

	// FailureKindMissingRequiredField marks a page that parsed cleanly but
	// yielded no name from either extraction source.
	FailureKindMissingRequiredField
)

// String returns the human-readable kind name used in reports and logs.
func (k FailureKind) String() string {
	switch k {
	case FailureKindDiscovery:
		return "discovery"
	case FailureKindNetwork:
		return "network"
	case FailureKindParse:
		return "parse"
	case FailureKindMissingRequiredField:
		return "missing-required-field"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize as their
// names in JSON reports instead of opaque integers.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FailedExtraction records a URL that yielded no ProfileRecord.
//
// Failures are first-class results: the pipeline returns them alongside
// records and the reporting layer surfaces their counts, so no URL is ever
// silently dropped.
type FailedExtraction struct {
	// URL is the sitemap or profile URL that failed.
	URL string `json:"url"`

	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Reason is a human-readable detail, typically the underlying error text.
	Reason string `json:"reason,omitempty"`
}
