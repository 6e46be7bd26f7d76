package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/profscan/internal/fetch"
	"github.com/nao1215/profscan/internal/model"
)

// ErrMissingName is returned when neither extraction pass produced a name.
// Name is the only required field; a record is never emitted without it.
var ErrMissingName = errors.New("no name in structured data or microdata")

// Extractor turns one profile page into a ProfileRecord.
type Extractor struct {
	// client downloads profile pages.
	client *fetch.Client

	// logger for per-page debug logging.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor using the given fetch client.
func NewExtractor(client *fetch.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches and parses one profile page.
// Failures are reported as errors; Failure converts them into the
// FailedExtraction taxonomy for the pipeline.
func (e *Extractor) Extract(ctx context.Context, url string) (*model.ProfileRecord, error) {
	body, err := e.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	record, err := Parse(body, url)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extracted profile", "url", url)
	return record, nil
}

// Parse extracts a record from raw page bytes. It is deterministic: the
// same bytes always yield a bit-identical record.
func Parse(body []byte, url string) (*model.ProfileRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	var f fields
	collectJSONLD(doc, &f)
	collectMicrodata(doc, &f)

	if f.name == "" {
		return nil, fmt.Errorf("%s: %w", url, ErrMissingName)
	}

	record := &model.ProfileRecord{
		Name:       f.name,
		PostalCode: f.zip,
		City:       f.city,
		Street:     f.street,
		Email:      f.email,
		SourceURL:  url,
	}
	if len(f.phones) > 0 {
		record.PrimaryPhone = f.phones[0]
	}
	if len(f.phones) > 1 {
		record.SecondaryPhone = f.phones[1]
	}
	return record, nil
}

// Failure classifies an extraction error into the failure taxonomy.
func Failure(url string, err error) model.FailedExtraction {
	kind := model.FailureKindParse
	var fetchErr *fetch.Error
	switch {
	case errors.As(err, &fetchErr):
		kind = model.FailureKindNetwork
	case errors.Is(err, ErrMissingName):
		kind = model.FailureKindMissingRequiredField
	}
	return model.FailedExtraction{
		URL:    url,
		Kind:   kind,
		Reason: err.Error(),
	}
}
