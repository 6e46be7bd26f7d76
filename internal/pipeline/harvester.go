package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/profscan/internal/extract"
	"github.com/nao1215/profscan/internal/model"
)

// progressEvery is the number of completed profiles between progress lines.
const progressEvery = 100

// Extractor turns one profile page URL into a record.
// *extract.Extractor is the production implementation.
type Extractor interface {
	Extract(ctx context.Context, url string) (*model.ProfileRecord, error)
}

// Harvester runs an Extractor over a set of profile URLs with a fixed
// number of concurrent workers.
//
// Design decision: We use errgroup.SetLimit with a shared URL channel rather
// than one goroutine per URL because runs can dispatch hundreds of thousands
// of URLs. A fixed pool keeps memory flat and makes the worker count the
// single knob that controls load on the target host.
type Harvester struct {
	// extractor fetches and parses one profile page.
	extractor Extractor

	// workers is the number of concurrent extraction goroutines.
	workers int

	// limit caps how many URLs are dispatched. Zero means all.
	limit int

	// logger is used for run-level and progress logging.
	logger *slog.Logger

	// mu guards report and completed during a run.
	mu        sync.Mutex
	report    *model.HarvestReport
	completed int
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithWorkers sets the number of concurrent workers.
// Non-positive values keep the default of 8.
func WithWorkers(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.workers = n
		}
	}
}

// WithLimit caps how many URLs are dispatched, in discovery order.
// Zero or negative means no cap.
func WithLimit(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.limit = n
		}
	}
}

// WithLogger sets a custom logger for the harvester.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// NewHarvester creates a Harvester using the given extractor.
func NewHarvester(extractor Extractor, opts ...Option) *Harvester {
	h := &Harvester{
		extractor: extractor,
		workers:   8,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run harvests the given profile URLs and returns the collected report.
//
// Every dispatched URL yields exactly one outcome, a record or a failure.
// When the limit is set, only the first limit URLs in the given order are
// dispatched; the rest are never fetched. On context cancellation Run
// abandons unstarted URLs and returns the outcomes collected so far with
// Cancelled set.
func (h *Harvester) Run(ctx context.Context, urls []string) *model.HarvestReport {
	dispatch := urls
	if h.limit > 0 && h.limit < len(urls) {
		dispatch = urls[:h.limit]
	}

	report := &model.HarvestReport{
		StartedAt:  time.Now(),
		Discovered: len(urls),
		Records:    make([]model.ProfileRecord, 0, len(dispatch)),
		Failures:   make([]model.FailedExtraction, 0),
	}

	h.mu.Lock()
	h.report = report
	h.completed = 0
	h.mu.Unlock()

	h.logger.Info("starting harvest",
		"discovered", len(urls),
		"dispatching", len(dispatch),
		"workers", h.workers,
	)

	queue := make(chan string)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)

	go func() {
		defer close(queue)
		for _, url := range dispatch {
			select {
			case queue <- url:
			case <-gctx.Done():
				return
			}
		}
	}()

	for range h.workers {
		g.Go(func() error {
			for url := range queue {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				h.harvestOne(gctx, url)
			}
			return nil
		})
	}

	// Worker errors only ever carry the context's own error, which the
	// Cancelled flag already reports.
	_ = g.Wait() //nolint:errcheck

	report.Elapsed = time.Since(report.StartedAt)
	report.Cancelled = ctx.Err() != nil

	h.logger.Info("harvest complete",
		"records", len(report.Records),
		"failures", len(report.Failures),
		"cancelled", report.Cancelled,
		"elapsed", report.Elapsed,
	)
	return report
}

// harvestOne extracts a single URL and records the outcome.
// An extraction aborted by context cancellation produces no outcome: the
// URL was never completed and must not be counted as dispatched.
func (h *Harvester) harvestOne(ctx context.Context, url string) {
	record, err := h.extractor.Extract(ctx, url)

	if err != nil && ctx.Err() != nil &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.report.Dispatched++
	if err != nil {
		h.report.Failures = append(h.report.Failures, extract.Failure(url, err))
		h.logger.Debug("profile failed", "url", url, "error", err)
	} else {
		h.report.Records = append(h.report.Records, *record)
	}

	h.completed++
	if h.completed%progressEvery == 0 {
		h.logger.Info("harvest progress",
			"completed", h.completed,
			"records", len(h.report.Records),
			"failures", len(h.report.Failures),
		)
	}
}
