package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client performs rate-limited HTTP GET requests with retry and backoff.
// It wraps an injected *http.Client so tests and callers control transport
// configuration and the per-request timeout.
type Client struct {
	// httpClient is the underlying HTTP client. Its Timeout applies per
	// request, never to the overall run.
	httpClient *http.Client

	// minDelay and maxDelay bound the uniform random politeness delay
	// paid before every request by the calling goroutine.
	minDelay time.Duration
	maxDelay time.Duration

	// retryLimit is the number of retries after the first attempt for
	// transient failures.
	retryLimit int

	// backoffBase is the first backoff interval; it doubles per retry.
	backoffBase time.Duration

	// backoffMax caps a single backoff interval.
	backoffMax time.Duration

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra headers sent with every request.
	headers map[string]string

	// limiter optionally caps the aggregate request rate across all
	// callers sharing this client. Nil means no aggregate cap.
	limiter *rate.Limiter

	// logger for per-attempt debug logging.
	logger *slog.Logger

	// sleep waits for the given duration or until ctx is done.
	// Replaceable in tests to observe backoff intervals.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithDelayBounds sets the politeness delay bounds.
func WithDelayBounds(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.minDelay = minDelay
		c.maxDelay = maxDelay
	}
}

// WithRetryLimit sets the number of retries for transient failures.
func WithRetryLimit(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryLimit = n
		}
	}
}

// WithBackoff sets the initial and maximum backoff intervals.
func WithBackoff(base, maxInterval time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffMax = maxInterval
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithRateLimit caps the aggregate request rate in requests per second.
// Zero or negative disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client with the given HTTP client.
//
// Design decision: We require an external client because the per-request
// timeout and transport belong to the caller, and tests can inject an
// httptest-backed client.
func New(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient:  httpClient,
		minDelay:    0,
		maxDelay:    0,
		retryLimit:  3,
		backoffBase: 500 * time.Millisecond,
		backoffMax:  30 * time.Second,
		maxBodySize: 5 * 1024 * 1024, // 5MB
		userAgent:   "profscan/1.0 (+https://github.com/nao1215/profscan)",
		logger:      slog.Default(),
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch downloads the URL and returns the response body.
// On failure it returns a *Error describing the failure kind. Transient
// failures are retried with exponential backoff before surfacing; 4xx
// statuses other than 429 and malformed URLs surface immediately.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		if err == nil {
			err = errors.New("not an absolute URL")
		}
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}

	var lastErr *Error
	attempts := c.retryLimit + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.politenessDelay(ctx); err != nil {
			return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
			}
		}

		body, fetchErr := c.doRequest(ctx, rawURL)

		c.logger.Debug("fetch attempt",
			"url", rawURL,
			"attempt", attempt+1,
			"error", errString(fetchErr),
		)

		if fetchErr == nil {
			return body, nil
		}
		lastErr = fetchErr

		// Context cancellation is never worth retrying.
		if ctx.Err() != nil {
			return nil, lastErr
		}

		if !retryable(fetchErr.Kind) {
			return nil, lastErr
		}
		if attempt == attempts-1 {
			break
		}

		wait := c.backoffInterval(attempt, fetchErr)
		c.logger.Debug("retrying after backoff",
			"url", rawURL,
			"attempt", attempt+1,
			"wait", wait,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// doRequest performs a single GET attempt.
func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindNetwork
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		} else if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
		if err != nil {
			return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindHTTP429, URL: rawURL, StatusCode: resp.StatusCode,
			Err: retryAfterHint(resp)}
	case resp.StatusCode >= 500:
		return nil, &Error{Kind: KindHTTP5xx, URL: rawURL, StatusCode: resp.StatusCode,
			Err: retryAfterHint(resp)}
	case resp.StatusCode >= 400:
		return nil, &Error{Kind: KindHTTP4xx, URL: rawURL, StatusCode: resp.StatusCode}
	default:
		return nil, &Error{Kind: KindNetwork, URL: rawURL, StatusCode: resp.StatusCode,
			Err: errors.New("unexpected status")}
	}
}

// politenessDelay pays the uniform random delay for one request.
// The delay blocks only the calling goroutine.
func (c *Client) politenessDelay(ctx context.Context) error {
	if c.maxDelay <= 0 {
		return ctx.Err()
	}
	d := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	return c.sleep(ctx, d)
}

// backoffInterval computes the wait before retry number attempt+1.
// A Retry-After hint on the failed response takes precedence over the
// exponential schedule.
func (c *Client) backoffInterval(attempt int, fetchErr *Error) time.Duration {
	if hint, ok := fetchErr.Err.(*retryAfterError); ok && hint.after > 0 {
		return hint.after
	}

	wait := c.backoffBase << uint(attempt)
	if wait > c.backoffMax {
		wait = c.backoffMax
	}
	// Jitter in [1.0, 1.5) keeps the schedule strictly increasing while
	// desynchronizing concurrent workers.
	wait += time.Duration(rand.Int64N(int64(wait)/2 + 1))
	if wait > c.backoffMax {
		wait = c.backoffMax
	}
	return wait
}

// retryable reports whether a failure kind is worth retrying.
func retryable(k Kind) bool {
	switch k {
	case KindTimeout, KindHTTP429, KindHTTP5xx:
		return true
	case KindNetwork:
		// Connection resets and refused connections are transient.
		return true
	default:
		return false
	}
}

// retryAfterError carries a parsed Retry-After hint through the error value.
type retryAfterError struct {
	after time.Duration
}

// Error implements the error interface.
func (e *retryAfterError) Error() string {
	if e.after > 0 {
		return "retry after " + e.after.String()
	}
	return "server asked to retry"
}

// retryAfterHint parses the Retry-After header of a 429/503 response.
// Returns nil if the header is absent or unparseable.
func retryAfterHint(resp *http.Response) error {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return nil
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return &retryAfterError{after: time.Duration(secs) * time.Second}
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return &retryAfterError{after: d}
		}
	}
	return nil
}

// errString renders an error for log attributes without panicking on nil.
func errString(err *Error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
