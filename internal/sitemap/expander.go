package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/profscan/internal/fetch"
	"github.com/nao1215/profscan/internal/model"
)

// Expander resolves a set of seed sitemap URLs into the deduplicated list
// of profile page URLs they reference.
type Expander struct {
	// client downloads sitemap documents.
	client *fetch.Client

	// marker is the path substring identifying a profile page URL.
	// Matching is case-insensitive.
	marker string

	// logger for discovery progress and failures.
	logger *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets a custom logger for the expander.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		e.logger = logger
	}
}

// NewExpander creates an Expander using the given fetch client and
// profile-marker substring.
func NewExpander(client *fetch.Client, marker string, opts ...Option) *Expander {
	e := &Expander{
		client: client,
		marker: strings.ToLower(marker),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds the outcome of one expansion.
type Result struct {
	// ProfileURLs are the unique profile page URLs in discovery order.
	ProfileURLs []string

	// Failures are sitemaps that could not be fetched or decoded.
	Failures []model.FailedExtraction

	// SitemapsFetched is the number of sitemap documents processed.
	SitemapsFetched int

	// URLsSeen is the total number of <url> entries examined.
	URLsSeen int
}

// document mirrors the sitemap protocol's two document shapes. A
// <sitemapindex> root fills Sitemaps; a <urlset> root fills URLs. Decoding
// matches on local element names, so namespaced and namespace-less
// documents both work.
type document struct {
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

// locEntry is a single <sitemap> or <url> element.
type locEntry struct {
	Loc string `xml:"loc"`
}

// Expand performs the breadth-first traversal from the seed URLs.
// It returns everything discovered so far when ctx is cancelled.
func (e *Expander) Expand(ctx context.Context, seeds []string) *Result {
	result := &Result{
		ProfileURLs: make([]string, 0),
		Failures:    make([]model.FailedExtraction, 0),
	}

	// visited guards both sitemaps and classified leaf URLs; enqueue-time
	// checks ensure a URL is never fetched or emitted twice.
	visited := make(map[string]bool)
	queue := make([]string, 0, len(seeds))

	for _, seed := range seeds {
		key := normalizeURL(seed)
		if !visited[key] {
			visited[key] = true
			queue = append(queue, seed)
		}
	}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			e.logger.Info("discovery cancelled",
				"queued", len(queue),
				"found", len(result.ProfileURLs),
			)
			return result
		default:
		}

		current := queue[0]
		queue = queue[1:]

		e.logger.Debug("fetching sitemap", "url", current)

		body, err := e.client.Fetch(ctx, current)
		if err != nil {
			e.logger.Warn("sitemap fetch failed", "url", current, "error", err)
			result.Failures = append(result.Failures, model.FailedExtraction{
				URL:    current,
				Kind:   model.FailureKindDiscovery,
				Reason: err.Error(),
			})
			continue
		}

		doc, err := decodeSitemap(current, body)
		if err != nil {
			e.logger.Warn("sitemap decode failed", "url", current, "error", err)
			result.Failures = append(result.Failures, model.FailedExtraction{
				URL:    current,
				Kind:   model.FailureKindDiscovery,
				Reason: err.Error(),
			})
			continue
		}
		result.SitemapsFetched++

		for _, child := range doc.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			key := normalizeURL(loc)
			if visited[key] {
				continue
			}
			visited[key] = true
			queue = append(queue, loc)
		}

		for _, leaf := range doc.URLs {
			loc := strings.TrimSpace(leaf.Loc)
			if loc == "" {
				continue
			}
			result.URLsSeen++
			if !e.isProfileURL(loc) {
				continue
			}
			key := normalizeURL(loc)
			if visited[key] {
				continue
			}
			visited[key] = true
			result.ProfileURLs = append(result.ProfileURLs, loc)
		}
	}

	e.logger.Info("discovery complete",
		"sitemaps", result.SitemapsFetched,
		"urlsSeen", result.URLsSeen,
		"profiles", len(result.ProfileURLs),
		"failures", len(result.Failures),
	)
	return result
}

// isProfileURL reports whether the URL's path contains the profile marker.
func (e *Expander) isProfileURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Path), e.marker)
}

// decodeSitemap unwraps gzip payloads and decodes the XML document.
func decodeSitemap(rawURL string, body []byte) (*document, error) {
	if isGzip(rawURL, body) {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		unpacked, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		body = unpacked
	}

	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// isGzip detects gzip payloads by URL suffix or magic bytes. Some servers
// serve .gz sitemaps without a Content-Encoding header, so the bytes are
// checked either way.
func isGzip(rawURL string, body []byte) bool {
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		return true
	}
	return strings.HasSuffix(strings.ToLower(rawURL), ".gz")
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize because the same document is often listed
// under several spellings:
//  1. Scheme and host casing varies between sitemaps
//  2. Fragments never change the fetched content
//  3. Trailing slashes are not significant for the harvested site
func normalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		path = "/"
	}
	u.Path = strings.ToLower(path)

	return u.String()
}
