// Package fetch provides the rate-limited HTTP client used for sitemap and
// profile page downloads.
//
// # Politeness
//
// The client is designed to be polite to the harvested site:
//   - A uniform random delay bounded by the crawl budget is paid before
//     every request. The delay is per caller, so each worker throttles its
//     own request rate rather than serializing the whole pool.
//   - An optional aggregate token-bucket cap can bound the process-wide
//     request rate on top of the per-worker delay.
//   - Retry-After hints on 429 and 503 responses are honored.
//
// # Failure taxonomy
//
// Fetch failures surface as *Error with a Kind (network, timeout, http-4xx,
// http-429, http-5xx). Transient kinds are retried with exponential backoff
// inside the client; callers only see the final outcome, so retries stay
// invisible to the pipeline's concurrency model.
package fetch
