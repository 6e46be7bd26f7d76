// Package log provides structured logging helpers for profscan.
//
// The harvester handles personal data (names, phone numbers, email
// addresses) extracted from public profile pages. That data belongs in the
// exported dataset, not in log files, so this package wraps slog handlers
// with a redacting layer that masks personal data before records reach the
// underlying handler.
package log
