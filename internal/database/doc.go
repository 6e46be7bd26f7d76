// Package database provides SQLite-based storage for harvest runs.
//
// This package implements the HarvestDB, which stores:
//   - One row per completed harvest run with its summary counts
//   - Extracted profile records, unique per run and source URL
//   - Per-URL failures for later inspection
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The archive is an export sink for finished results. No run reads it to
// resume or skip work; every harvest starts from the sitemaps alone.
package database
