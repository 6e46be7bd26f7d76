// Package report writes harvest results in the supported export formats.
//
// Each format implements the Writer interface over *model.HarvestReport:
// CSV and XLSX export the records table, JSON exports the full report,
// Markdown renders a shareable summary, and SummaryWriter prints the
// human-readable run summary for the terminal. MultiWriter fans one report
// out to several destinations, typically a file export plus the terminal
// summary.
package report
