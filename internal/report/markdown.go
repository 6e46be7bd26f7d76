package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/profscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.HarvestReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeRecords(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.HarvestReport) {
	md.H1("Harvest Report")
	md.PlainText("")

	status := "Complete"
	if report.Cancelled {
		status = "Cancelled (partial results)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seeds", "`" + strings.Join(report.Seeds, "`, `") + "`"},
			{"Marker", "`" + report.Marker + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeSummary writes the aggregated counts and failure breakdown.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.HarvestReport) {
	summary := report.Summary()

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Discovered", strconv.Itoa(summary.Discovered)},
			{"Dispatched", strconv.Itoa(summary.Dispatched)},
			{"Succeeded", strconv.Itoa(summary.Succeeded)},
			{"Failed", strconv.Itoa(summary.Failed)},
		},
	})
	md.PlainText("")

	if len(summary.FailureBreakdown) == 0 {
		return
	}

	rows := make([][]string, 0, len(summary.FailureBreakdown))
	for _, kind := range report.FailureKinds() {
		rows = append(rows, []string{kind, strconv.Itoa(summary.FailureBreakdown[kind])})
	}
	md.H3("Failures by kind")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecords writes the extracted profiles table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, report *model.HarvestReport) {
	md.H2("Profiles")
	md.PlainText("")

	if len(report.Records) == 0 {
		md.PlainText("No profiles extracted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Records))
	for _, record := range report.Records {
		rows = append(rows, record.Row())
	}
	md.Table(markdown.TableSet{
		Header: model.Columns(),
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the per-URL failure table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.HarvestReport) {
	if len(report.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		rows = append(rows, []string{f.URL, f.Kind.String(), f.Reason})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Reason"},
		Rows:   rows,
	})
}
