package report

import (
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/profscan/internal/model"
)

// timeRounding is the precision used when rendering elapsed durations.
const timeRounding = 100 * time.Millisecond

// SummaryWriter outputs a human-readable run summary for the terminal.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SummaryWriter struct {
	baseWriter

	// printer renders counts with thousands separators. Harvest runs
	// routinely dispatch five-digit URL counts.
	printer *message.Printer
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs the run summary in human-readable format.
func (w *SummaryWriter) Write(report *model.HarvestReport) (int, error) {
	summary := report.Summary()
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\nHARVEST SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n\n")

	if len(report.Seeds) > 0 {
		sb.WriteString("  Seeds:      " + strings.Join(report.Seeds, ", ") + "\n")
	}
	if report.Marker != "" {
		sb.WriteString("  Marker:     " + report.Marker + "\n")
	}
	sb.WriteString(w.printer.Sprintf("  Discovered: %d profile URLs\n", summary.Discovered))
	sb.WriteString(w.printer.Sprintf("  Dispatched: %d\n", summary.Dispatched))
	sb.WriteString(w.printer.Sprintf("  Succeeded:  %d\n", summary.Succeeded))
	sb.WriteString(w.printer.Sprintf("  Failed:     %d\n", summary.Failed))
	sb.WriteString("  Elapsed:    " + report.Elapsed.Round(timeRounding).String() + "\n")

	if report.Cancelled {
		sb.WriteString("\n  Run was interrupted; results above are partial.\n")
	}

	if len(summary.FailureBreakdown) > 0 {
		sb.WriteString("\n  Failures by kind:\n")
		for _, kind := range report.FailureKinds() {
			sb.WriteString(w.printer.Sprintf("    %-24s %d\n", kind, summary.FailureBreakdown[kind]))
		}
	}

	sb.WriteString("\n")
	return w.output.Write([]byte(sb.String()))
}
