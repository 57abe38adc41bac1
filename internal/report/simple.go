package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/model"
)

// DefaultMatchLabel is the heading of the matched URL listing.
const DefaultMatchLabel = config.DefaultMatchLabel

// IntegrityWarning is written to the warning stream when the bucket sizes
// do not add up to the number of scanned URLs.
const IntegrityWarning = "The total does not match the sum of the three categories. Please report this as a bug."

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

// SimpleWriter outputs the plain text summary:
//
//	Report generated:
//	URLs with <target>: <m>
//	URLs without <target>: <u>
//	URLs with Error: <e>
//	---------------------------------
//	Total URLs scanned: <N>
//
//	URLs with <label>:
//	✅ <url>
type SimpleWriter struct {
	baseWriter

	// warn receives the integrity warning. Defaults to the output writer.
	warn io.Writer

	// label is the heading of the matched URL listing.
	label string

	// color wraps counts and markers in ANSI colour codes.
	color bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithWarningWriter sends the integrity warning to w instead of the output.
func WithWarningWriter(w io.Writer) SimpleWriterOption {
	return func(s *SimpleWriter) {
		if w != nil {
			s.warn = w
		}
	}
}

// WithMatchLabel sets the heading of the matched URL listing.
func WithMatchLabel(label string) SimpleWriterOption {
	return func(s *SimpleWriter) {
		if label != "" {
			s.label = label
		}
	}
}

// WithColor enables ANSI colours.
func WithColor(enabled bool) SimpleWriterOption {
	return func(s *SimpleWriter) {
		s.color = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		warn:       output,
		label:      DefaultMatchLabel,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary and the matched URL listing.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder
	w.writeSummary(&sb, report)

	n, err := io.WriteString(w.output, sb.String())
	if err != nil {
		return n, err
	}

	if !report.Consistent() {
		msg := w.paint(ansiRed, IntegrityWarning) + "\n"
		if report.IntegrityError != "" {
			msg += report.IntegrityError + "\n"
		}
		if _, err := io.WriteString(w.warn, msg); err != nil {
			return n, err
		}
	}

	sb.Reset()
	w.writeMatched(&sb, report)

	m, err := io.WriteString(w.output, sb.String())
	return n + m, err
}

// writeSummary writes the bucket counts and the total.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\nReport generated:\n")
	sb.WriteString(w.paint(ansiGreen, fmt.Sprintf("URLs with %s: %d", report.Target, len(report.Matched))) + "\n")
	fmt.Fprintf(sb, "URLs without %s: %d\n", report.Target, len(report.Unmatched))

	errored := fmt.Sprintf("URLs with Error: %d", len(report.Errored))
	if len(report.Errored) > 0 {
		errored = w.paint(ansiRed, errored)
	}
	sb.WriteString(errored + "\n")

	sb.WriteString(strings.Repeat("-", 33) + "\n")
	fmt.Fprintf(sb, "Total URLs scanned: %d\n", report.Submitted)
}

// writeMatched writes the matched URL listing.
func (w *SimpleWriter) writeMatched(sb *strings.Builder, report *model.ScanReport) {
	fmt.Fprintf(sb, "\nURLs with %s:\n", w.label)
	for _, e := range report.Matched {
		fmt.Fprintf(sb, "%s %s\n", w.paint(ansiGreen, "✅"), e.URL)
	}
}

func (w *SimpleWriter) paint(code, s string) string {
	if !w.color {
		return s
	}
	return code + s + ansiReset
}
