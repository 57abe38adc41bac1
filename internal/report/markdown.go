package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pagescan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter

	// label is the heading of the matched URL section.
	label string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, label string) *MarkdownWriter {
	if label == "" {
		label = DefaultMatchLabel
	}
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		label:      label,
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeMatched(md, report)
	w.writeErrored(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Page Scan Report")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + report.Source + "`"},
		{"Target", "`" + report.Target + "`"},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", report.Elapsed().Round(time.Millisecond).String()},
		{"Status", w.getStatusText(report)},
	}
	if report.ID > 0 {
		rows = append([][]string{{"Scan ID", strconv.FormatInt(report.ID, 10)}}, rows...)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScanReport) string {
	if !report.Consistent() {
		return "⚠️ Integrity fault"
	}
	return "✅ Complete"
}

// writeSummary writes the bucket counts, a pie chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "URLs"},
		Rows: [][]string{
			{"✅ With " + report.Target, strconv.Itoa(len(report.Matched))},
			{"❌ Without " + report.Target, strconv.Itoa(len(report.Unmatched))},
			{"⚠️ Error", strconv.Itoa(len(report.Errored))},
			{"**Total scanned**", "**" + strconv.Itoa(report.Submitted) + "**"},
		},
	})
	md.PlainText("")

	if report.Total() > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if n := len(report.Matched); n > 0 {
		chart.LabelAndIntValue("Matched", uint64(n))
	}
	if n := len(report.Unmatched); n > 0 {
		chart.LabelAndIntValue("Unmatched", uint64(n))
	}
	if n := len(report.Errored); n > 0 {
		chart.LabelAndIntValue("Errored", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the overall result.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch {
	case !report.Consistent():
		md.Cautionf("%s %d URLs submitted, %d outcomes recorded.",
			IntegrityWarning, report.Submitted, report.Total())
	case len(report.Errored) > 0:
		md.Warningf("%d of %d URLs could not be checked.", len(report.Errored), report.Submitted)
	case report.Submitted == 0:
		md.Note("No URLs were scanned.")
	default:
		md.Tip("Every URL was checked.")
	}
	md.PlainText("")
}

// writeMatched writes the matched URL listing.
func (w *MarkdownWriter) writeMatched(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("URLs with " + w.label)
	md.PlainText("")

	if len(report.Matched) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	md.BulletList(report.URLs(model.Matched)...)
	md.PlainText("")
}

// writeErrored writes a table of errored URLs and their details.
func (w *MarkdownWriter) writeErrored(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.Errored) == 0 {
		return
	}

	md.H2("Errored URLs")
	md.PlainText("")

	rows := make([][]string, len(report.Errored))
	for i, e := range report.Errored {
		rows[i] = []string{e.URL, truncateString(e.Detail, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagescan](https://github.com/nao1215/pagescan)*")
}

// truncateString shortens s to at most maxLen runes, ending in "..." when
// it was cut.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
