package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/database"
	"github.com/nao1215/pagescan/internal/model"
	"github.com/nao1215/pagescan/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares the latest scan of a source with an earlier one.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [source]",
		Short: "Compare scan results with historical data",
		Long: `Compare shows how URLs moved between buckets from one scan of a source to
the next. The source is the URL file path or listing URL the scan was run on.

It reports:
- URLs that now contain the search string
- URLs that no longer contain it
- URLs that started failing or recovered
- URLs added to or removed from the source

The comparison requires at least two stored scans of the source.

Examples:
  # Compare the latest two scans of a file
  pagescan compare urls.txt

  # Compare the latest scan with scan 5
  pagescan compare --with-scan-id 5 urls.txt

  # Output the comparison as JSON
  pagescan compare --json urls.txt

  # List every source with stored scans
  pagescan compare --list-sources`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list-sources", "L", false,
		"List all sources with stored scans")
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific scan by ID (use 'pagescan history' to see available IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	addDBDirFlag(cmd)

	return cmd
}

// errNoSource is returned when compare has no source to work on.
var errNoSource = errors.New("source is required (use --list-sources to see available sources)")

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	listSources, err := flags.GetBool("list-sources")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var src string
	if !listSources {
		if len(args) == 0 || args[0] == "" {
			return errNoSource
		}
		src = args[0]
	}

	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	withScanID, err := flags.GetInt64("with-scan-id")
	if err != nil {
		return err
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listSources {
		return listStoredSources(ctx, db, out)
	}

	result, err := buildComparison(ctx, db, src, withScanID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(result)
		return err
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
		return nil
	}
}

// listStoredSources lists every source that has stored scans.
func listStoredSources(ctx context.Context, db *database.ScanDB, out io.Writer) error {
	sources, err := db.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No scanned sources found in the database.")
		fmt.Fprintln(out, "\nUse 'pagescan scan <file>' to run a scan.")
		return nil
	}

	fmt.Fprintf(out, "Scanned sources (%d):\n\n", len(sources))
	for _, s := range sources {
		fmt.Fprintf(out, "  • %s\n", s)
	}
	fmt.Fprintln(out, "\nUse 'pagescan compare <source>' to compare its latest two scans.")
	return nil
}

// ComparisonResult is a bucket comparison together with the compared scans.
type ComparisonResult struct {
	// Source is the scanned URL source.
	Source string `json:"source"`

	// PreviousScan and CurrentScan describe the compared scans.
	PreviousScan ScanMetadata `json:"previous_scan"`
	CurrentScan  ScanMetadata `json:"current_scan"`

	// Changes lists the URLs that moved.
	Changes *model.Comparison `json:"changes"`
}

// ScanMetadata contains the bucket sizes of a scan for comparison display.
type ScanMetadata struct {
	ID        int64     `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Matched   int       `json:"matched"`
	Unmatched int       `json:"unmatched"`
	Errored   int       `json:"errored"`
	Total     int       `json:"total"`
}

// newScanMetadata extracts the metadata of a report.
func newScanMetadata(r *model.ScanReport) ScanMetadata {
	return ScanMetadata{
		ID:        r.ID,
		StartedAt: r.StartedAt,
		Matched:   len(r.Matched),
		Unmatched: len(r.Unmatched),
		Errored:   len(r.Errored),
		Total:     r.Total(),
	}
}

// buildComparison loads the two scans to compare. The latest scan of src is
// always the current one; the previous one is withScanID when set, or the
// scan before the latest.
func buildComparison(ctx context.Context, db *database.ScanDB, src string, withScanID int64) (*ComparisonResult, error) {
	reports, err := db.LatestScans(ctx, src, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no scan history found for %s", src)
	}

	current := reports[0]
	var previous *model.ScanReport

	if withScanID > 0 {
		previous, err = db.GetScan(ctx, withScanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get scan with ID %d: %w", withScanID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("scan with ID %d not found", withScanID)
		}
		if previous.Source != src {
			return nil, fmt.Errorf("scan ID %d belongs to %s, not %s", withScanID, previous.Source, src)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("scan ID %d is the latest scan of %s", withScanID, src)
		}
	} else {
		if len(reports) < 2 {
			return nil, fmt.Errorf("%w: at least 2 scans are required for comparison (found %d)",
				database.ErrNotEnoughScans, len(reports))
		}
		previous = reports[1]
	}

	return &ComparisonResult{
		Source:       src,
		PreviousScan: newScanMetadata(previous),
		CurrentScan:  newScanMetadata(current),
		Changes:      model.CompareReports(previous, current),
	}, nil
}

// outputComparisonText writes the comparison in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Scan Comparison: %s\n", result.Source)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious scan: #%d %s\n", result.PreviousScan.ID,
		result.PreviousScan.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current scan:  #%d %s\n", result.CurrentScan.ID,
		result.CurrentScan.StartedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nBuckets:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Bucket", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	for _, row := range bucketRows(result) {
		fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", row[0], row[1], row[2], row[3])
	}

	changes := result.Changes
	if !changes.HasChanges() {
		fmt.Fprintln(out, "\nNo URL changed bucket.")
		return
	}
	writeTextSection(out, "Newly matched", "+", changes.NewlyMatched)
	writeTextSection(out, "No longer matched", "-", changes.NoLongerMatched)
	writeTextSection(out, "Newly errored", "!", changes.NewlyErrored)
	writeTextSection(out, "Recovered", "*", changes.Recovered)
	writeTextSection(out, "Added", "+", changes.Added)
	writeTextSection(out, "Removed", "-", changes.Removed)
}

// writeTextSection writes one list of URLs, or nothing when it is empty.
func writeTextSection(out io.Writer, title, mark string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  [%s] %s\n", mark, u)
	}
}

// outputComparisonMarkdown writes the comparison in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	md.H1("Scan Comparison: " + result.Source)
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	rows := [][]string{
		{"Scan", "#" + strconv.FormatInt(result.PreviousScan.ID, 10), "#" + strconv.FormatInt(result.CurrentScan.ID, 10), "-"},
		{"Date",
			result.PreviousScan.StartedAt.Local().Format("2006-01-02 15:04"),
			result.CurrentScan.StartedAt.Local().Format("2006-01-02 15:04"), "-"},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   append(rows, bucketRows(result)...),
	})
	md.PlainText("")

	changes := result.Changes
	if !changes.HasChanges() {
		md.Note("No URL changed bucket.")
		md.PlainText("")
		return md.Build()
	}

	writeMarkdownSection(md, "Newly Matched", changes.NewlyMatched)
	writeMarkdownSection(md, "No Longer Matched", changes.NoLongerMatched)
	writeMarkdownSection(md, "Newly Errored", changes.NewlyErrored)
	writeMarkdownSection(md, "Recovered", changes.Recovered)
	writeMarkdownSection(md, "Added", changes.Added)
	writeMarkdownSection(md, "Removed", changes.Removed)

	return md.Build()
}

// writeMarkdownSection writes one list of URLs, or nothing when it is empty.
func writeMarkdownSection(md *markdown.Markdown, title string, urls []string) {
	if len(urls) == 0 {
		return
	}
	md.H2(fmt.Sprintf("%s (%d)", title, len(urls)))
	md.PlainText("")
	md.BulletList(urls...)
	md.PlainText("")
}

// bucketRows returns the Matched, Unmatched, Errored and Total rows shared
// by the text and Markdown output.
func bucketRows(result *ComparisonResult) [][]string {
	p, c := result.PreviousScan, result.CurrentScan
	row := func(name string, prev, cur int) []string {
		return []string{name, strconv.Itoa(prev), strconv.Itoa(cur), formatDelta(cur - prev)}
	}
	return [][]string{
		row("Matched", p.Matched, c.Matched),
		row("Without", p.Unmatched, c.Unmatched),
		row("Errored", p.Errored, c.Errored),
		row("Total", p.Total, c.Total),
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
