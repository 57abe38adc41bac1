// Package report renders scan results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain text summary and matched URL listing
//   - MarkdownWriter: a Markdown document with tables and a pie chart
//   - JSONWriter: the ScanReport as JSON for tool integration
//
// ProgressPrinter writes the per-URL lines shown while a scan runs.
package report
