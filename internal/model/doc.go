// Package model defines the core data structures used throughout pagescan.
//
// This package contains the following main types:
//   - URLTask: One URL to scan plus its position in the input
//   - ProbeResult: What the fetch probe decided for a URL
//   - Outcome: The single classification recorded for each URLTask
//   - ScanReport: The completed scan, as rendered and stored
//   - Comparison: Differences between two stored scans
//
// The models are kept in their own package so that the probe, aggregator,
// report writers and database can share them without import cycles. They
// are serializable to JSON for report output and database storage.
package model
