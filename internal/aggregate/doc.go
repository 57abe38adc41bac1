// Package aggregate collects one outcome per submitted URL into the
// matched, unmatched and errored buckets.
//
// The Aggregator is the only shared mutable state of a scan. Record may be
// called from any number of goroutines; Close marks the barrier after which
// the buckets are read-only. Summary.Verify checks the conservation
// invariant: the three bucket sizes add up to the number of submitted URLs.
package aggregate
