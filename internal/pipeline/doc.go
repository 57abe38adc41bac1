// Package pipeline runs a scan: every URL goes through the probe, the
// classifier when a body was fetched, and the aggregator.
//
// A Scanner moves through three states. Run switches it from Idle to
// Running, fans the URLs out to a bounded group of goroutines and waits
// for every one of them before moving to Completed. A failing URL never
// cancels the others; it is recorded as Errored like any other outcome.
package pipeline
