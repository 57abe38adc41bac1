// Package bucket writes the three outcome artifacts of a scan: the matched,
// unmatched and errored URL lists, one entry per line.
package bucket
