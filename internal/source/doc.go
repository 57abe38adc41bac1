// Package source loads the URL sequence a scan runs over.
//
// Two sources exist: a newline-delimited file and a remote JSON directory
// listing whose entries each carry a "web_pages" array. Both preserve input
// order and duplicates. Any failure to produce the sequence wraps
// ErrUnavailable, which aborts the scan before any URL is probed.
package source
