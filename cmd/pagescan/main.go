// Package main provides the entry point for the pagescan CLI.
//
// pagescan checks a list of web pages for a piece of text. Every URL is
// probed with HEAD, fetched with GET when the probe allows it, and sorted
// into the matched, unmatched or errored bucket.
//
// Usage:
//
//	pagescan scan <file_with_urls> [search_string]
//	pagescan api [search_string]
//
// See --help for all available options.
package main

// main is the entry point for pagescan.
func main() {
	Execute()
}
