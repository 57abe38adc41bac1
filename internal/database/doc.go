// Package database provides SQLite-based scan history for pagescan.
//
// Every completed scan is stored with its counts and one row per URL
// outcome, so later runs can be listed and compared against each other.
// The database is a single file (pagescan.db) opened through the CGO-free
// modernc.org/sqlite driver in WAL mode.
package database
