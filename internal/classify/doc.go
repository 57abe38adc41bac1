// Package classify decides whether a fetched page contains the target text.
package classify
