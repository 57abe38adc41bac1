package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when neither a URL file nor a listing URL is set.
	ErrNoSource = errors.New("no URL source specified: provide a URL file or a listing URL")

	// ErrEmptyTarget is returned when the target substring is empty.
	// An empty substring would match every page.
	ErrEmptyTarget = errors.New("target substring must not be empty")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidRetryInterval is returned when retries are enabled without a positive interval.
	ErrInvalidRetryInterval = errors.New("invalid retry interval: must be positive when retries are enabled")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrEmptyBucketFile is returned when a bucket file name is empty.
	ErrEmptyBucketFile = errors.New("bucket file names must not be empty")

	// ErrDuplicateBucketFile is returned when two buckets share a file.
	ErrDuplicateBucketFile = errors.New("bucket file names must be distinct")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)
