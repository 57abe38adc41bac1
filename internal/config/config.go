package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTarget is the substring searched for when none is given.
	DefaultTarget = "data-partnerurl"

	// DefaultDirectoryURL is the remote JSON listing used by the api variant.
	// Each entry contributes its "web_pages" array.
	DefaultDirectoryURL = "http://universities.hipolabs.com/search?country=United%20States"

	// DefaultTimeout bounds each HEAD and GET request.
	// The HTTP client's own default is no timeout at all.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency caps the number of URLs in flight.
	DefaultConcurrency = 20

	// DefaultRetries is the number of extra attempts for transient failures.
	// Zero keeps every URL to a single HEAD and at most one GET.
	DefaultRetries = 0

	// DefaultRetryInterval is the initial backoff interval between retries.
	DefaultRetryInterval = 500 * time.Millisecond

	// DefaultUserAgent identifies pagescan in HTTP requests.
	DefaultUserAgent = "pagescan/1.0 (+https://github.com/nao1215/pagescan)"

	// DefaultMaxBodySize limits how much of each page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMatchedFile, DefaultUnmatchedFile and DefaultErroredFile are the
	// bucket file names written into OutputDir.
	DefaultMatchedFile   = "with_text.txt"
	DefaultUnmatchedFile = "without_text.txt"
	DefaultErroredFile   = "error_url.txt"

	// DefaultMatchLabel is the heading used for the matched URL listing.
	DefaultMatchLabel = "EAB Form"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagescan"
)

// Config holds all configuration options for a scan.
// It is populated from defaults, then the config file, then CLI flags,
// and passed explicitly to the components that need it.
type Config struct {
	// Target is the substring searched for in each fetched body.
	Target string

	// IgnoreCase compares Target and body after Unicode case folding.
	// The default is a case-sensitive literal match.
	IgnoreCase bool

	// SourcePath is the newline-delimited URL file (scan command).
	SourcePath string

	// DirectoryURL is the remote JSON listing (api command).
	DirectoryURL string

	// Timeout is the per-request timeout for HEAD and GET.
	Timeout time.Duration

	// Concurrency is the maximum number of URLs processed at once.
	Concurrency int

	// Retries is the number of extra attempts for network errors and 5xx
	// responses. Statuses that are not fetched are never retried.
	Retries int

	// RetryInterval is the initial exponential backoff interval.
	RetryInterval time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra request headers sent to every host.
	Headers map[string]string

	// Proxy is an optional proxy URL (http://, https:// or socks5://).
	Proxy string

	// MaxBodySize is the maximum number of body bytes read per page.
	MaxBodySize int64

	// DecodeCharset converts bodies to UTF-8 according to Content-Type
	// before classification.
	DecodeCharset bool

	// OutputDir is where the three bucket files are written.
	OutputDir string

	// MatchedFile, UnmatchedFile and ErroredFile are the bucket file names.
	MatchedFile   string
	UnmatchedFile string
	ErroredFile   string

	// StableOrder rewrites the bucket files in input order once the scan
	// completes, so identical inputs produce identical files.
	StableOrder bool

	// MatchLabel is the heading of the matched URL listing.
	MatchLabel string

	// JSONReport writes the report as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the report as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is an optional file the report is also written to.
	ReportFile string

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string

	// Sites holds per-host request settings loaded from the config file.
	Sites *File

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/pagescan on Linux).
	DBDir string

	// SaveToDB stores each completed scan in the history database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Target:        DefaultTarget,
		DirectoryURL:  DefaultDirectoryURL,
		Timeout:       DefaultTimeout,
		Concurrency:   DefaultConcurrency,
		Retries:       DefaultRetries,
		RetryInterval: DefaultRetryInterval,
		UserAgent:     DefaultUserAgent,
		Headers:       map[string]string{},
		MaxBodySize:   DefaultMaxBodySize,
		DecodeCharset: true,
		OutputDir:     ".",
		MatchedFile:   DefaultMatchedFile,
		UnmatchedFile: DefaultUnmatchedFile,
		ErroredFile:   DefaultErroredFile,
		StableOrder:   true,
		MatchLabel:    DefaultMatchLabel,
		SaveToDB:      true,
		LogFormat:     LogFormatText,
	}
}

// Log formats accepted by LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// XDGDataDir returns the XDG data directory for pagescan.
// On Linux: ~/.local/share/pagescan
// On macOS: ~/Library/Application Support/pagescan
// On Windows: %LOCALAPPDATA%\pagescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagescan.
// FindConfigFile looks here after the current and home directories.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.SourcePath == "" && c.DirectoryURL == "" {
		return ErrNoSource
	}
	if c.Target == "" {
		return ErrEmptyTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.Retries > 0 && c.RetryInterval <= 0 {
		return ErrInvalidRetryInterval
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MatchedFile == "" || c.UnmatchedFile == "" || c.ErroredFile == "" {
		return ErrEmptyBucketFile
	}
	if c.MatchedFile == c.UnmatchedFile || c.MatchedFile == c.ErroredFile || c.UnmatchedFile == c.ErroredFile {
		return ErrDuplicateBucketFile
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}
	return nil
}
