package config

import "time"

// File represents the structure of the .pagescan configuration file.
// Zero values leave the corresponding Config field untouched; pointer
// fields distinguish "false"/"0" from "not set".
type File struct {
	Target        string        `yaml:"target,omitempty"`
	IgnoreCase    *bool         `yaml:"ignoreCase,omitempty"`
	DirectoryURL  string        `yaml:"directoryURL,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	Concurrency   int           `yaml:"concurrency,omitempty"`
	Retries       *int          `yaml:"retries,omitempty"`
	RetryInterval time.Duration `yaml:"retryInterval,omitempty"`
	UserAgent     string        `yaml:"userAgent,omitempty"`
	Proxy         string        `yaml:"proxy,omitempty"`
	MaxBodySize   int64         `yaml:"maxBodySize,omitempty"`
	DecodeCharset *bool         `yaml:"decodeCharset,omitempty"`
	OutputDir     string        `yaml:"outputDir,omitempty"`
	Files         BucketFiles   `yaml:"files,omitempty"`
	StableOrder   *bool         `yaml:"stableOrder,omitempty"`
	MatchLabel    string        `yaml:"matchLabel,omitempty"`

	// Defaults applies to every host unless a site entry overrides it.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names to their request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// BucketFiles names the three bucket files.
type BucketFiles struct {
	Matched   string `yaml:"matched,omitempty"`
	Unmatched string `yaml:"unmatched,omitempty"`
	Errored   string `yaml:"errored,omitempty"`
}

// Apply copies every value set in the file onto c.
func (f *File) Apply(c *Config) {
	if f.Target != "" {
		c.Target = f.Target
	}
	if f.IgnoreCase != nil {
		c.IgnoreCase = *f.IgnoreCase
	}
	if f.DirectoryURL != "" {
		c.DirectoryURL = f.DirectoryURL
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.Retries != nil {
		c.Retries = *f.Retries
	}
	if f.RetryInterval != 0 {
		c.RetryInterval = f.RetryInterval
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.DecodeCharset != nil {
		c.DecodeCharset = *f.DecodeCharset
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.Files.Matched != "" {
		c.MatchedFile = f.Files.Matched
	}
	if f.Files.Unmatched != "" {
		c.UnmatchedFile = f.Files.Unmatched
	}
	if f.Files.Errored != "" {
		c.ErroredFile = f.Files.Errored
	}
	if f.StableOrder != nil {
		c.StableOrder = *f.StableOrder
	}
	if f.MatchLabel != "" {
		c.MatchLabel = f.MatchLabel
	}
	c.Sites = f
}
