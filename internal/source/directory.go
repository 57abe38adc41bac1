package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// DirectoryEntry is one record of the remote listing. Only the page URLs
// are used; other fields of the record are ignored.
type DirectoryEntry struct {
	Name     string   `json:"name"`
	WebPages []string `json:"web_pages"`
}

// DirectorySource fetches a JSON array of DirectoryEntry records and
// flattens their web_pages arrays into one sequence.
type DirectorySource struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// DirectoryOption configures a DirectorySource.
type DirectoryOption func(*DirectorySource)

// WithHTTPClient sets the client used to fetch the listing.
func WithHTTPClient(client *http.Client) DirectoryOption {
	return func(s *DirectorySource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DirectoryOption {
	return func(s *DirectorySource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDirectorySource creates a DirectorySource for the listing at url.
func NewDirectorySource(url string, opts ...DirectoryOption) *DirectorySource {
	s := &DirectorySource{
		url:    url,
		client: http.DefaultClient,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the listing URL.
func (s *DirectorySource) Name() string {
	return s.url
}

// Load fetches and flattens the listing.
func (s *DirectorySource) Load(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: listing returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var entries []DirectoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding listing: %w", ErrUnavailable, err)
	}

	urls := Flatten(entries)
	s.logger.Debug("directory listing loaded",
		"url", s.url,
		"entries", len(entries),
		"urls", len(urls),
	)
	return urls, nil
}

// Flatten concatenates the web_pages of every entry in order, skipping
// empty strings.
func Flatten(entries []DirectoryEntry) []string {
	var urls []string
	for _, e := range entries {
		for _, page := range e.WebPages {
			if page == "" {
				continue
			}
			urls = append(urls, page)
		}
	}
	return urls
}
