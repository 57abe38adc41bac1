package probe

import (
	"errors"
	"fmt"
)

// Probe errors. Every non-success ProbeResult carries one of these in Err.
var (
	// ErrProbe marks a HEAD failure: a network error or a status >= 500.
	ErrProbe = errors.New("probe failed")

	// ErrNonFetchableStatus marks a HEAD status below 500 other than 200 and 301.
	ErrNonFetchableStatus = errors.New("status is not fetched")

	// ErrFetch marks a failure of the GET that follows a 200 or 301.
	ErrFetch = errors.New("fetch failed")

	// ErrMissingLocation is returned for a 301 without a usable Location header.
	ErrMissingLocation = errors.New("301 response without Location header")

	// ErrBodyTooLarge marks a page whose body is longer than the size limit.
	// Such a page cannot be classified, so it is recorded as an error.
	ErrBodyTooLarge = errors.New("body size limit exceeded")

	// ErrUnsupportedProxy is returned for a proxy URL scheme other than
	// http, https, socks5 or socks5h.
	ErrUnsupportedProxy = errors.New("unsupported proxy scheme")
)

// StatusError records an HTTP status that ended a probe.
type StatusError struct {
	// Method is the request method that received the status.
	Method string

	// URL is the requested URL.
	URL string

	// StatusCode is the response status.
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status code %d for URL: %s", e.Method, e.StatusCode, e.URL)
}
