package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/model"
)

// Default prober settings, shared with the configuration defaults.
const (
	DefaultTimeout       = config.DefaultTimeout
	DefaultUserAgent     = config.DefaultUserAgent
	DefaultMaxBodySize   = config.DefaultMaxBodySize
	DefaultRetryInterval = config.DefaultRetryInterval

	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Site holds per-host request settings.
type Site struct {
	Cookie    string
	Headers   map[string]string
	UserAgent string
}

// SiteFunc returns the request settings for a host.
type SiteFunc func(host string) Site

// Prober runs the HEAD-then-GET decision for single URLs.
// A Prober is safe for concurrent use.
type Prober struct {
	client        *http.Client
	timeout       time.Duration
	userAgent     string
	headers       map[string]string
	siteFor       SiteFunc
	maxBodySize   int64
	decodeCharset bool
	retries       uint64
	retryInterval time.Duration
	logger        *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the HTTP client. The prober works on a copy whose
// redirect policy is replaced so redirects are never followed.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(p *Prober) {
		p.headers = headers
	}
}

// WithSiteFunc sets the per-host request settings lookup.
func WithSiteFunc(fn SiteFunc) Option {
	return func(p *Prober) {
		p.siteFor = fn
	}
}

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxBodySize = n
		}
	}
}

// WithCharsetDecoding enables or disables decoding bodies to UTF-8.
func WithCharsetDecoding(enabled bool) Option {
	return func(p *Prober) {
		p.decodeCharset = enabled
	}
}

// WithRetries enables up to n extra attempts for transient failures,
// starting at interval and backing off exponentially.
func WithRetries(n int, interval time.Duration) Option {
	return func(p *Prober) {
		if n > 0 {
			p.retries = uint64(n)
		}
		if interval > 0 {
			p.retryInterval = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		timeout:       DefaultTimeout,
		userAgent:     DefaultUserAgent,
		maxBodySize:   DefaultMaxBodySize,
		decodeCharset: true,
		retryInterval: DefaultRetryInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = NewHTTPClient(nil, p.timeout)
	} else {
		c := *p.client
		c.CheckRedirect = noFollow
		c.Timeout = p.timeout
		p.client = &c
	}

	return p
}

// Probe decides and performs the fetch for one task.
// It never returns an error: every failure is a Skipped or Failed result.
func (p *Prober) Probe(ctx context.Context, task model.URLTask) model.ProbeResult {
	var (
		result  model.ProbeResult
		attempt int
	)

	op := func() error {
		attempt++
		result = p.probeOnce(ctx, task.URL)
		if result.Kind == model.ProbeFailed && result.Transient && ctx.Err() == nil {
			return result.Err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.retries), ctx)

	notify := func(err error, wait time.Duration) {
		p.logger.Debug("retrying url",
			"url", task.URL,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	_ = backoff.RetryNotify(op, policy, notify) //nolint:errcheck // the last result is returned either way
	return result
}

// probeOnce performs a single HEAD and, when the status allows it, a GET.
func (p *Prober) probeOnce(ctx context.Context, rawURL string) model.ProbeResult {
	resp, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return model.Failed(fmt.Errorf("%w: %w", ErrProbe, err), err.Error(), p.transient(ctx, err))
	}
	drain(resp.Body)

	p.logger.Debug("probe response", "url", rawURL, "status", resp.StatusCode)

	code := resp.StatusCode
	var target string
	switch {
	case code >= http.StatusInternalServerError:
		serr := &StatusError{Method: http.MethodHead, URL: rawURL, StatusCode: code}
		result := model.Failed(fmt.Errorf("%w: %w", ErrProbe, serr), strconv.Itoa(code), true)
		result.StatusCode = code
		return result
	case code == http.StatusOK:
		target = rawURL
	case code == http.StatusMovedPermanently:
		loc, err := location(resp)
		if err != nil {
			return model.Failed(fmt.Errorf("%w: %w", ErrFetch, err), err.Error(), false)
		}
		target = loc
	default:
		result := model.Skipped(code, strconv.Itoa(code))
		result.Err = fmt.Errorf("%w: %w", ErrNonFetchableStatus,
			&StatusError{Method: http.MethodHead, URL: rawURL, StatusCode: code})
		return result
	}

	return p.fetch(ctx, target)
}

// fetch GETs target and reads its body.
func (p *Prober) fetch(ctx context.Context, target string) model.ProbeResult {
	resp, err := p.do(ctx, http.MethodGet, target)
	if err != nil {
		return model.Failed(fmt.Errorf("%w: %w", ErrFetch, err), err.Error(), p.transient(ctx, err))
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	if code < 200 || code > 299 {
		serr := &StatusError{Method: http.MethodGet, URL: target, StatusCode: code}
		result := model.Failed(fmt.Errorf("%w: %w", ErrFetch, serr), strconv.Itoa(code), code >= http.StatusInternalServerError)
		result.StatusCode = code
		return result
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := readBody(resp.Body, p.maxBodySize, contentType, p.decodeCharset)
	if errors.Is(err, ErrBodyTooLarge) {
		result := model.Failed(fmt.Errorf("%w: %w", ErrFetch, err),
			fmt.Sprintf("body exceeds %d bytes", p.maxBodySize), false)
		result.StatusCode = code
		return result
	}
	if err != nil {
		return model.Failed(fmt.Errorf("%w: reading body: %w", ErrFetch, err), err.Error(), p.transient(ctx, err))
	}

	result := model.Success(target, body, code)
	result.Title = pageTitle(body, contentType)
	result.Digest = digest(body)

	p.logger.Debug("page fetched",
		"url", target,
		"status", code,
		"bytes", len(body),
	)
	return result
}

// do sends one request with the configured headers.
func (p *Prober) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", acceptHeader)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	if p.siteFor != nil {
		site := p.siteFor(req.URL.Hostname())
		if site.UserAgent != "" {
			req.Header.Set("User-Agent", site.UserAgent)
		}
		for k, v := range site.Headers {
			req.Header.Set(k, v)
		}
		if site.Cookie != "" {
			req.Header.Set("Cookie", site.Cookie)
		}
	}

	return p.client.Do(req)
}

// transient reports whether a request error may go away on retry.
// Cancellation of the scan itself is never retried.
func (p *Prober) transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// location resolves the Location header of a 301 against the request URL.
func location(resp *http.Response) (string, error) {
	if resp.Header.Get("Location") == "" {
		return "", ErrMissingLocation
	}
	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingLocation, err)
	}
	return loc.String(), nil
}
