package model

// ProbeKind identifies which variant a ProbeResult holds.
type ProbeKind int

const (
	// ProbeSuccess means the page body was fetched and can be classified.
	ProbeSuccess ProbeKind = iota

	// ProbeSkipped means the probe answered with a status that is not
	// fetched (anything below 500 other than 200 and 301). No GET was issued.
	ProbeSkipped

	// ProbeFailed means the probe or the fetch failed.
	ProbeFailed
)

// String returns a human-readable representation of the probe kind.
func (k ProbeKind) String() string {
	switch k {
	case ProbeSuccess:
		return "success"
	case ProbeSkipped:
		return "skipped"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeResult is the outcome of probing one URL.
// Only a ProbeSuccess result carries a body; Skipped and Failed results go
// straight to the aggregator as Errored with Detail as the error detail.
type ProbeResult struct {
	// Kind selects the variant.
	Kind ProbeKind

	// FinalURL is the URL the body was fetched from. It differs from the
	// task URL when a 301 was followed.
	FinalURL string

	// Body is the fetched page content (Success only).
	Body string

	// StatusCode is the last HTTP status observed, or 0 when no response
	// was received.
	StatusCode int

	// Title is the HTML <title> of the fetched page, if any.
	Title string

	// Digest is the hex SHA3-256 digest of Body.
	Digest string

	// Detail is the error detail recorded for Skipped and Failed results:
	// the decimal status code for status-based failures, otherwise the
	// error message.
	Detail string

	// Err is the underlying error for Failed results.
	Err error

	// Transient marks a Failed result that may succeed on retry
	// (network errors and 5xx responses).
	Transient bool
}

// Success builds a ProbeSuccess result.
func Success(finalURL, body string, statusCode int) ProbeResult {
	return ProbeResult{
		Kind:       ProbeSuccess,
		FinalURL:   finalURL,
		Body:       body,
		StatusCode: statusCode,
	}
}

// Skipped builds a ProbeSkipped result for a status that is not fetched.
func Skipped(statusCode int, reason string) ProbeResult {
	return ProbeResult{
		Kind:       ProbeSkipped,
		StatusCode: statusCode,
		Detail:     reason,
	}
}

// Failed builds a ProbeFailed result.
func Failed(err error, detail string, transient bool) ProbeResult {
	return ProbeResult{
		Kind:      ProbeFailed,
		Detail:    detail,
		Err:       err,
		Transient: transient,
	}
}

// OK reports whether the result carries a body to classify.
func (r ProbeResult) OK() bool {
	return r.Kind == ProbeSuccess
}
