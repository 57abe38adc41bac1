// Package probe implements the per-URL fetch decision.
//
// Each URL gets a HEAD request first. The status decides what happens next:
//
//	200          GET the original URL
//	301          GET the Location target (one hop, never followed further)
//	other < 500  Skipped, no GET is issued
//	>= 500       Failed
//
// Network errors on either request and non-2xx GET responses are Failed.
// Redirects are never followed automatically; the client returns the 3xx
// response as is so the decision above can see it.
//
// Failed results caused by network errors or 5xx responses are marked
// transient and may be retried with exponential backoff when retries are
// configured. The default is a single attempt.
package probe
