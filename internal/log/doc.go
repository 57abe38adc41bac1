// Package log provides secure logging built on top of the standard slog package.
//
// SecureHandler wraps any slog.Handler and masks sensitive attribute values
// before they reach the output:
//   - HTTP credentials (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Tokens detected by pattern (JWT, Bearer, Basic)
//   - URLs with embedded user:password, such as proxy settings
//
// Sensitive values are masked even in verbose mode.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, "text")
//	slog.SetDefault(logger)
//
//	logger.Debug("site settings",
//	    "host", "example.edu",
//	    "cookie", "sid=abc123", // logged as ***REDACTED***
//	)
package log
