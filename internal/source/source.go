package source

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a source cannot be read at all.
var ErrUnavailable = errors.New("url source unavailable")

// Source produces the ordered URL sequence for a scan.
type Source interface {
	// Name describes the source for progress output and history,
	// e.g. the file path or the listing URL.
	Name() string

	// Load returns every URL in input order.
	Load(ctx context.Context) ([]string, error)
}
