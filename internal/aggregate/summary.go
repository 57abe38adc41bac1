package aggregate

import (
	"errors"
	"fmt"

	"github.com/nao1215/pagescan/internal/model"
)

// ErrIntegrityFault is wrapped by every IntegrityError.
var ErrIntegrityFault = errors.New("integrity fault")

// Summary is the read-only state of the buckets after Close.
type Summary struct {
	// Submitted is the number of tasks the scan was started with.
	Submitted int

	// Matched, Unmatched and Errored are ordered by task ordinal.
	Matched   []model.Entry
	Unmatched []model.Entry
	Errored   []model.Entry

	// Duplicates, Unknown and Late count rejected records.
	Duplicates int
	Unknown    int
	Late       int

	// SinkErr joins every error returned by the sink.
	SinkErr error
}

// Total returns the sum of the three bucket sizes.
func (s Summary) Total() int {
	return len(s.Matched) + len(s.Unmatched) + len(s.Errored)
}

// Bucket returns the entries of one kind.
func (s Summary) Bucket(kind model.OutcomeKind) []model.Entry {
	switch kind {
	case model.Matched:
		return s.Matched
	case model.Unmatched:
		return s.Unmatched
	case model.Errored:
		return s.Errored
	default:
		return nil
	}
}

// Verify checks that every submitted task produced exactly one outcome.
// It returns an *IntegrityError otherwise.
func (s Summary) Verify() error {
	if s.Total() == s.Submitted && s.Duplicates == 0 && s.Unknown == 0 && s.Late == 0 {
		return nil
	}
	return &IntegrityError{
		Submitted:  s.Submitted,
		Recorded:   s.Total(),
		Duplicates: s.Duplicates,
		Unknown:    s.Unknown,
		Late:       s.Late,
	}
}

// IntegrityError reports a bucket-sum mismatch or rejected records.
// It indicates a defect in the scan, not a failure of any URL.
type IntegrityError struct {
	Submitted  int
	Recorded   int
	Duplicates int
	Unknown    int
	Late       int
}

// Error implements error.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %d outcomes recorded for %d submitted URLs (duplicates: %d, unknown: %d, late: %d)",
		ErrIntegrityFault, e.Recorded, e.Submitted, e.Duplicates, e.Unknown, e.Late)
}

// Unwrap returns ErrIntegrityFault.
func (e *IntegrityError) Unwrap() error {
	return ErrIntegrityFault
}
