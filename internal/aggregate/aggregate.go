package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nao1215/pagescan/internal/model"
)

var (
	// ErrDuplicate is returned when a task ordinal is recorded twice.
	ErrDuplicate = errors.New("outcome already recorded for task")

	// ErrUnknownTask is returned for an ordinal outside the submitted range.
	ErrUnknownTask = errors.New("outcome for unknown task")

	// ErrClosed is returned when recording after Close.
	ErrClosed = errors.New("aggregator is closed")

	// ErrSink is returned when the sink fails. The outcome itself was
	// accepted.
	ErrSink = errors.New("sink write failed")
)

// Sink receives every accepted outcome as it is recorded.
// Append is called with the aggregator lock held, so implementations see
// calls one at a time.
type Sink interface {
	Append(kind model.OutcomeKind, entry model.Entry) error
}

// Aggregator is the AggregateState of one scan.
type Aggregator struct {
	mu         sync.Mutex
	submitted  int
	buckets    map[model.OutcomeKind][]model.Entry
	seen       map[int]struct{}
	duplicates int
	unknown    int
	late       int
	closed     bool
	sink       Sink
	sinkErrs   []error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSink streams accepted outcomes to s.
func WithSink(s Sink) Option {
	return func(a *Aggregator) {
		a.sink = s
	}
}

// New creates an empty Aggregator expecting submitted outcomes.
func New(submitted int, opts ...Option) *Aggregator {
	a := &Aggregator{
		submitted: submitted,
		buckets:   make(map[model.OutcomeKind][]model.Entry, len(model.OutcomeKinds)),
		seen:      make(map[int]struct{}, submitted),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record appends the outcome to its bucket and returns how many outcomes
// have been accepted so far.
//
// A second outcome for the same ordinal, an ordinal outside the submitted
// range, or any outcome after Close is rejected and counted; those counts
// make Summary.Verify fail. A sink error does not reject the outcome.
func (a *Aggregator) Record(o model.Outcome) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ordinal := o.Task.Ordinal
	switch {
	case a.closed:
		a.late++
		return len(a.seen), fmt.Errorf("%w: task %d", ErrClosed, ordinal)
	case ordinal < 0 || ordinal >= a.submitted:
		a.unknown++
		return len(a.seen), fmt.Errorf("%w: task %d of %d", ErrUnknownTask, ordinal, a.submitted)
	}
	if _, ok := a.seen[ordinal]; ok {
		a.duplicates++
		return len(a.seen), fmt.Errorf("%w: task %d", ErrDuplicate, ordinal)
	}
	a.seen[ordinal] = struct{}{}

	entry := o.Entry()
	a.buckets[o.Kind] = append(a.buckets[o.Kind], entry)

	if a.sink != nil {
		if err := a.sink.Append(o.Kind, entry); err != nil {
			err = fmt.Errorf("%w: %s entry for %s: %w", ErrSink, o.Kind, entry.URL, err)
			a.sinkErrs = append(a.sinkErrs, err)
			return len(a.seen), err
		}
	}
	return len(a.seen), nil
}

// Recorded returns how many outcomes have been accepted.
func (a *Aggregator) Recorded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}

// Close ends recording and returns the final buckets ordered by ordinal.
// Calling Close again returns the same summary.
func (a *Aggregator) Close() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true

	s := Summary{
		Submitted:  a.submitted,
		Matched:    sortedCopy(a.buckets[model.Matched]),
		Unmatched:  sortedCopy(a.buckets[model.Unmatched]),
		Errored:    sortedCopy(a.buckets[model.Errored]),
		Duplicates: a.duplicates,
		Unknown:    a.unknown,
		Late:       a.late,
		SinkErr:    errors.Join(a.sinkErrs...),
	}
	return s
}

func sortedCopy(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}
