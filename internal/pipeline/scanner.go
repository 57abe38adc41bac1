package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/pagescan/internal/aggregate"
	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs processed at once when no
// concurrency is configured.
const DefaultConcurrency = config.DefaultConcurrency

// ErrAlreadyRun is returned by Run on a Scanner that has left Idle.
var ErrAlreadyRun = errors.New("scanner has already run")

// State is the lifecycle state of a Scanner.
type State int32

const (
	// StateIdle is the state before Run.
	StateIdle State = iota

	// StateRunning means tasks are being processed.
	StateRunning

	// StateCompleted means every task has recorded its outcome.
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Prober decides and performs the fetch for one URL.
type Prober interface {
	Probe(ctx context.Context, task model.URLTask) model.ProbeResult
}

// Classifier turns a fetched body into Matched or Unmatched.
type Classifier interface {
	Classify(body string) model.OutcomeKind
}

// Progress describes one recorded outcome.
type Progress struct {
	// Done is the 1-based number of outcomes recorded so far.
	Done int

	// Total is the number of submitted URLs.
	Total int

	// Outcome is the outcome just recorded.
	Outcome model.Outcome
}

// ProgressFunc is called once per recorded outcome. Calls never overlap.
type ProgressFunc func(Progress)

// Scanner runs one scan.
type Scanner struct {
	prober      Prober
	classifier  Classifier
	concurrency int
	logger      *slog.Logger
	sink        aggregate.Sink
	progress    ProgressFunc

	state atomic.Int32

	// mu serializes recording with the progress callback so progress
	// lines come out in Done order.
	mu sync.Mutex
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency sets the maximum number of URLs in flight.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSink streams every recorded outcome to sink.
func WithSink(sink aggregate.Sink) Option {
	return func(s *Scanner) {
		s.sink = sink
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// NewScanner creates an Idle Scanner.
func NewScanner(prober Prober, classifier Classifier, opts ...Option) *Scanner {
	s := &Scanner{
		prober:      prober,
		classifier:  classifier,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scanner) State() State {
	return State(s.state.Load())
}

// Result is what a completed scan produced.
type Result struct {
	// Summary holds the three buckets in input order.
	Summary aggregate.Summary

	// Integrity is the *aggregate.IntegrityError of the scan, or nil.
	Integrity error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Report builds the ScanReport for the result.
func (r *Result) Report(source, target string) *model.ScanReport {
	report := &model.ScanReport{
		Source:     source,
		Target:     target,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Submitted:  r.Summary.Submitted,
		Matched:    r.Summary.Matched,
		Unmatched:  r.Summary.Unmatched,
		Errored:    r.Summary.Errored,
	}
	if r.Integrity != nil {
		report.IntegrityError = r.Integrity.Error()
	}
	return report
}

// Run scans urls and returns once every URL has an outcome.
//
// Cancelling ctx does not abort the scan: URLs not yet fetched are recorded
// as Errored with the context error, so the buckets still add up. Run only
// returns an error when the Scanner is not Idle.
func (s *Scanner) Run(ctx context.Context, urls []string) (*Result, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrAlreadyRun
	}

	tasks := model.NewTasks(urls)
	agg := aggregate.New(len(tasks), aggregate.WithSink(s.sink))

	s.logger.Info("starting scan",
		"urls", len(tasks),
		"concurrency", s.concurrency,
	)
	startedAt := time.Now()

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, task := range tasks {
		g.Go(func() error {
			s.record(agg, len(tasks), s.process(ctx, task))
			// Per-URL failures are outcomes, never group errors.
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // task functions always return nil

	summary := agg.Close()
	s.state.Store(int32(StateCompleted))

	result := &Result{
		Summary:    summary,
		Integrity:  summary.Verify(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}

	if result.Integrity != nil {
		s.logger.Error("integrity fault",
			"submitted", summary.Submitted,
			"recorded", summary.Total(),
			"error", result.Integrity,
		)
	}
	if summary.SinkErr != nil {
		s.logger.Warn("failed to write some bucket entries", "error", summary.SinkErr)
	}

	s.logger.Info("scan complete",
		"matched", len(summary.Matched),
		"unmatched", len(summary.Unmatched),
		"errored", len(summary.Errored),
		"elapsed", result.FinishedAt.Sub(startedAt),
	)

	return result, nil
}

// process produces the outcome of one task.
func (s *Scanner) process(ctx context.Context, task model.URLTask) model.Outcome {
	if err := ctx.Err(); err != nil {
		return model.NewOutcome(task, model.Failed(err, err.Error(), false), model.Errored)
	}

	result := s.prober.Probe(ctx, task)
	if !result.OK() {
		s.logger.Debug("url errored",
			"url", task.URL,
			"kind", result.Kind.String(),
			"detail", result.Detail,
			"error", result.Err,
		)
		return model.NewOutcome(task, result, model.Errored)
	}

	return model.NewOutcome(task, result, s.classifier.Classify(result.Body))
}

// record stores an outcome and reports progress.
func (s *Scanner) record(agg *aggregate.Aggregator, total int, o model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done, err := agg.Record(o)
	switch {
	case errors.Is(err, aggregate.ErrSink):
		s.logger.Warn("failed to write outcome to bucket file",
			"url", o.Task.URL,
			"kind", o.Kind.String(),
			"error", err,
		)
	case err != nil:
		s.logger.Error("failed to record outcome",
			"url", o.Task.URL,
			"ordinal", o.Task.Ordinal,
			"error", err,
		)
	}

	if s.progress != nil {
		s.progress(Progress{Done: done, Total: total, Outcome: o})
	}
}
