package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/pagescan/internal/model"
)

// ProgressPrinter writes one line per finished URL while a scan runs.
// Matched and unmatched URLs go to out, errored URLs to errOut.
type ProgressPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewProgressPrinter creates a ProgressPrinter.
func NewProgressPrinter(out, errOut io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: out, errOut: errOut}
}

// Start writes the scan header.
func (p *ProgressPrinter) Start(target, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Scanning for: %s in %s\n", target, source)
}

// Record writes the line for the done-th outcome of total.
func (p *ProgressPrinter) Record(done, total int, o model.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch o.Kind {
	case model.Matched:
		fmt.Fprintf(p.out, "Finished: %d of %d: ✅ : %s\n", done, total, o.Task.URL)
	case model.Unmatched:
		fmt.Fprintf(p.out, "Finished: %d of %d: ❌ : %s\n", done, total, o.Task.URL)
	default:
		fmt.Fprintf(p.errOut, "Error: %d of %d: %s\n", done, total, o.Task.URL)
	}
}

// Finish writes the line printed once every URL has an outcome.
func (p *ProgressPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "All URLs have been processed.")
}
