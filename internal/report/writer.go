package report

import (
	"errors"
	"io"

	"github.com/nao1215/pagescan/internal/model"
)

// Writer renders a ScanReport somewhere.
type Writer interface {
	// Write renders the report and returns the number of bytes written.
	Write(report *model.ScanReport) (int, error)
}

// MultiWriter renders one report through several Writers, e.g. the
// console summary and the -o report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a MultiWriter.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write calls every Writer even when an earlier one fails, so a broken
// report file never hides the console summary. The errors are joined.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// baseWriter holds the destination shared by every writer.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
