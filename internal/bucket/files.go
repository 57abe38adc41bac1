package bucket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/nao1215/pagescan/internal/model"
)

// ErrClosed is returned when writing to closed bucket files.
var ErrClosed = errors.New("bucket files are closed")

// Names holds the file name of each bucket.
type Names struct {
	Matched   string
	Unmatched string
	Errored   string
}

// name returns the file name for kind.
func (n Names) name(kind model.OutcomeKind) string {
	switch kind {
	case model.Matched:
		return n.Matched
	case model.Unmatched:
		return n.Unmatched
	default:
		return n.Errored
	}
}

// Buckets is anything that holds entries per outcome kind.
type Buckets interface {
	Bucket(kind model.OutcomeKind) []model.Entry
}

// Files is the set of open bucket files.
// Files is safe for concurrent use.
type Files struct {
	mu     sync.Mutex
	dir    string
	names  Names
	files  map[model.OutcomeKind]*os.File
	closed bool
}

// Create truncates or creates the three bucket files in dir.
func Create(dir string, names Names) (*Files, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	b := &Files{
		dir:   dir,
		names: names,
		files: make(map[model.OutcomeKind]*os.File, len(model.OutcomeKinds)),
	}
	for _, kind := range model.OutcomeKinds {
		path := b.Path(kind)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is built from configured names
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		b.files[kind] = f
	}
	return b, nil
}

// Path returns the path of the file for kind.
func (b *Files) Path(kind model.OutcomeKind) string {
	return filepath.Join(b.dir, b.names.name(kind))
}

// Append writes one entry line to the file for kind.
func (b *Files) Append(kind model.OutcomeKind, entry model.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	_, err := io.WriteString(b.files[kind], Line(kind, entry)+"\n")
	return err
}

// Rewrite replaces the content of every file with the entries of buckets,
// in the order the entries are given.
func (b *Files) Rewrite(buckets Buckets) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	for _, kind := range model.OutcomeKinds {
		if err := rewrite(b.files[kind], kind, buckets.Bucket(kind)); err != nil {
			return fmt.Errorf("failed to rewrite %s: %w", b.Path(kind), err)
		}
	}
	return nil
}

// Close closes every file. It is safe to call more than once.
func (b *Files) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, f := range b.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Line formats an entry as it is stored in the bucket for kind.
func Line(kind model.OutcomeKind, entry model.Entry) string {
	if kind == model.Errored {
		return entry.ErroredLine()
	}
	return entry.URL
}

func rewrite(f *os.File, kind model.OutcomeKind, entries []model.Entry) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(Line(kind, e) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
