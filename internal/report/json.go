package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/pagescan/internal/model"
)

// JSONWriter renders reports and other values as JSON, one document per
// call, terminated by a newline.
//
// HTML escaping is off: scanned URLs often carry query strings and "&"
// must stay readable.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values like json.MarshalIndent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the report.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.WriteValue(report)
}

// WriteValue renders any value with the writer's settings. The history and
// compare commands use it for listings and comparisons.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
