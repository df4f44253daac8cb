package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/techcorp/EyeSpy/internal/model"
)

// JSONWriter outputs the record in the same envelope the results file uses,
// so its output can be fed back to 'eyespy export --input'.
type JSONWriter struct {
	baseWriter
	pretty bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces per level.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the record followed by a newline. Verdict order is kept
// as stored; callers sort before saving.
func (w *JSONWriter) Write(record *model.ScanRecord) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// keep "<" and "&" readable in banners and URLs
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(record); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
