package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/techcorp/EyeSpy/internal/model"
)

// Placeholder is shown in place of device fields that are unknown.
const Placeholder = "-"

// Output formats accepted by ForFormat.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by ForFormat for unsupported format names.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer defines the interface for report output.
type Writer interface {
	// Write renders record to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(record *model.ScanRecord) (int, error)
}

// ForFormat returns the Writer for the named format.
// "md" and "txt" are accepted as aliases.
func ForFormat(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatHTML, "":
		return NewHTMLWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatText, "txt":
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: html, markdown, text, json)", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// row is one verdict flattened for display.
type row struct {
	Address      string
	URL          string
	Manufacturer string
	Model        string
	Firmware     string
	Serial       string
	HTTP         bool
	RTSP         bool
	ONVIF        bool
}

// rows flattens the record's verdicts in address order, one row each.
// The record itself is not reordered.
func rows(record *model.ScanRecord) []row {
	verdicts := append([]model.HostVerdict(nil), record.Verdicts...)
	model.SortVerdicts(verdicts)

	out := make([]row, 0, len(verdicts))
	for _, v := range verdicts {
		r := row{
			Address:      v.Address,
			URL:          "http://" + v.Address,
			Manufacturer: Placeholder,
			Model:        Placeholder,
			Firmware:     Placeholder,
			Serial:       Placeholder,
			HTTP:         v.HTTPMatched,
			RTSP:         v.RTSPMatched,
			ONVIF:        v.DeviceInfo != nil,
		}
		if info := v.DeviceInfo; info != nil {
			r.Manufacturer = orPlaceholder(info.Manufacturer)
			r.Model = orPlaceholder(info.Model)
			r.Firmware = orPlaceholder(info.Firmware)
			r.Serial = orPlaceholder(info.Serial)
		}
		out = append(out, r)
	}
	return out
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// mark renders a boolean signal.
func mark(b bool) string {
	if b {
		return "✅"
	}
	return "❌"
}

// scanTime picks the timestamp shown in report headers.
func scanTime(record *model.ScanRecord) string {
	if record.StartedAt.IsZero() {
		return "unknown"
	}
	return record.StartedAt.Format("2006-01-02 15:04:05")
}

// subnetLabel returns the subnet or a placeholder for records that lack one.
func subnetLabel(record *model.ScanRecord) string {
	return orPlaceholder(record.Subnet)
}
