package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/techcorp/EyeSpy/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Output is plain ASCII framing with no ANSI colors, so it can be piped.
type SimpleWriter struct {
	baseWriter

	// verbose adds serial numbers and the probe breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the record in human-readable format.
func (w *SimpleWriter) Write(record *model.ScanRecord) (int, error) {
	var sb strings.Builder
	rs := rows(record)

	w.writeHeader(&sb, record, rs)
	w.writeCameras(&sb, rs)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, record *model.ScanRecord, rs []row) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                   EYESPY NETWORK CAMERA REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Subnet:         %s\n", subnetLabel(record)))
	sb.WriteString(fmt.Sprintf("Scan Time:      %s\n", scanTime(record)))
	if record.HostsScanned > 0 {
		sb.WriteString(fmt.Sprintf("Hosts Scanned:  %d\n", record.HostsScanned))
	}
	if d := record.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:       %s\n", d.Round(time.Millisecond)))
	}
	sb.WriteString(fmt.Sprintf("Cameras Found:  %d\n", len(rs)))
	sb.WriteString("\n")
}

// writeCameras writes one line per verdict, with device details indented
// below when ONVIF answered.
func (w *SimpleWriter) writeCameras(sb *strings.Builder, rs []row) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CAMERAS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rs) == 0 {
		sb.WriteString("  No cameras detected\n\n")
		return
	}

	for _, r := range rs {
		sb.WriteString(fmt.Sprintf("  [+] %-15s  http=%s rtsp=%s onvif=%s\n",
			r.Address, yesNo(r.HTTP), yesNo(r.RTSP), yesNo(r.ONVIF)))
		if r.ONVIF {
			sb.WriteString(fmt.Sprintf("      %s %s (firmware %s)\n", r.Manufacturer, r.Model, r.Firmware))
			if w.verbose {
				sb.WriteString(fmt.Sprintf("      Serial: %s\n", r.Serial))
			}
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Web: %s\n", r.URL))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
