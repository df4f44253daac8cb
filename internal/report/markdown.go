package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/techcorp/EyeSpy/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the record in Markdown format.
func (w *MarkdownWriter) Write(record *model.ScanRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	rs := rows(record)

	w.writeHeader(md, record, rs)
	w.writeSignals(md, rs)
	w.writeCameras(md, rs)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, record *model.ScanRecord, rs []row) {
	md.H1("EyeSpy Network Camera Report")
	md.PlainText("")

	hosts := Placeholder
	if record.HostsScanned > 0 {
		hosts = strconv.Itoa(record.HostsScanned)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Subnet", "`" + subnetLabel(record) + "`"},
			{"Scan Time", scanTime(record)},
			{"Hosts Scanned", hosts},
			{"Cameras Found", strconv.Itoa(len(rs))},
		},
	})
	md.PlainText("")

	if len(rs) == 0 {
		md.Tip("No camera candidates were found on this subnet.")
	} else {
		md.Warningf("%d possible camera(s) found. Check that each one is expected and not exposed.", len(rs))
	}
	md.PlainText("")
}

// writeSignals writes a mermaid pie chart of which probes matched.
func (w *MarkdownWriter) writeSignals(md *markdown.Markdown, rs []row) {
	var httpCount, rtspCount, onvifCount uint64
	for _, r := range rs {
		if r.HTTP {
			httpCount++
		}
		if r.RTSP {
			rtspCount++
		}
		if r.ONVIF {
			onvifCount++
		}
	}
	if httpCount+rtspCount+onvifCount == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Matched Signals"),
		piechart.WithShowData(true),
	)
	if httpCount > 0 {
		chart.LabelAndIntValue("HTTP", httpCount)
	}
	if rtspCount > 0 {
		chart.LabelAndIntValue("RTSP", rtspCount)
	}
	if onvifCount > 0 {
		chart.LabelAndIntValue("ONVIF", onvifCount)
	}

	md.H2("Signals")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeCameras writes one table row per verdict.
func (w *MarkdownWriter) writeCameras(md *markdown.Markdown, rs []row) {
	md.H2("Cameras")
	md.PlainText("")

	if len(rs) == 0 {
		md.PlainText("No cameras detected.")
		md.PlainText("")
		return
	}

	table := make([][]string, len(rs))
	for i, r := range rs {
		table[i] = []string{
			"[" + r.Address + "](" + r.URL + ")",
			escapeCell(r.Manufacturer),
			escapeCell(r.Model),
			escapeCell(r.Firmware),
			mark(r.HTTP),
			mark(r.RTSP),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"IP Address", "Manufacturer", "Model", "Firmware", "HTTP", "RTSP"},
		Rows:   table,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by EyeSpy*")
}

// escapeCell keeps device-supplied strings from breaking the table layout.
func escapeCell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '|':
			out = append(out, '\\', '|')
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return truncateString(string(out), 60)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
