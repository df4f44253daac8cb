package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/techcorp/EyeSpy/internal/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>EyeSpy Report</title>
<style>
body { font-family: Arial, sans-serif; background: #121212; color: #e0e0e0; }
table { border-collapse: collapse; width: 100%; margin-top: 20px; }
th, td { border: 1px solid #444; padding: 8px; }
th { background: #00acc1; color: white; }
tr:nth-child(even) { background: #1e1e1e; }
a { color: #00bcd4; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
<h2>EyeSpy Network Camera Report</h2>
<p>Scan Time: {{ .ScanTime }}</p>
<p>Subnet: {{ .Subnet }} &middot; Cameras found: {{ len .Rows }}</p>
<table>
<tr><th>IP Address</th><th>Manufacturer</th><th>Model</th><th>Firmware</th><th>HTTP</th><th>RTSP</th></tr>
{{- range .Rows }}
<tr>
<td><a href="{{ .URL }}" target="_blank">{{ .Address }}</a></td>
<td>{{ .Manufacturer }}</td>
<td>{{ .Model }}</td>
<td>{{ .Firmware }}</td>
<td>{{ mark .HTTP }}</td>
<td>{{ mark .RTSP }}</td>
</tr>
{{- end }}
</table>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").
	Funcs(template.FuncMap{"mark": mark}).
	Parse(htmlTemplate))

// HTMLWriter renders a standalone HTML page.
// Values from devices are escaped by html/template.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write renders record as HTML.
func (w *HTMLWriter) Write(record *model.ScanRecord) (int, error) {
	data := struct {
		ScanTime string
		Subnet   string
		Rows     []row
	}{
		ScanTime: scanTime(record),
		Subnet:   subnetLabel(record),
		Rows:     rows(record),
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return 0, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return w.output.Write(buf.Bytes())
}
