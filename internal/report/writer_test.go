package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/techcorp/EyeSpy/internal/model"
)

// createTestRecord creates a record with one fully identified camera and
// two cameras without device information.
func createTestRecord() *model.ScanRecord {
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	record := model.NewScanRecord("192.168.1.0/24", started)
	record.FinishedAt = started.Add(30 * time.Second)
	record.HostsScanned = 254
	record.Verdicts = []model.HostVerdict{
		{Address: "192.168.1.108", RTSPMatched: true},
		{
			Address:     "192.168.1.64",
			HTTPMatched: true,
			RTSPMatched: true,
			DeviceInfo: &model.DeviceInfo{
				Manufacturer: "HIKVISION",
				Model:        "DS-2CD2042WD-I",
				Firmware:     "V5.4.5",
				Serial:       "SN123",
			},
		},
		{Address: "192.168.1.9", HTTPMatched: true},
	}
	return record
}

// TestHTMLWriter tests the HTML report writer.
func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	t.Run("one row per verdict with placeholders", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewHTMLWriter(&buf).Write(createTestRecord())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		if !strings.Contains(output, "EyeSpy Network Camera Report") {
			t.Error("expected report title")
		}
		if got := strings.Count(output, "<tr>\n<td>"); got != 3 {
			t.Errorf("expected 3 data rows, got %d", got)
		}
		// Two verdicts without device info, three placeholder cells each.
		if got := strings.Count(output, "<td>-</td>"); got != 6 {
			t.Errorf("expected 6 placeholder cells, got %d", got)
		}
		for _, want := range []string{
			`<a href="http://192.168.1.64" target="_blank">192.168.1.64</a>`,
			"<td>HIKVISION</td>",
			"<td>DS-2CD2042WD-I</td>",
			"<td>V5.4.5</td>",
			"Scan Time: 2025-03-01 10:00:00",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output", want)
			}
		}
		if !strings.Contains(output, "✅") || !strings.Contains(output, "❌") {
			t.Error("expected check and cross marks")
		}
	})

	t.Run("rows are in address order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		i9 := strings.Index(output, ">192.168.1.9<")
		i64 := strings.Index(output, ">192.168.1.64<")
		i108 := strings.Index(output, ">192.168.1.108<")
		if i9 >= i64 || i64 >= i108 {
			t.Errorf("rows not in numeric address order: %d %d %d", i9, i64, i108)
		}
	})

	t.Run("device strings are escaped", func(t *testing.T) {
		t.Parallel()

		record := model.NewScanRecord("10.0.0.0/30", time.Now())
		record.Verdicts = []model.HostVerdict{{
			Address:    "10.0.0.1",
			DeviceInfo: &model.DeviceInfo{Manufacturer: "<script>alert(1)</script>"},
		}}

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "<script>") {
			t.Error("expected device-supplied markup to be escaped")
		}
	})

	t.Run("does not reorder the record", func(t *testing.T) {
		t.Parallel()

		record := createTestRecord()
		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Verdicts[0].Address != "192.168.1.108" {
			t.Errorf("record verdicts were reordered: %s first", record.Verdicts[0].Address)
		}
	})

	t.Run("legacy record without timing", func(t *testing.T) {
		t.Parallel()

		record := &model.ScanRecord{Verdicts: []model.HostVerdict{{Address: "10.0.0.1", HTTPMatched: true}}}
		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Scan Time: unknown") {
			t.Error("expected unknown scan time")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes camera table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# EyeSpy Network Camera Report",
			"## Cameras",
			"[192.168.1.64](http://192.168.1.64)",
			"[192.168.1.108](http://192.168.1.108)",
			"[192.168.1.9](http://192.168.1.9)",
			"HIKVISION",
			"```mermaid",
			"192.168.1.0/24",
			"[!WARNING]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("empty record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		record := model.NewScanRecord("10.0.0.0/30", time.Now())
		if _, err := NewMarkdownWriter(&buf).Write(record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No cameras detected.") {
			t.Error("expected empty-state text")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart without cameras")
		}
	})
}

// TestSimpleWriter tests the plain text report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and cameras", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"EYESPY NETWORK CAMERA REPORT",
			"Subnet:         192.168.1.0/24",
			"Hosts Scanned:  254",
			"Cameras Found:  3",
			"HIKVISION DS-2CD2042WD-I (firmware V5.4.5)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		if got := strings.Count(output, "[+]"); got != 3 {
			t.Errorf("expected 3 camera lines, got %d", got)
		}
		if strings.Contains(output, "Serial:") {
			t.Error("expected serial only in verbose mode")
		}
	})

	t.Run("verbose adds serial", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Serial: SN123") {
			t.Error("expected serial in verbose output")
		}
	})

	t.Run("no cameras", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(model.NewScanRecord("10.0.0.0/30", time.Now())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No cameras detected") {
			t.Error("expected empty-state text")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output is valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.ScanRecord
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Verdicts) != 3 {
			t.Errorf("expected 3 verdicts, got %d", len(decoded.Verdicts))
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact single-line output")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"subnet\"") {
			t.Error("expected indented output")
		}
	})
}

// TestForFormat tests writer selection by name.
func TestForFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{format: "html", want: "*report.HTMLWriter"},
		{format: "", want: "*report.HTMLWriter"},
		{format: "Markdown", want: "*report.MarkdownWriter"},
		{format: "md", want: "*report.MarkdownWriter"},
		{format: "text", want: "*report.SimpleWriter"},
		{format: "txt", want: "*report.SimpleWriter"},
		{format: "json", want: "*report.JSONWriter"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			w, err := ForFormat(tt.format, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		if _, err := ForFormat("pdf", &bytes.Buffer{}); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

func typeName(w Writer) string {
	switch w.(type) {
	case *HTMLWriter:
		return "*report.HTMLWriter"
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	case *SimpleWriter:
		return "*report.SimpleWriter"
	case *JSONWriter:
		return "*report.JSONWriter"
	default:
		return "unknown"
	}
}
