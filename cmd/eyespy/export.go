package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/techcorp/EyeSpy/internal/config"
	"github.com/techcorp/EyeSpy/internal/report"
	"github.com/techcorp/EyeSpy/internal/store"
)

// stdoutPath makes export write to standard output.
const stdoutPath = "-"

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a report from saved scan results",
		Long: `Export reads the results file written by 'eyespy scan' and renders it as
an HTML, Markdown, plain text or JSON report.

The report lists one row per camera with its IP address, the ONVIF
manufacturer, model and firmware when known ("-" otherwise), and whether
the HTTP and RTSP probes matched.

Examples:
  # HTML report (eyespy_report.html)
  eyespy export

  # Markdown report from a specific results file
  eyespy export -i office.json -f markdown -o office.md

  # Plain text summary on standard output
  eyespy export -f text -o -`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("input", "i", config.DefaultOutputFile,
		"Results file to read")
	cmd.Flags().StringP("output", "o", config.DefaultReportFile,
		"Report file to write (\"-\" for standard output)")
	cmd.Flags().StringP("format", "f", config.DefaultReportFormat,
		"Report format: html, markdown, text or json")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .eyespy.yaml in current or home directory)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	flags := cmd.Flags()
	if flags.Changed("input") {
		if cfg.OutputFile, err = flags.GetString("input"); err != nil {
			return err
		}
	}
	if flags.Changed("format") {
		if cfg.ReportFormat, err = flags.GetString("format"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	} else if cfg.ReportFile == config.DefaultReportFile {
		cfg.ReportFile = defaultReportPath(cfg.ReportFormat)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := exportReport(cfg.OutputFile, cfg.ReportFile, cfg.ReportFormat, cmd.OutOrStdout()); err != nil {
		return err
	}
	if cfg.ReportFile != stdoutPath {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Report saved as %s\n", cfg.ReportFile)
	}
	return nil
}

// exportReport renders the results in input to output. An output of "-"
// writes to stdout.
func exportReport(input, output, format string, stdout io.Writer) error {
	record, err := store.Load(input)
	if err != nil {
		return err
	}

	if output == stdoutPath {
		w, err := report.ForFormat(format, stdout)
		if err != nil {
			return err
		}
		_, err = w.Write(record)
		return err
	}

	dir := filepath.Dir(output)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list devices on a private network and stay owner-readable.
	f, err := os.OpenFile(filepath.Clean(output), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	w, err := report.ForFormat(format, f)
	if err != nil {
		_ = f.Close() //nolint:errcheck // the format error is reported
		return err
	}
	if _, err := w.Write(record); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// defaultReportPath returns eyespy_report with the extension of format.
func defaultReportPath(format string) string {
	base := strings.TrimSuffix(config.DefaultReportFile, filepath.Ext(config.DefaultReportFile))
	switch strings.ToLower(format) {
	case report.FormatMarkdown, "md":
		return base + ".md"
	case report.FormatText, "txt":
		return base + ".txt"
	case report.FormatJSON:
		return base + ".json"
	default:
		return config.DefaultReportFile
	}
}
