package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/techcorp/EyeSpy/internal/classifier"
	"github.com/techcorp/EyeSpy/internal/config"
	"github.com/techcorp/EyeSpy/internal/database"
	"github.com/techcorp/EyeSpy/internal/model"
	"github.com/techcorp/EyeSpy/internal/onvif"
	"github.com/techcorp/EyeSpy/internal/probe"
	"github.com/techcorp/EyeSpy/internal/scan"
	"github.com/techcorp/EyeSpy/internal/store"
	"github.com/techcorp/EyeSpy/internal/subnet"
	"github.com/techcorp/EyeSpy/internal/ui"
	"golang.org/x/net/proxy"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a subnet for network cameras",
		Long: `Scan probes every host of an IPv4 subnet and records the hosts that look
like network cameras.

For each host, EyeSpy:
- requests / on the HTTP ports and looks for camera keywords in the reply
- sends an RTSP OPTIONS request to the RTSP port
- asks ONVIF devices for manufacturer, model and firmware (unless --no-onvif)

Hosts with at least one match are saved to the results file, which
'eyespy export' turns into a report. Completed scans are also recorded in
the scan history database unless --no-history is given.

Examples:
  # Scan a home network
  eyespy scan --subnet 192.168.1.0/24

  # Faster scan with more workers and a shorter timeout
  eyespy scan -s 10.0.0.0/24 -c 200 -t 500ms

  # Route every probe through a SOCKS5 proxy
  eyespy scan -s 10.0.0.0/24 --proxy 127.0.0.1:1080

  # Use a custom configuration file
  eyespy scan -s 10.0.0.0/24 --config ./eyespy.yaml`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("subnet", "s", "",
		"IPv4 subnet to scan in CIDR notation (e.g., 192.168.1.0/24)")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of hosts probed in parallel")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connect and read timeout for each probe")
	cmd.Flags().Bool("no-onvif", false,
		"Skip the ONVIF device information query")
	cmd.Flags().String("proxy", "",
		"Route probes through a SOCKS5 proxy (host:port or user:password@host:port)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Results file to write")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .eyespy.yaml in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this scan in the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildScanConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	record, err := runScan(ctx, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scan completed. %d cameras found.\n", len(record.Verdicts))
	return nil
}

// loadConfig returns the defaults overlaid with the configuration file
// named by --config, or found in the default locations.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var configPath string
	if cmd.Flags().Lookup("config") != nil {
		var err error
		configPath, err = cmd.Flags().GetString("config")
		if err != nil {
			return nil, err
		}
	}

	if _, err := config.Load(cfg, configPath); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// buildScanConfig creates a Config from the configuration file and the
// scan flags. Flags override file values only when set explicitly.
func buildScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if cfg.Subnet, err = flags.GetString("subnet"); err != nil {
		return nil, err
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-onvif") {
		noONVIF, err := flags.GetBool("no-onvif")
		if err != nil {
			return nil, err
		}
		cfg.ONVIFEnabled = !noONVIF
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}

	return cfg, nil
}

// runScan expands the subnet, classifies every host and saves the
// positive verdicts. A progress bar is drawn on out when it is a terminal.
func runScan(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*model.ScanRecord, error) {
	addresses, err := subnet.Expand(cfg.Subnet)
	if err != nil {
		return nil, err
	}
	if subnet.IsLarge(len(addresses)) {
		logger.Warn("large subnet", "subnet", cfg.Subnet, "hosts", len(addresses))
		fmt.Fprintln(out, ui.WarningStyle.Render(fmt.Sprintf(
			"Warning: %s contains %d hosts; this scan may take a long time.", cfg.Subnet, len(addresses))))
	}

	cls, err := newClassifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	coordinator, err := scan.New(cls,
		scan.WithConcurrency(cfg.Concurrency),
		scan.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	record := model.NewScanRecord(cfg.Subnet, time.Now())

	var tracker *ui.Tracker
	if ui.IsTerminal(out) {
		tracker = ui.NewTracker(out, "Scanning network...", coordinator.Progress)
		tracker.Start()
	}

	verdicts, err := coordinator.Run(ctx, addresses)
	if tracker != nil {
		tracker.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("scan of %s interrupted: %w", cfg.Subnet, err)
	}

	model.SortVerdicts(verdicts)
	record.Verdicts = verdicts
	record.HostsScanned = len(addresses)
	record.FinishedAt = time.Now()

	if err := store.Save(cfg.OutputFile, record); err != nil {
		return nil, err
	}
	logger.Info("results saved", "path", cfg.OutputFile, "cameras", len(verdicts))

	if cfg.SaveHistory {
		saveHistory(ctx, cfg.DBDir, record, logger)
	}

	return record, nil
}

// newClassifier wires the prober, the optional SOCKS5 proxy and the
// optional ONVIF client into a host classifier.
func newClassifier(cfg *config.Config, logger *slog.Logger) (*classifier.Classifier, error) {
	probeOpts := []probe.Option{probe.WithTimeout(cfg.Timeout)}
	onvifOpts := []onvif.Option{onvif.WithTimeout(cfg.Timeout)}

	if cfg.ProxyAddress != "" {
		p, err := config.ParseProxy(cfg.ProxyAddress)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		var auth *proxy.Auth
		if p.User != "" {
			auth = &proxy.Auth{User: p.User, Password: p.Password}
		}
		dialer, err := probe.NewSOCKS5Dialer(p.Address, auth)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		probeOpts = append(probeOpts, probe.WithDialer(dialer))
		onvifOpts = append(onvifOpts, onvif.WithDialer(dialer))
		logger.Debug("using SOCKS5 proxy", "proxy", cfg.ProxyAddress)
	}

	opts := []classifier.Option{
		classifier.WithHTTPPorts(cfg.HTTPPorts),
		classifier.WithKeywords(cfg.Keywords),
		classifier.WithRTSPPort(cfg.RTSPPort),
		classifier.WithLogger(logger),
	}
	if cfg.ONVIFEnabled {
		opts = append(opts, classifier.WithONVIF(onvif.NewClient(onvifOpts...), cfg.ONVIFPort))
	}

	return classifier.New(probe.New(probeOpts...), opts...), nil
}

// saveHistory records the run in the history database. Failures are
// logged and never fail the scan.
func saveHistory(ctx context.Context, dbDir string, record *model.ScanRecord, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, record)
	if err != nil {
		logger.Warn("failed to save scan history", "error", err)
		return
	}
	logger.Info("scan saved to history", "id", id, "db", db.Path())
}
