package config

import (
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/techcorp/EyeSpy/internal/classifier"
	"github.com/techcorp/EyeSpy/internal/probe"
	"github.com/techcorp/EyeSpy/internal/scan"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of hosts probed at once.
	DefaultConcurrency = scan.DefaultConcurrency

	// DefaultTimeout bounds each individual probe. LAN hosts answer in
	// milliseconds, so two seconds mostly waits on hosts that are down.
	DefaultTimeout = probe.DefaultTimeout

	// DefaultRTSPPort is the well-known RTSP port.
	DefaultRTSPPort = classifier.DefaultRTSPPort

	// DefaultONVIFPort is the port the ONVIF device service is queried on.
	DefaultONVIFPort = classifier.DefaultONVIFPort

	// DefaultOutputFile is where scan results are written.
	DefaultOutputFile = "eyespy_results.json"

	// DefaultReportFile is where export writes the rendered report.
	DefaultReportFile = "eyespy_report.html"

	// DefaultReportFormat is the export format.
	DefaultReportFormat = "html"

	// AppName is the application name used for XDG directory paths.
	AppName = "eyespy"
)

// DefaultHTTPPorts returns the web ports probed for camera banners.
func DefaultHTTPPorts() []int {
	return slices.Clone(classifier.DefaultHTTPPorts)
}

// DefaultKeywords returns the banner keywords that mark a camera.
func DefaultKeywords() []string {
	return slices.Clone(classifier.DefaultKeywords)
}

// reportFormats lists the accepted export formats.
var reportFormats = []string{"html", "markdown", "md", "text", "txt", "json"}

// Config holds all configuration options for EyeSpy.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// Subnet is the IPv4 CIDR to scan.
	Subnet string

	// Concurrency is the number of workers probing hosts in parallel.
	Concurrency int

	// Timeout bounds each probe's connect and read.
	Timeout time.Duration

	// HTTPPorts are probed in order for camera banners.
	HTTPPorts []int

	// RTSPPort is the port the RTSP OPTIONS probe targets.
	RTSPPort int

	// ONVIFPort is the port GetDeviceInformation is sent to.
	ONVIFPort int

	// Keywords are matched case-insensitively against HTTP responses.
	Keywords []string

	// ONVIFEnabled turns the ONVIF device-information step on.
	ONVIFEnabled bool

	// ProxyAddress routes every probe through a SOCKS5 proxy when set.
	ProxyAddress string

	// OutputFile is the results file written by scan and read by export.
	OutputFile string

	// ReportFile is the file export renders into.
	ReportFile string

	// ReportFormat selects the export renderer.
	ReportFormat string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// DBDir is the directory holding the scan history database.
	// Defaults to the XDG data directory (~/.local/share/eyespy on Linux).
	DBDir string

	// SaveHistory records completed scans in the history database.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
		HTTPPorts:    DefaultHTTPPorts(),
		RTSPPort:     DefaultRTSPPort,
		ONVIFPort:    DefaultONVIFPort,
		Keywords:     DefaultKeywords(),
		ONVIFEnabled: true,
		OutputFile:   DefaultOutputFile,
		ReportFile:   DefaultReportFile,
		ReportFormat: DefaultReportFormat,
		DBDir:        XDGDataDir(),
		SaveHistory:  true,
	}
}

// XDGDataDir returns the XDG data directory for EyeSpy.
// On Linux: ~/.local/share/eyespy
// On macOS: ~/Library/Application Support/eyespy
// On Windows: %LOCALAPPDATA%\eyespy
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for EyeSpy.
// On Linux: ~/.config/eyespy
// On macOS: ~/Library/Application Support/eyespy
// On Windows: %APPDATA%\eyespy
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command. It returns the
// first problem found, wrapped around one of the sentinel errors.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if len(c.HTTPPorts) == 0 {
		return ErrNoHTTPPorts
	}
	for _, p := range c.HTTPPorts {
		if !validPort(p) {
			return fmt.Errorf("%w: HTTP port %d", ErrInvalidPort, p)
		}
	}
	if !validPort(c.RTSPPort) {
		return fmt.Errorf("%w: RTSP port %d", ErrInvalidPort, c.RTSPPort)
	}
	if c.ONVIFEnabled && !validPort(c.ONVIFPort) {
		return fmt.Errorf("%w: ONVIF port %d", ErrInvalidPort, c.ONVIFPort)
	}

	if !hasKeyword(c.Keywords) {
		return ErrNoKeywords
	}

	if c.ProxyAddress != "" {
		if _, err := ParseProxy(c.ProxyAddress); err != nil {
			return err
		}
	}

	if !validReportFormat(c.ReportFormat) {
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.ReportFormat)
	}

	return nil
}

// ValidateScan runs Validate and also requires a subnet.
func (c *Config) ValidateScan() error {
	if strings.TrimSpace(c.Subnet) == "" {
		return ErrNoSubnet
	}
	return c.Validate()
}

// Proxy is a parsed SOCKS5 proxy address.
type Proxy struct {
	// Address is host:port.
	Address  string
	User     string
	Password string
}

// ParseProxy parses "host:port" or "user:password@host:port".
func ParseProxy(s string) (Proxy, error) {
	var p Proxy
	hostport := s
	if i := strings.LastIndex(s, "@"); i >= 0 {
		userinfo := s[:i]
		hostport = s[i+1:]
		user, password, _ := strings.Cut(userinfo, ":")
		if user == "" {
			return Proxy{}, fmt.Errorf("%w: empty user name", ErrInvalidProxy)
		}
		p.User, p.Password = user, password
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil || host == "" || port == "" {
		// the address may carry credentials, so it is not echoed back
		return Proxy{}, fmt.Errorf("%w: expected host:port", ErrInvalidProxy)
	}
	p.Address = hostport
	return p, nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

func hasKeyword(keywords []string) bool {
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

func validReportFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range reportFormats {
		if format == f {
			return true
		}
	}
	return false
}
