package classifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techcorp/EyeSpy/internal/model"
	"github.com/techcorp/EyeSpy/internal/probe"
)

// DefaultHTTPPorts are the web ports probed for camera banners, in order.
var DefaultHTTPPorts = []int{80, 8000, 8080}

// DefaultKeywords are the case-insensitive substrings that mark an HTTP
// response as camera-like.
var DefaultKeywords = []string{
	"camera", "onvif", "dvr", "nvr", "hikvision",
	"dahua", "axis", "video", "surveillance", "ipcam",
}

const (
	// DefaultRTSPPort is the port the RTSP probe targets.
	DefaultRTSPPort = probe.DefaultRTSPPort

	// DefaultONVIFPort is the port the ONVIF device service is queried on.
	DefaultONVIFPort = 80

	// rtspToken marks a response as spoken by an RTSP server.
	rtspToken = "rtsp"
)

// Prober is the subset of probe.Prober the classifier uses.
type Prober interface {
	HTTP(ctx context.Context, address string, port int) probe.Result
	RTSP(ctx context.Context, address string, port int) probe.Result
}

// DeviceInfoQuerier retrieves ONVIF device information.
// onvif.Client satisfies it.
type DeviceInfoQuerier interface {
	DeviceInformation(ctx context.Context, address string, port int) (*model.DeviceInfo, error)
}

// Classifier runs the per-host probe sequence.
// A Classifier is read-only after New and safe for concurrent use.
type Classifier struct {
	prober    Prober
	querier   DeviceInfoQuerier
	httpPorts []int
	keywords  []string
	rtspPort  int
	onvifPort int
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHTTPPorts sets the HTTP ports probed, in order.
func WithHTTPPorts(ports []int) Option {
	return func(c *Classifier) {
		if len(ports) > 0 {
			c.httpPorts = append([]int(nil), ports...)
		}
	}
}

// WithKeywords sets the HTTP banner keywords.
func WithKeywords(keywords []string) Option {
	return func(c *Classifier) {
		if len(keywords) > 0 {
			c.keywords = lowerAll(keywords)
		}
	}
}

// WithRTSPPort sets the RTSP port.
func WithRTSPPort(port int) Option {
	return func(c *Classifier) {
		if port > 0 {
			c.rtspPort = port
		}
	}
}

// WithONVIF enables the ONVIF step. Passing a nil querier leaves it
// disabled.
func WithONVIF(querier DeviceInfoQuerier, port int) Option {
	return func(c *Classifier) {
		c.querier = querier
		if port > 0 {
			c.onvifPort = port
		}
	}
}

// WithLogger sets the logger used for probe fault diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// New creates a Classifier using prober for the HTTP and RTSP steps.
// The ONVIF step is disabled unless WithONVIF supplies a querier.
func New(prober Prober, opts ...Option) *Classifier {
	c := &Classifier{
		prober:    prober,
		httpPorts: DefaultHTTPPorts,
		keywords:  lowerAll(DefaultKeywords),
		rtspPort:  DefaultRTSPPort,
		onvifPort: DefaultONVIFPort,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// ONVIFEnabled reports whether the ONVIF step runs.
func (c *Classifier) ONVIFEnabled() bool {
	return c.querier != nil
}

// Classify probes address and returns its verdict. The verdict is
// produced whether or not any signal matched. If ctx is cancelled the
// remaining steps are skipped.
func (c *Classifier) Classify(ctx context.Context, address string) model.HostVerdict {
	verdict := model.NewHostVerdict(address)

	verdict.HTTPMatched = c.matchHTTP(ctx, address)
	if ctx.Err() != nil {
		return verdict
	}

	verdict.RTSPMatched = c.matchRTSP(ctx, address)
	if ctx.Err() != nil {
		return verdict
	}

	if c.querier != nil {
		verdict.DeviceInfo = c.queryDeviceInfo(ctx, address)
	}

	return verdict
}

// matchHTTP probes each HTTP port in order and stops at the first response
// containing a keyword.
func (c *Classifier) matchHTTP(ctx context.Context, address string) bool {
	for _, port := range c.httpPorts {
		if ctx.Err() != nil {
			return false
		}
		res := c.prober.HTTP(ctx, address, port)
		if !res.Present() {
			c.logger.Debug("http probe failed", "address", address, "port", port, "fault", res.Fault)
			continue
		}
		if keyword, ok := containsAny(res.Text, c.keywords); ok {
			c.logger.Debug("http banner matched", "address", address, "port", port, "keyword", keyword)
			return true
		}
	}
	return false
}

func (c *Classifier) matchRTSP(ctx context.Context, address string) bool {
	res := c.prober.RTSP(ctx, address, c.rtspPort)
	if !res.Present() {
		c.logger.Debug("rtsp probe failed", "address", address, "port", c.rtspPort, "fault", res.Fault)
		return false
	}
	return strings.Contains(strings.ToLower(res.Text), rtspToken)
}

func (c *Classifier) queryDeviceInfo(ctx context.Context, address string) *model.DeviceInfo {
	info, err := c.querier.DeviceInformation(ctx, address, c.onvifPort)
	if err != nil {
		c.logger.Debug("onvif query failed", "address", address, "port", c.onvifPort, "error", err)
		return nil
	}
	return info
}

// containsAny reports the first keyword found in text, case-insensitively.
// keywords must already be lower case.
func containsAny(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
