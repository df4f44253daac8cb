package onvif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/clbanning/mxj"
	"golang.org/x/net/proxy"

	"github.com/techcorp/EyeSpy/internal/model"
)

const (
	// DefaultPort is the port most cameras serve the device service on.
	DefaultPort = 80

	// DeviceServicePath is the standard device service endpoint.
	DeviceServicePath = "/onvif/device_service"

	// DefaultTimeout bounds one device information request.
	DefaultTimeout = 2 * time.Second

	// maxResponseSize caps the SOAP response body read into memory.
	maxResponseSize = 64 * 1024

	getDeviceInformationAction = "http://www.onvif.org/ver10/device/wsdl/GetDeviceInformation"
)

// getDeviceInformationRequest is the SOAP 1.2 envelope sent to the device.
const getDeviceInformationRequest = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
<s:Body xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
<GetDeviceInformation xmlns="http://www.onvif.org/ver10/device/wsdl"/>
</s:Body>
</s:Envelope>`

// Client queries ONVIF device services.
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	dialer     proxy.ContextDialer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDialer routes requests through d, for example a SOCKS5 proxy.
func WithDialer(d proxy.ContextDialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely. The dialer option is
// ignored when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		dialer:  proxy.Direct,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		dialer := c.dialer
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.DialContext(ctx, network, addr)
				},
				DisableKeepAlives: true,
			},
			// Cameras redirect to login pages; a redirect is not a SOAP answer.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return c
}

// DeviceInformation calls GetDeviceInformation on address:port without
// credentials.
func (c *Client) DeviceInformation(ctx context.Context, address string, port int) (*model.DeviceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := "http://" + net.JoinHostPort(address, strconv.Itoa(port)) + DeviceServicePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(getDeviceInformationRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8; action="`+getDeviceInformationAction+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Devices usually pair 400 or 500 with a SOAP fault; prefer its reason.
		if _, perr := ParseDeviceInformation(body); errors.Is(perr, ErrSOAPFault) {
			return nil, perr
		}
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return ParseDeviceInformation(body)
}

// ParseDeviceInformation extracts device information from a
// GetDeviceInformation response envelope.
func ParseDeviceInformation(body []byte) (*model.DeviceInfo, error) {
	mv, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SOAP response: %w", err)
	}

	if _, err := mv.ValueForPath("Envelope.Body.Fault"); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSOAPFault, faultReason(mv))
	}

	if _, err := mv.ValueForPath("Envelope.Body.GetDeviceInformationResponse"); err != nil {
		return nil, ErrMissingResponse
	}

	const base = "Envelope.Body.GetDeviceInformationResponse."
	return &model.DeviceInfo{
		Manufacturer: stringAt(mv, base+"Manufacturer"),
		Model:        stringAt(mv, base+"Model"),
		Firmware:     stringAt(mv, base+"FirmwareVersion"),
		Serial:       stringAt(mv, base+"SerialNumber"),
	}, nil
}

// faultReason returns a human-readable reason for SOAP 1.2 and 1.1 faults.
func faultReason(mv mxj.Map) string {
	for _, path := range []string{
		"Envelope.Body.Fault.Reason.Text.#text",
		"Envelope.Body.Fault.Reason.Text",
		"Envelope.Body.Fault.faultstring",
	} {
		if s := stringAt(mv, path); s != "" {
			return s
		}
	}
	return "unknown reason"
}

// stringAt returns the string value at path, or "" when the path is
// missing or not a string.
func stringAt(mv mxj.Map, path string) string {
	s, err := mv.ValueForPathString(path)
	if err != nil {
		return ""
	}
	return s
}
