package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultTimeout bounds connect and read for a single probe.
	DefaultTimeout = 2 * time.Second

	// DefaultReadLimit is the maximum number of response bytes kept.
	DefaultReadLimit = 1024

	// DefaultRTSPPort is the well-known RTSP port.
	DefaultRTSPPort = 554

	// DefaultReadIdle is how long to keep reading after the first chunk
	// arrived. RTSP servers keep the connection open after replying, so
	// waiting for EOF would always cost the full timeout.
	DefaultReadIdle = 250 * time.Millisecond
)

// Prober runs probes against a single address/port at a time.
// A Prober holds no per-probe state and is safe for concurrent use.
type Prober struct {
	// dialer opens TCP connections, directly or through a proxy.
	dialer proxy.ContextDialer

	// timeout bounds a whole probe: connect, write and read together.
	timeout time.Duration

	// readLimit caps the bytes read from the peer.
	readLimit int

	// readIdle is the grace period for trailing response bytes.
	readIdle time.Duration
}

// Option configures a Prober.
type Option func(*Prober)

// WithDialer sets the dialer used to open connections.
func WithDialer(d proxy.ContextDialer) Option {
	return func(p *Prober) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithReadLimit sets the maximum number of response bytes read.
func WithReadLimit(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.readLimit = n
		}
	}
}

// WithReadIdle sets how long to wait for more bytes after the first chunk.
func WithReadIdle(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.readIdle = d
		}
	}
}

// New creates a Prober with default settings and a direct dialer.
func New(opts ...Option) *Prober {
	p := &Prober{
		dialer:    proxy.Direct,
		timeout:   DefaultTimeout,
		readLimit: DefaultReadLimit,
		readIdle:  DefaultReadIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSOCKS5Dialer returns a ContextDialer that tunnels through the SOCKS5
// proxy at address ("host:port"). auth may be nil.
func NewSOCKS5Dialer(address string, auth *proxy.Auth) (proxy.ContextDialer, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", address, err)
	}
	d, err := proxy.SOCKS5("tcp", address, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// Timeout returns the configured per-probe timeout.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// Connect opens a TCP connection to address:port within the timeout.
// The caller owns the returned connection and must close it.
func (p *Prober) Connect(ctx context.Context, address string, port int) (net.Conn, error) {
	return p.dial(ctx, address, port, time.Now().Add(p.timeout))
}

// dial opens a TCP connection that must be established before deadline.
func (p *Prober) dial(ctx context.Context, address string, port int, deadline time.Time) (net.Conn, error) {
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// HTTP sends "GET / HTTP/1.1" with "Connection: close" and returns the
// beginning of the response.
func (p *Prober) HTTP(ctx context.Context, address string, port int) Result {
	return p.exchange(ctx, address, port, HTTPRequest(address))
}

// RTSP sends an RTSP OPTIONS request and returns the beginning of the response.
func (p *Prober) RTSP(ctx context.Context, address string, port int) Result {
	return p.exchange(ctx, address, port, RTSPRequest(address))
}

// HTTPRequest returns the minimal HTTP request sent by the HTTP probe.
func HTTPRequest(address string) string {
	return "GET / HTTP/1.1\r\nHost: " + address + "\r\nConnection: close\r\n\r\n"
}

// RTSPRequest returns the OPTIONS request sent by the RTSP probe.
func RTSPRequest(address string) string {
	return "OPTIONS rtsp://" + address + "/ RTSP/1.0\r\nCSeq: 1\r\n\r\n"
}

// exchange connects, writes request, and reads the response, all before
// one shared deadline. The connection is closed on every path.
func (p *Prober) exchange(ctx context.Context, address string, port int, request string) Result {
	deadline := time.Now().Add(p.timeout)
	conn, err := p.dial(ctx, address, port, deadline)
	if err != nil {
		return absent(err)
	}
	defer conn.Close()

	// Unblock reads as soon as the caller cancels.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now()) //nolint:errcheck // best effort wakeup
	})
	defer stop()

	if err := conn.SetDeadline(deadline); err != nil {
		return absent(err)
	}

	if _, err := conn.Write([]byte(request)); err != nil {
		return absent(err)
	}

	raw, err := p.read(conn, deadline)
	if len(raw) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return absent(ctxErr)
		}
		if err == nil || errors.Is(err, io.EOF) {
			return absent(ErrNoResponse)
		}
		return absent(fmt.Errorf("%w: %v", ErrNoResponse, err))
	}

	return Result{Text: decode(raw)}
}

// read collects up to readLimit bytes. After the first chunk it only waits
// readIdle for more, never past deadline. A read error after some bytes
// arrived is not a failure.
func (p *Prober) read(conn net.Conn, deadline time.Time) ([]byte, error) {
	buf := make([]byte, p.readLimit)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return buf[:n], err
		}
		if m > 0 {
			idle := time.Now().Add(p.readIdle)
			if idle.After(deadline) {
				idle = deadline
			}
			if err := conn.SetReadDeadline(idle); err != nil {
				return buf[:n], err
			}
		}
	}
	return buf[:n], nil
}

// decode converts raw bytes to text, replacing invalid UTF-8 sequences
// instead of failing.
func decode(raw []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
