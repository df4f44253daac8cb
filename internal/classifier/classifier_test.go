package classifier

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/techcorp/EyeSpy/internal/model"
	"github.com/techcorp/EyeSpy/internal/probe"
)

// fakeProber returns canned responses keyed by "proto:port" and records
// every call.
type fakeProber struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
	onCall    func()
}

func (f *fakeProber) result(proto string, port int) probe.Result {
	f.mu.Lock()
	key := proto + ":" + strconv.Itoa(port)
	f.calls = append(f.calls, key)
	text, ok := f.responses[key]
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if !ok {
		return probe.Result{Fault: probe.ErrNoResponse}
	}
	return probe.Result{Text: text}
}

func (f *fakeProber) HTTP(_ context.Context, _ string, port int) probe.Result {
	return f.result("http", port)
}

func (f *fakeProber) RTSP(_ context.Context, _ string, port int) probe.Result {
	return f.result("rtsp", port)
}

func (f *fakeProber) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeQuerier struct {
	info  *model.DeviceInfo
	err   error
	calls int
	port  int
}

func (f *fakeQuerier) DeviceInformation(_ context.Context, _ string, port int) (*model.DeviceInfo, error) {
	f.calls++
	f.port = port
	return f.info, f.err
}

// TestClassify tests signal detection with canned probe responses.
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responses map[string]string
		wantHTTP  bool
		wantRTSP  bool
	}{
		{
			name:      "no responses",
			responses: map[string]string{},
		},
		{
			name:      "keyword on second http port",
			responses: map[string]string{"http:8000": "<title>DVR Login</title>"},
			wantHTTP:  true,
		},
		{
			name:      "keyword matching is case-insensitive",
			responses: map[string]string{"http:8080": "Welcome to SURVEILLANCE portal"},
			wantHTTP:  true,
		},
		{
			name:      "http response without keyword",
			responses: map[string]string{"http:80": "HTTP/1.1 200 OK\r\n\r\nIt works!"},
		},
		{
			name:      "rtsp token",
			responses: map[string]string{"rtsp:554": "RTSP/1.0 200 OK\r\nCSeq: 1\r\n"},
			wantRTSP:  true,
		},
		{
			name:      "rtsp port answering without rtsp token",
			responses: map[string]string{"rtsp:554": "HTTP/1.1 400 Bad Request"},
		},
		{
			name: "both signals",
			responses: map[string]string{
				"http:80":  "Hikvision IP Camera",
				"rtsp:554": "rtsp/1.0 200 ok",
			},
			wantHTTP: true,
			wantRTSP: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(&fakeProber{responses: tt.responses})
			v := c.Classify(context.Background(), "192.168.1.10")

			if v.Address != "192.168.1.10" {
				t.Errorf("expected address to be kept, got %q", v.Address)
			}
			if v.HTTPMatched != tt.wantHTTP {
				t.Errorf("HTTPMatched = %v, want %v", v.HTTPMatched, tt.wantHTTP)
			}
			if v.RTSPMatched != tt.wantRTSP {
				t.Errorf("RTSPMatched = %v, want %v", v.RTSPMatched, tt.wantRTSP)
			}
			if v.DeviceInfo != nil {
				t.Errorf("expected no device info with ONVIF disabled, got %+v", v.DeviceInfo)
			}
		})
	}
}

// TestClassifyProbeOrder tests the fixed HTTP, RTSP, ONVIF sequence.
func TestClassifyProbeOrder(t *testing.T) {
	t.Parallel()

	t.Run("all http ports probed when nothing matches", func(t *testing.T) {
		t.Parallel()

		p := &fakeProber{}
		New(p).Classify(context.Background(), "10.0.0.1")

		want := []string{"http:80", "http:8000", "http:8080", "rtsp:554"}
		got := p.Calls()
		if len(got) != len(want) {
			t.Fatalf("calls = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("call %d = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("stops at first http match but still probes rtsp", func(t *testing.T) {
		t.Parallel()

		p := &fakeProber{responses: map[string]string{"http:80": "ipcam"}}
		New(p).Classify(context.Background(), "10.0.0.1")

		got := p.Calls()
		if len(got) != 2 || got[0] != "http:80" || got[1] != "rtsp:554" {
			t.Errorf("unexpected calls %v", got)
		}
	})

	t.Run("custom ports and keywords", func(t *testing.T) {
		t.Parallel()

		p := &fakeProber{responses: map[string]string{"http:81": "MyVendor NVR-Box"}}
		c := New(p, WithHTTPPorts([]int{81}), WithKeywords([]string{"MYVENDOR"}), WithRTSPPort(8554))
		v := c.Classify(context.Background(), "10.0.0.1")

		if !v.HTTPMatched {
			t.Error("expected custom keyword to match")
		}
		got := p.Calls()
		if len(got) != 2 || got[1] != "rtsp:8554" {
			t.Errorf("unexpected calls %v", got)
		}
	})

	t.Run("cancellation skips remaining steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		p := &fakeProber{onCall: cancel}
		q := &fakeQuerier{info: &model.DeviceInfo{Manufacturer: "Axis"}}
		New(p, WithONVIF(q, 80)).Classify(ctx, "10.0.0.1")

		if got := p.Calls(); len(got) != 1 {
			t.Errorf("expected one probe before cancellation, got %v", got)
		}
		if q.calls != 0 {
			t.Errorf("expected no ONVIF query after cancellation, got %d", q.calls)
		}
	})
}

// TestClassifyONVIF tests the ONVIF capability flag.
func TestClassifyONVIF(t *testing.T) {
	t.Parallel()

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		c := New(&fakeProber{})
		if c.ONVIFEnabled() {
			t.Error("expected ONVIF to be disabled without a querier")
		}
	})

	t.Run("nil querier keeps it disabled", func(t *testing.T) {
		t.Parallel()

		c := New(&fakeProber{}, WithONVIF(nil, 80))
		if c.ONVIFEnabled() {
			t.Error("expected ONVIF to stay disabled")
		}
	})

	t.Run("device info recorded", func(t *testing.T) {
		t.Parallel()

		info := &model.DeviceInfo{Manufacturer: "Dahua", Model: "IPC-HDW", Firmware: "2.800", Serial: "X1"}
		q := &fakeQuerier{info: info}
		c := New(&fakeProber{}, WithONVIF(q, 8899))
		v := c.Classify(context.Background(), "10.0.0.1")

		if !c.ONVIFEnabled() {
			t.Error("expected ONVIF to be enabled")
		}
		if q.calls != 1 || q.port != 8899 {
			t.Errorf("expected one query on 8899, got %d on %d", q.calls, q.port)
		}
		if v.DeviceInfo == nil || v.DeviceInfo.Manufacturer != "Dahua" {
			t.Fatalf("unexpected device info %+v", v.DeviceInfo)
		}
		if !v.Positive() {
			t.Error("expected verdict with device info to be positive")
		}
	})

	t.Run("query failure is absence", func(t *testing.T) {
		t.Parallel()

		q := &fakeQuerier{err: errors.New("connection refused")}
		v := New(&fakeProber{}, WithONVIF(q, 80)).Classify(context.Background(), "10.0.0.1")

		if v.DeviceInfo != nil {
			t.Errorf("expected no device info, got %+v", v.DeviceInfo)
		}
		if v.Positive() {
			t.Error("expected negative verdict")
		}
	})
}

// serveOnce starts a localhost TCP server replying with response to every
// connection after reading the request.
func serveOnce(t *testing.T, response string) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 512)
				_ = conn.SetReadDeadline(time.Now().Add(time.Second))
				_, _ = conn.Read(buf)
				_, _ = conn.Write([]byte(response))
			}()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a localhost port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

// TestClassifyMockHosts runs the classifier with a real prober against
// mock hosts.
func TestClassifyMockHosts(t *testing.T) {
	t.Parallel()

	t.Run("hikvision web page", func(t *testing.T) {
		t.Parallel()

		httpPort := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<html><title>Hikvision IP Camera</title></html>")
		c := New(probe.New(probe.WithTimeout(time.Second)),
			WithHTTPPorts([]int{httpPort}),
			WithRTSPPort(closedPort(t)),
		)

		v := c.Classify(context.Background(), "127.0.0.1")
		if !v.HTTPMatched {
			t.Error("expected httpMatched = true")
		}
		if v.RTSPMatched {
			t.Error("expected rtspMatched = false")
		}
	})

	t.Run("rtsp server regardless of http", func(t *testing.T) {
		t.Parallel()

		rtspPort := serveOnce(t, "RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n")
		c := New(probe.New(probe.WithTimeout(time.Second)),
			WithHTTPPorts([]int{closedPort(t)}),
			WithRTSPPort(rtspPort),
		)

		v := c.Classify(context.Background(), "127.0.0.1")
		if !v.RTSPMatched {
			t.Error("expected rtspMatched = true")
		}
		if v.HTTPMatched {
			t.Error("expected httpMatched = false")
		}
		if !v.Positive() {
			t.Error("expected positive verdict")
		}
	})
}
