// Package probe provides the bounded-duration TCP probes used to fingerprint
// camera candidates.
//
// Three primitives are offered by Prober:
//   - Connect: a plain TCP connect with a timeout
//   - HTTP: a minimal "GET /" exchange on a given port
//   - RTSP: an "OPTIONS" exchange, port 554 by default
//
// HTTP and RTSP never return Go errors for transport problems. They return a
// Result whose Fault field records why no response text is available
// (refused, timeout, reset, nothing read). Callers treat such a result as the
// absence of a signal and move on.
//
// Connections are made through a golang.org/x/net/proxy ContextDialer, which
// is proxy.Direct unless a SOCKS5 proxy is configured.
//
// # Usage
//
//	p := probe.New(probe.WithTimeout(2 * time.Second))
//	res := p.HTTP(ctx, "192.168.1.64", 80)
//	if res.Present() {
//	    fmt.Println(res.Text)
//	}
package probe
