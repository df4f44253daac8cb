package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"
)

const (
	// ServiceDomain is the mDNS domain browsed.
	ServiceDomain = "local."

	// DefaultBrowseTimeout bounds a browse when the caller's context has no deadline.
	DefaultBrowseTimeout = 3 * time.Second
)

// DefaultServiceTypes are the service types cameras commonly announce.
var DefaultServiceTypes = []string{"_rtsp._tcp", "_onvif._tcp"}

// Host is an mDNS announcement resolved to an IPv4 address.
type Host struct {
	// Address is the first announced IPv4 address.
	Address string `json:"address"`
	// Hostname is the announced target host, without the trailing dot.
	Hostname string `json:"hostname,omitempty"`
	// Instance is the service instance name, often the camera model.
	Instance string `json:"instance,omitempty"`
	// Service is the service type the host answered for.
	Service string `json:"service"`
	// Port is the announced service port.
	Port int `json:"port"`
	// Text holds the TXT record key/value pairs.
	Text map[string]string `json:"text,omitempty"`
}

// browseFunc streams entries for one service type until ctx is done.
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Browser browses mDNS for camera services.
type Browser struct {
	services []string
	timeout  time.Duration
	logger   *slog.Logger
	browse   browseFunc
}

// Option configures a Browser.
type Option func(*Browser)

// WithServiceTypes replaces the browsed service types.
func WithServiceTypes(services ...string) Option {
	return func(b *Browser) {
		if len(services) > 0 {
			b.services = services
		}
	}
}

// WithTimeout sets how long a browse listens for announcements.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBrowser returns a Browser for DefaultServiceTypes.
func NewBrowser(opts ...Option) *Browser {
	b := &Browser{
		services: append([]string(nil), DefaultServiceTypes...),
		timeout:  DefaultBrowseTimeout,
		logger:   slog.Default(),
		browse:   zeroconfBrowse,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Browse listens for announcements of every configured service type and
// returns the hosts seen before the timeout elapses, sorted by address.
// A host announcing several services is reported once per service.
func (b *Browser) Browse(ctx context.Context) ([]Host, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		seen  = make(map[string]bool)
		hosts = make([]Host, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, service := range b.services {
		entries := make(chan *zeroconf.ServiceEntry)

		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case entry, ok := <-entries:
					if !ok {
						return nil
					}
					host, ok := hostFromEntry(service, entry)
					if !ok {
						continue
					}
					key := host.Service + "|" + host.Address + "|" + host.Instance
					mu.Lock()
					if !seen[key] {
						seen[key] = true
						hosts = append(hosts, host)
						b.logger.Debug("mdns announcement", "service", service, "address", host.Address, "instance", host.Instance)
					}
					mu.Unlock()
				}
			}
		})

		g.Go(func() error {
			if err := b.browse(gctx, service, ServiceDomain, entries); err != nil {
				return fmt.Errorf("failed to browse %s: %w", service, err)
			}
			<-gctx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	sort.SliceStable(hosts, func(i, j int) bool {
		if hosts[i].Address != hosts[j].Address {
			return ipLess(hosts[i].Address, hosts[j].Address)
		}
		return hosts[i].Service < hosts[j].Service
	})
	return hosts, nil
}

// zeroconfBrowse uses a fresh resolver per service type; a resolver's
// connections are torn down when its browse context ends.
func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// hostFromEntry converts a service entry, skipping entries without IPv4.
func hostFromEntry(service string, entry *zeroconf.ServiceEntry) (Host, bool) {
	if entry == nil {
		return Host{}, false
	}

	var address string
	for _, ip := range entry.AddrIPv4 {
		if v4 := ip.To4(); v4 != nil {
			address = v4.String()
			break
		}
	}
	if address == "" {
		return Host{}, false
	}

	return Host{
		Address:  address,
		Hostname: strings.TrimSuffix(entry.HostName, "."),
		Instance: entry.Instance,
		Service:  service,
		Port:     entry.Port,
		Text:     parseText(entry.Text),
	}, true
}

// parseText splits TXT records in key=value form.
func parseText(records []string) map[string]string {
	if len(records) == 0 {
		return nil
	}
	text := make(map[string]string, len(records))
	for _, record := range records {
		key, value, _ := strings.Cut(record, "=")
		if key == "" {
			continue
		}
		text[key] = value
	}
	return text
}

func ipLess(a, b string) bool {
	ipA, ipB := net.ParseIP(a).To4(), net.ParseIP(b).To4()
	if ipA == nil || ipB == nil {
		return a < b
	}
	for i := range ipA {
		if ipA[i] != ipB[i] {
			return ipA[i] < ipB[i]
		}
	}
	return false
}
