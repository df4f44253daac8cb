package onvif

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/clbanning/mxj"
	"github.com/google/uuid"
)

// MulticastAddress is the WS-Discovery IPv4 multicast group and port.
const MulticastAddress = "239.255.255.250:3702"

// DefaultDiscoveryTimeout is how long Discover listens for probe matches.
const DefaultDiscoveryTimeout = 3 * time.Second

const probeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing">
<s:Header>
<a:Action s:mustUnderstand="1">http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</a:Action>
<a:MessageID>%s</a:MessageID>
<a:ReplyTo><a:Address>http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous</a:Address></a:ReplyTo>
<a:To s:mustUnderstand="1">urn:schemas-xmlsoap-org:ws:2005:04:discovery</a:To>
</s:Header>
<s:Body>
<Probe xmlns="http://schemas.xmlsoap.org/ws/2005/04/discovery">
<d:Types xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery" xmlns:dp0="http://www.onvif.org/ver10/network/wsdl">dp0:NetworkVideoTransmitter</d:Types>
</Probe>
</s:Body>
</s:Envelope>`

// Endpoint is a device that answered a WS-Discovery probe.
type Endpoint struct {
	// Address is the IP address the device advertises in its XAddrs,
	// falling back to the UDP source address.
	Address string `json:"address"`

	// XAddrs are the device service URLs.
	XAddrs []string `json:"xaddrs"`

	// Name and Hardware come from the onvif:// scopes when present.
	Name     string `json:"name,omitempty"`
	Hardware string `json:"hardware,omitempty"`

	// Reference is the endpoint reference address, usually a urn:uuid.
	Reference string `json:"reference,omitempty"`
}

// Discoverer sends WS-Discovery probes.
type Discoverer struct {
	// target is the UDP address probes are sent to.
	target string
}

// NewDiscoverer creates a Discoverer that probes the standard multicast
// group.
func NewDiscoverer() *Discoverer {
	return &Discoverer{target: MulticastAddress}
}

// Discover sends one probe and collects matches until timeout elapses or
// ctx is cancelled. Duplicate replies from the same device are merged.
// Cancellation is not an error; the endpoints seen so far are returned.
func (d *Discoverer) Discover(ctx context.Context, timeout time.Duration) ([]Endpoint, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}

	target, err := net.ResolveUDPAddr("udp4", d.target)
	if err != nil {
		return nil, fmt.Errorf("invalid discovery address %q: %w", d.target, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now()) //nolint:errcheck // best effort wakeup
	})
	defer stop()

	messageID := "uuid:" + uuid.New().String()
	if _, err := conn.WriteToUDP([]byte(fmt.Sprintf(probeTemplate, messageID)), target); err != nil {
		return nil, fmt.Errorf("failed to send probe: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	seen := make(map[string]Endpoint)
	buf := make([]byte, 64*1024)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Deadline or cancellation ends the listening window.
			break
		}
		ep, err := parseProbeMatch(messageID, buf[:n])
		if err != nil {
			continue
		}
		if ep.Address == "" && from != nil {
			ep.Address = from.IP.String()
		}
		key := ep.Reference
		if key == "" {
			key = ep.Address
		}
		seen[key] = ep
	}

	endpoints := make([]Endpoint, 0, len(seen))
	for _, ep := range seen {
		endpoints = append(endpoints, ep)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].Address < endpoints[j].Address
	})
	return endpoints, nil
}

// parseProbeMatch parses a ProbeMatches message and checks that it answers
// messageID.
func parseProbeMatch(messageID string, data []byte) (Endpoint, error) {
	mv, err := mxj.NewMapXml(data)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to parse discovery reply: %w", err)
	}

	relatesTo := stringAt(mv, "Envelope.Header.RelatesTo")
	if relatesTo != messageID {
		return Endpoint{}, ErrUnrelatedMessage
	}

	const base = "Envelope.Body.ProbeMatches.ProbeMatch."
	ep := Endpoint{
		XAddrs:    strings.Fields(stringAt(mv, base+"XAddrs")),
		Reference: stringAt(mv, base+"EndpointReference.Address"),
	}
	ep.Name, ep.Hardware = parseScopes(stringAt(mv, base+"Scopes"))

	for _, xaddr := range ep.XAddrs {
		u, err := url.Parse(xaddr)
		if err != nil {
			continue
		}
		if ip := net.ParseIP(u.Hostname()); ip != nil && ip.To4() != nil {
			ep.Address = ip.String()
			break
		}
	}
	return ep, nil
}

// parseScopes pulls the name and hardware scope values out of a
// space-separated scope list.
func parseScopes(scopes string) (name, hardware string) {
	for _, scope := range strings.Fields(scopes) {
		switch {
		case strings.HasPrefix(scope, "onvif://www.onvif.org/name/"):
			name = unescape(strings.TrimPrefix(scope, "onvif://www.onvif.org/name/"))
		case strings.HasPrefix(scope, "onvif://www.onvif.org/hardware/"):
			hardware = unescape(strings.TrimPrefix(scope, "onvif://www.onvif.org/hardware/"))
		}
	}
	return name, hardware
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
