package onvif

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/clbanning/mxj"
)

const probeMatchTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing" xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery">
<SOAP-ENV:Header>
<wsa:MessageID>uuid:reply-1</wsa:MessageID>
<wsa:RelatesTo>%s</wsa:RelatesTo>
</SOAP-ENV:Header>
<SOAP-ENV:Body>
<d:ProbeMatches>
<d:ProbeMatch>
<wsa:EndpointReference><wsa:Address>urn:uuid:0a940000-d700-11b5-84bd-98df82531003</wsa:Address></wsa:EndpointReference>
<d:Types>dn:NetworkVideoTransmitter</d:Types>
<d:Scopes>onvif://www.onvif.org/type/video_encoder onvif://www.onvif.org/name/HIKVISION%%20DS-2CD2042 onvif://www.onvif.org/hardware/DS-2CD2042WD-I</d:Scopes>
<d:XAddrs>http://192.168.1.64/onvif/device_service http://[fe80::1]/onvif/device_service</d:XAddrs>
</d:ProbeMatch>
</d:ProbeMatches>
</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

// TestParseProbeMatch tests ProbeMatches parsing and message correlation.
func TestParseProbeMatch(t *testing.T) {
	t.Parallel()

	t.Run("matching reply", func(t *testing.T) {
		t.Parallel()

		ep, err := parseProbeMatch("uuid:abc", []byte(fmt.Sprintf(probeMatchTemplate, "uuid:abc")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ep.Address != "192.168.1.64" {
			t.Errorf("expected address 192.168.1.64, got %q", ep.Address)
		}
		if len(ep.XAddrs) != 2 {
			t.Errorf("expected 2 xaddrs, got %v", ep.XAddrs)
		}
		if ep.Name != "HIKVISION DS-2CD2042" {
			t.Errorf("unexpected name %q", ep.Name)
		}
		if ep.Hardware != "DS-2CD2042WD-I" {
			t.Errorf("unexpected hardware %q", ep.Hardware)
		}
		if ep.Reference != "urn:uuid:0a940000-d700-11b5-84bd-98df82531003" {
			t.Errorf("unexpected reference %q", ep.Reference)
		}
	})

	t.Run("unrelated reply", func(t *testing.T) {
		t.Parallel()

		_, err := parseProbeMatch("uuid:abc", []byte(fmt.Sprintf(probeMatchTemplate, "uuid:other")))
		if !errors.Is(err, ErrUnrelatedMessage) {
			t.Errorf("expected ErrUnrelatedMessage, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		if _, err := parseProbeMatch("uuid:abc", []byte("not xml at all")); err == nil {
			t.Error("expected error")
		}
	})
}

// TestDiscoverer tests a full probe exchange against a fake device.
func TestDiscoverer(t *testing.T) {
	t.Parallel()

	device, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer device.Close()

	go func() {
		buf := make([]byte, 64*1024)
		n, from, err := device.ReadFromUDP(buf)
		if err != nil {
			return
		}
		mv, err := mxj.NewMapXml(buf[:n])
		if err != nil {
			return
		}
		id, _ := mv.ValueForPathString("Envelope.Header.MessageID")

		// An unrelated reply first, then a real match sent twice.
		_, _ = device.WriteToUDP([]byte(fmt.Sprintf(probeMatchTemplate, "uuid:someone-else")), from)
		reply := []byte(fmt.Sprintf(probeMatchTemplate, id))
		_, _ = device.WriteToUDP(reply, from)
		_, _ = device.WriteToUDP(reply, from)
	}()

	d := &Discoverer{target: device.LocalAddr().String()}
	endpoints, err := d.Discover(context.Background(), 300*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d: %+v", len(endpoints), endpoints)
	}
	if endpoints[0].Address != "192.168.1.64" {
		t.Errorf("unexpected address %q", endpoints[0].Address)
	}
}

// TestDiscovererCancel tests that cancellation ends listening early.
func TestDiscovererCancel(t *testing.T) {
	t.Parallel()

	sink, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	d := &Discoverer{target: sink.LocalAddr().String()}
	endpoints, err := d.Discover(ctx, 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(endpoints) != 0 {
		t.Errorf("expected no endpoints, got %+v", endpoints)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}
