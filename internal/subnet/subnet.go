package subnet

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrInvalidSubnet is returned when the input is not a valid IPv4 CIDR string.
var ErrInvalidSubnet = errors.New("invalid subnet")

// LargeSubnetThreshold is the host count above which callers should warn
// that scan time grows linearly with the number of hosts.
const LargeSubnetThreshold = 4096

// Expand parses cidr and returns every usable host address in ascending order.
//
// Host bits in the input are ignored, so "192.168.1.7/24" expands the same
// as "192.168.1.0/24".
func Expand(cidr string) ([]string, error) {
	prefix, err := Parse(cidr)
	if err != nil {
		return nil, err
	}

	first, last := hostRange(prefix)
	hosts := make([]string, 0, HostCount(prefix))
	for addr := first; ; addr = addr.Next() {
		hosts = append(hosts, addr.String())
		if addr == last {
			break
		}
	}
	return hosts, nil
}

// Parse validates cidr and returns the masked IPv4 prefix.
func Parse(cidr string) (netip.Prefix, error) {
	trimmed := strings.TrimSpace(cidr)
	prefix, err := netip.ParsePrefix(trimmed)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w %q: %v", ErrInvalidSubnet, cidr, err)
	}
	if !prefix.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("%w %q: only IPv4 subnets are supported", ErrInvalidSubnet, cidr)
	}
	return prefix.Masked(), nil
}

// HostCount returns the number of usable hosts in prefix.
func HostCount(prefix netip.Prefix) int {
	bits := prefix.Bits()
	switch {
	case bits >= 32:
		return 1
	case bits == 31:
		return 2
	default:
		return (1 << (32 - bits)) - 2
	}
}

// IsLarge reports whether a scan over n hosts deserves a duration warning.
func IsLarge(n int) bool {
	return n > LargeSubnetThreshold
}

// hostRange returns the first and last usable addresses of a masked prefix.
func hostRange(prefix netip.Prefix) (netip.Addr, netip.Addr) {
	network := prefix.Addr()
	bits := prefix.Bits()

	raw := network.As4()
	base := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	broadcast := base | (^uint32(0) >> bits)

	if bits >= 31 {
		return network, fromUint32(broadcast)
	}
	return fromUint32(base + 1), fromUint32(broadcast - 1)
}

func fromUint32(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
