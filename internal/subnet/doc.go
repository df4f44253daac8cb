// Package subnet expands CIDR notation into the ordered list of usable host
// addresses that the scan coordinator distributes to its workers.
//
// Only IPv4 is supported. Network and broadcast addresses are excluded for
// prefixes up to /30; /31 point-to-point links yield both addresses and /32
// yields the single host.
package subnet
