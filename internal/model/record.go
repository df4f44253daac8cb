package model

import (
	"net/netip"
	"sort"
	"time"
)

// ScanRecord is the persisted outcome of one scan run.
// It wraps the retained verdicts with the run parameters so that a later
// export can render a report without re-scanning.
type ScanRecord struct {
	// Subnet is the CIDR string that was scanned.
	Subnet string `json:"subnet"`

	// StartedAt is when the scan began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the last classification returned.
	FinishedAt time.Time `json:"finishedAt"`

	// HostsScanned is the number of addresses that were classified.
	HostsScanned int `json:"hostsScanned"`

	// Verdicts holds only positive verdicts.
	Verdicts []HostVerdict `json:"verdicts"`
}

// NewScanRecord creates a record for the given subnet with an empty verdict list.
func NewScanRecord(subnet string, startedAt time.Time) *ScanRecord {
	return &ScanRecord{
		Subnet:    subnet,
		StartedAt: startedAt,
		Verdicts:  make([]HostVerdict, 0),
	}
}

// Duration returns how long the scan took.
func (r *ScanRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountWithDeviceInfo returns how many verdicts carry ONVIF device information.
func (r *ScanRecord) CountWithDeviceInfo() int {
	n := 0
	for _, v := range r.Verdicts {
		if v.DeviceInfo != nil {
			n++
		}
	}
	return n
}

// SortVerdicts orders verdicts by numeric address so reports are stable.
// Completion order of the workers is not meaningful to readers.
func SortVerdicts(verdicts []HostVerdict) {
	sort.SliceStable(verdicts, func(i, j int) bool {
		return addressLess(verdicts[i].Address, verdicts[j].Address)
	})
}

// addressLess compares addresses numerically, falling back to lexical order
// for anything that does not parse as an IP address.
func addressLess(a, b string) bool {
	ipA, errA := netip.ParseAddr(a)
	ipB, errB := netip.ParseAddr(b)
	if errA == nil && errB == nil {
		return ipA.Less(ipB)
	}
	return a < b
}
