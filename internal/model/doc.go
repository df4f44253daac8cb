// Package model defines the data structures shared across EyeSpy.
//
// This package contains the following main types:
//   - HostVerdict: the per-address classification outcome
//   - DeviceInfo: ONVIF identity attached to a verdict
//   - ScanRecord: a persisted scan run (subnet, timing, retained verdicts)
//
// The types carry JSON tags because they are written to the results file,
// stored in the history database and read back by the export command.
package model
