// Package database keeps a history of scan runs in SQLite.
//
// Every completed scan is stored twice: the full record as JSON, for
// rendering it again later, and one sighting row per camera, so that the
// history of a single address can be queried without decoding every run.
//
// The driver is modernc.org/sqlite, which is pure Go, so the binary stays
// CGO-free. The database lives in a single file, eyespy.db, under the
// XDG data directory unless the caller chooses another directory.
package database
