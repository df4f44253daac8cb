// Package store persists scan records as JSON files so that a report can
// be rendered later without scanning again.
//
// Files are written as a single envelope object. Load also understands
// the older bare-array layout, where each element carried "ip", "http",
// "rtsp" and "onvif" keys.
package store
