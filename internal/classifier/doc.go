// Package classifier decides whether a single host looks like a network
// camera.
//
// A host is examined in a fixed order: HTTP banners on a list of web
// ports, then an RTSP OPTIONS request, then (when enabled) an ONVIF
// GetDeviceInformation query. Every step runs regardless of earlier
// matches so the verdict records each signal independently. Keyword
// matching is a case-insensitive substring test, which means a page that
// merely mentions "video" counts as a match.
package classifier
