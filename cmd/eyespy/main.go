// Package main provides the entry point for the EyeSpy CLI.
//
// EyeSpy audits a local network for IP cameras. It probes every host of
// an IPv4 subnet for camera web interfaces, RTSP servers and ONVIF
// devices, and reports the hosts that look like cameras.
//
// Usage:
//
//	eyespy                      # interactive menu
//	eyespy scan --subnet 192.168.1.0/24
//	eyespy export -f markdown -o report.md
//
// See --help for all available options.
package main

// main is the entry point for EyeSpy.
func main() {
	Execute()
}
