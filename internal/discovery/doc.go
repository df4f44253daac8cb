// Package discovery lists cameras that announce themselves over mDNS.
//
// Many IP cameras and NVRs advertise an RTSP or ONVIF service through
// multicast DNS. Browsing for those service types is a quick, passive
// way to spot devices before (or instead of) a full subnet scan. Results
// are best-effort: silent devices and hosts on other segments do not show
// up here but are still found by the TCP scan.
package discovery
