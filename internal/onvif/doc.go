// Package onvif implements the small part of ONVIF that EyeSpy needs:
// an unauthenticated GetDeviceInformation SOAP call and a WS-Discovery
// probe for network video transmitters.
//
// Responses are parsed with mxj, which keys elements by their local name,
// so namespace prefixes chosen by different vendors do not matter.
package onvif
