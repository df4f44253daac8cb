package onvif

import "errors"

var (
	// ErrUnexpectedStatus is returned when the device answers with a
	// non-200 HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrSOAPFault is returned when the device answers with a SOAP fault.
	ErrSOAPFault = errors.New("SOAP fault")

	// ErrMissingResponse is returned when the body holds no
	// GetDeviceInformationResponse element.
	ErrMissingResponse = errors.New("missing GetDeviceInformationResponse")

	// ErrUnrelatedMessage is returned for WS-Discovery replies that do not
	// answer our probe.
	ErrUnrelatedMessage = errors.New("message is not related to the discovery probe")
)
