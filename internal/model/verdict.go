package model

// DeviceInfo is the identity block returned by an ONVIF GetDeviceInformation call.
type DeviceInfo struct {
	// Manufacturer is the vendor name reported by the device (e.g. "HIKVISION").
	Manufacturer string `json:"manufacturer"`

	// Model is the device model string.
	Model string `json:"model"`

	// Firmware is the firmware version string.
	Firmware string `json:"firmware"`

	// Serial is the device serial number.
	Serial string `json:"serial"`
}

// HostVerdict is the classification outcome for one probed address.
//
// A verdict is built once by the classifier after every probe for the address
// has returned and is not modified afterwards. Only positive verdicts are kept
// in a scan result.
type HostVerdict struct {
	// Address is the probed host (dotted quad).
	Address string `json:"address"`

	// HTTPMatched is true when an HTTP probe response contained a camera keyword.
	HTTPMatched bool `json:"httpMatched"`

	// RTSPMatched is true when the RTSP probe response contained the "rtsp" token.
	RTSPMatched bool `json:"rtspMatched"`

	// DeviceInfo is set only when an ONVIF device-information query succeeded.
	DeviceInfo *DeviceInfo `json:"deviceInfo"`
}

// NewHostVerdict creates an all-negative verdict for the given address.
func NewHostVerdict(address string) HostVerdict {
	return HostVerdict{Address: address}
}

// Positive reports whether at least one probe produced a camera signal.
func (v HostVerdict) Positive() bool {
	return v.HTTPMatched || v.RTSPMatched || v.DeviceInfo != nil
}

// Signals returns the names of the probes that matched, in probe order.
func (v HostVerdict) Signals() []string {
	signals := make([]string, 0, 3)
	if v.HTTPMatched {
		signals = append(signals, "http")
	}
	if v.RTSPMatched {
		signals = append(signals, "rtsp")
	}
	if v.DeviceInfo != nil {
		signals = append(signals, "onvif")
	}
	return signals
}
