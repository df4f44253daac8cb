package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoSubnet is returned when a scan is requested without a subnet.
	ErrNoSubnet = errors.New("no subnet specified: use --subnet, e.g. --subnet 192.168.1.0/24")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPort is returned when a probe port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrNoHTTPPorts is returned when the HTTP port list is empty.
	ErrNoHTTPPorts = errors.New("no HTTP ports configured")

	// ErrNoKeywords is returned when the keyword list is empty.
	// Without keywords no HTTP response could ever match.
	ErrNoKeywords = errors.New("no camera keywords configured")

	// ErrInvalidProxy is returned when the proxy is not a host:port pair.
	ErrInvalidProxy = errors.New("invalid proxy address: expected host:port")

	// ErrInvalidReportFormat is returned for an unsupported report format.
	ErrInvalidReportFormat = errors.New("invalid report format: use html, markdown, text or json")
)
