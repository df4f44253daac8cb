// Package config provides configuration structures and utilities for EyeSpy.
// It defines the scan settings (concurrency, timeouts, probe ports and
// keywords), output locations, and the optional .eyespy.yaml file that can
// override the built-in defaults.
package config
