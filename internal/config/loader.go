package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".eyespy.yaml"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrInvalidConfigFile is returned when the file cannot be parsed.
var ErrInvalidConfigFile = errors.New("invalid configuration file")

// File represents the structure of the .eyespy.yaml configuration file.
// Pointer fields distinguish "not set" from a zero value.
type File struct {
	Concurrency *int     `yaml:"concurrency,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	HTTPPorts   []int    `yaml:"httpPorts,omitempty"`
	RTSPPort    *int     `yaml:"rtspPort,omitempty"`
	ONVIFPort   *int     `yaml:"onvifPort,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	ONVIF       *bool    `yaml:"onvif,omitempty"`
	Proxy       string   `yaml:"proxy,omitempty"`
	Output      string   `yaml:"output,omitempty"`
	Report      Report   `yaml:"report,omitempty"`
	History     *bool    `yaml:"history,omitempty"`
}

// Report holds the export settings of the configuration file.
type Report struct {
	Output string `yaml:"output,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfigFile, path, err)
	}

	return &cf, nil
}

// ApplyTo copies every value set in the file onto cfg.
func (cf *File) ApplyTo(cfg *Config) error {
	if cf.Concurrency != nil {
		cfg.Concurrency = *cf.Concurrency
	}
	if cf.Timeout != "" {
		d, err := time.ParseDuration(cf.Timeout)
		if err != nil {
			return fmt.Errorf("%w: timeout %q", ErrInvalidTimeout, cf.Timeout)
		}
		cfg.Timeout = d
	}
	if len(cf.HTTPPorts) > 0 {
		cfg.HTTPPorts = append([]int(nil), cf.HTTPPorts...)
	}
	if cf.RTSPPort != nil {
		cfg.RTSPPort = *cf.RTSPPort
	}
	if cf.ONVIFPort != nil {
		cfg.ONVIFPort = *cf.ONVIFPort
	}
	if len(cf.Keywords) > 0 {
		cfg.Keywords = append([]string(nil), cf.Keywords...)
	}
	if cf.ONVIF != nil {
		cfg.ONVIFEnabled = *cf.ONVIF
	}
	if cf.Proxy != "" {
		cfg.ProxyAddress = cf.Proxy
	}
	if cf.Output != "" {
		cfg.OutputFile = cf.Output
	}
	if cf.Report.Output != "" {
		cfg.ReportFile = cf.Report.Output
	}
	if cf.Report.Format != "" {
		cfg.ReportFormat = cf.Report.Format
	}
	if cf.History != nil {
		cfg.SaveHistory = *cf.History
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .eyespy.yaml in the current directory
// 3. Look for .eyespy.yaml in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load resolves the configuration file for configPath and applies it to
// cfg. It returns the path that was used, or "" when no file was found.
// An explicit configPath that does not exist is an error.
func Load(cfg *Config, configPath string) (string, error) {
	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return "", nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return "", err
	}
	if err := cf.ApplyTo(cfg); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	cfg.ConfigFilePath = path
	return path, nil
}
