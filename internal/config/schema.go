package config

import (
	"time"

	"spectrum-inventory/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Spectrum  SpectrumConfig  `yaml:"spectrum"`
	Translate TranslateConfig `yaml:"translate"`
	Defaults  DefaultsConfig  `yaml:"defaults,omitempty"`
	Export    ExportConfig    `yaml:"export"`
	Verify    VerifyConfig    `yaml:"verify"`
	Logging   logger.Config   `yaml:"logging"`
}

// SpectrumConfig holds the Spectrum server connection settings. Empty
// url/username/password fall back to SPECTRUM_* environment variables.
type SpectrumConfig struct {
	URL             string    `yaml:"url"`
	Username        string    `yaml:"username"`
	Password        string    `yaml:"password,omitempty"`
	Verify          bool      `yaml:"verify"`
	CAFile          string    `yaml:"ca_file,omitempty"`
	Proxy           string    `yaml:"proxy,omitempty"`
	Timeout         *Duration `yaml:"timeout,omitempty"`
	ThrottleSize    int       `yaml:"throttle_size,omitempty"`
	ExtraAttributes []string  `yaml:"extra_attributes,omitempty"` // "0x12345" or "0x12345=alias"
}

// TranslateConfig controls record translation
type TranslateConfig struct {
	// GenericFallback assigns generic/generic_telnet when no platform matches
	GenericFallback *bool `yaml:"generic_fallback,omitempty"`
}

// DefaultsConfig is copied into the inventory defaults
type DefaultsConfig struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ExportConfig selects the output
type ExportConfig struct {
	Format   string `yaml:"format"`
	Output   string `yaml:"output,omitempty"`   // file path, empty = stdout
	Database string `yaml:"database,omitempty"` // optional SQLite snapshot path
}

// VerifyConfig controls the post-load reachability check
type VerifyConfig struct {
	Timeout       *Duration `yaml:"timeout,omitempty"`
	HostKeys      bool      `yaml:"host_keys"`
	SNMPCommunity string    `yaml:"snmp_community,omitempty"` // empty disables the SNMP query
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
