// Package config provides configuration management for spectrum-inventory.
//
// A -config flag names the file directly. Without it the first existing
// file of these is used:
//  1. $SPECTRUM_INVENTORY_CONFIG
//  2. ./spectrum-inventory.yaml
//  3. $XDG_CONFIG_HOME/spectrum-inventory/config.yaml
//  4. ~/.config/spectrum-inventory/config.yaml
//  5. /etc/spectrum-inventory/config.yaml
//
// Spectrum credentials may instead come from SPECTRUM_URL,
// SPECTRUM_USERNAME and SPECTRUM_PASSWORD.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/spectrum"
)

const (
	defaultFormat        = "yaml"
	defaultVerifyTimeout = 5 * time.Second
)

// Load reads the config file chosen by ResolvePath. It returns defaults
// and an empty path when explicit is empty and no file is found.
func Load(explicit string) (*Config, string, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns defaults used when no config file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Translate.GenericFallback == nil {
		enabled := true
		c.Translate.GenericFallback = &enabled
	}
	if c.Export.Format == "" {
		c.Export.Format = defaultFormat
	}
	if c.Verify.Timeout == nil {
		d := Duration(defaultVerifyTimeout)
		c.Verify.Timeout = &d
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}

// SpectrumClientConfig converts the spectrum section into client settings,
// applying environment fallbacks
func (c *Config) SpectrumClientConfig() spectrum.Config {
	sc := spectrum.Config{
		URL:             c.Spectrum.URL,
		Username:        c.Spectrum.Username,
		Password:        c.Spectrum.Password,
		Verify:          c.Spectrum.Verify,
		CAFile:          c.Spectrum.CAFile,
		Proxy:           c.Spectrum.Proxy,
		ThrottleSize:    c.Spectrum.ThrottleSize,
		ExtraAttributes: c.Spectrum.ExtraAttributes,
	}
	if c.Spectrum.Timeout != nil {
		sc.Timeout = c.Spectrum.Timeout.Duration()
	}
	sc.ApplyEnvironment()
	return sc
}

// GenericFallback reports whether unmatched platforms get generic identifiers
func (c *Config) GenericFallback() bool {
	return c.Translate.GenericFallback == nil || *c.Translate.GenericFallback
}

// InventoryDefaults returns the inventory-wide defaults
func (c *Config) InventoryDefaults() domain.Defaults {
	return domain.Defaults{
		Username: c.Defaults.Username,
		Password: c.Defaults.Password,
	}
}

// VerifyTimeout returns the per-host connection timeout
func (c *Config) VerifyTimeout() time.Duration {
	if c.Verify.Timeout == nil {
		return defaultVerifyTimeout
	}
	return c.Verify.Timeout.Duration()
}

// Summary returns a human-readable config summary without secrets
func (c *Config) Summary() string {
	sc := c.SpectrumClientConfig()
	return fmt.Sprintf("Spectrum: %s (user=%s, verify=%v), format=%s, generic_fallback=%v",
		sc.URL, sc.Username, sc.Verify, c.Export.Format, c.GenericFallback())
}
