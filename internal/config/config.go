// Package config loads the camstop configuration file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Kgotso-Koete/camstop/internal/procs"
)

// Config represents the main configuration.
type Config struct {
	// Patterns are matched as substrings against full command lines.
	// Order reflects kill priority.
	Patterns []string `toml:"patterns"`

	// DeviceGlobs name the camera device nodes whose holders are killed.
	DeviceGlobs []string `toml:"device_globs"`

	// SettleDelay is a duration string, e.g. "2s".
	SettleDelay string `toml:"settle_delay"`

	// Signal is the signal delivered to every target, e.g. "SIGKILL".
	Signal string `toml:"signal"`

	// Verify polls for survivors instead of sleeping the full delay.
	Verify bool `toml:"verify"`
}

// Default returns the built-in configuration: the security camera app, its
// helper test scripts, the camera stack, and the video device nodes.
func Default() *Config {
	return &Config{
		Patterns: []string{
			"security_mate",
			"quick-camera-test.py",
			"quick-pir-sensor-test.py",
			"libcamera",
		},
		DeviceGlobs: []string{"/dev/video*", "/dev/media*"},
		SettleDelay: "2s",
		Signal:      "SIGKILL",
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "camstop", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "camstop", "config.toml")
}

// Load reads the config file at path, or the default path when path is
// empty. A missing file is not an error: defaults are returned. Fields the
// file omits keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that are parsed lazily elsewhere.
func (c *Config) Validate() error {
	if _, err := c.SettleDuration(); err != nil {
		return err
	}
	if _, err := procs.ParseSignal(c.Signal); err != nil {
		return err
	}
	if len(c.Patterns) == 0 {
		return fmt.Errorf("patterns must not be empty")
	}
	return nil
}

// SettleDuration parses the settle delay.
func (c *Config) SettleDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid settle_delay %q: %w", c.SettleDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid settle_delay %q: must not be negative", c.SettleDelay)
	}
	return d, nil
}

// CreateDefault writes the default configuration file and returns its path.
// Refuses to overwrite an existing file.
func CreateDefault() (string, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Print(Default(), f); err != nil {
		return "", err
	}
	return path, nil
}

// Print writes cfg as TOML.
func Print(cfg *Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}
