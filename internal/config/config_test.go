package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Patterns) == 0 {
		t.Fatal("default patterns should not be empty")
	}
	if cfg.Signal != "SIGKILL" {
		t.Errorf("Signal = %q, want SIGKILL", cfg.Signal)
	}
	d, err := cfg.SettleDuration()
	if err != nil {
		t.Fatalf("SettleDuration: %v", err)
	}
	if d != 2*time.Second {
		t.Errorf("SettleDuration = %v, want 2s", d)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
patterns = ["worker_a", "worker_b"]
settle_delay = "500ms"
signal = "SIGTERM"
verify = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"worker_a", "worker_b"}, cfg.Patterns)
	require.Equal(t, "SIGTERM", cfg.Signal)
	require.True(t, cfg.Verify)
	// Omitted fields keep defaults.
	require.Equal(t, Default().DeviceGlobs, cfg.DeviceGlobs)

	d, err := cfg.SettleDuration()
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, d)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad signal", `signal = "SIGNOPE"`},
		{"bad delay", `settle_delay = "soon"`},
		{"negative delay", `settle_delay = "-2s"`},
		{"no patterns", `patterns = []`},
		{"bad toml", `patterns = [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestPrintRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(Default(), &buf))

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
