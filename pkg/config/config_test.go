package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/portman/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("PORTMAN_HOME", t.TempDir())

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.Settings.DefaultTriplet, cfg.Settings.HostTriplet)
	assert.NotEmpty(t, cfg.Settings.PortsDir)
	assert.NotEmpty(t, cfg.Settings.Cache.Dir)
	assert.Equal(t, "info", cfg.Settings.LogLevel)
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := LoadConfig("")
		require.ErrorIs(t, err, errors.ErrEmptyConfigPath)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Settings.LogLevel, cfg.Settings.LogLevel)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
settings:
  ports_dir: /srv/ports
  default_triplet: arm64-osx
  log_level: debug
`), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/srv/ports", cfg.Settings.PortsDir)
		assert.Equal(t, "arm64-osx", cfg.Settings.DefaultTriplet)
		assert.Equal(t, "debug", cfg.Settings.LogLevel)
		assert.NotEmpty(t, cfg.Settings.InstalledRoot, "unset fields keep their defaults")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("settings: [broken"), 0o644))
		_, err := LoadConfig(path)
		require.ErrorIs(t, err, errors.ErrConfigParse)
	})

	t.Run("invalid triplet rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("settings:\n  default_triplet: Not-Valid\n"), 0o644))
		_, err := LoadConfig(path)
		require.ErrorIs(t, err, errors.ErrInvalidTriplet)
	})
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	t.Setenv("PORTMAN_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Settings.DefaultTriplet = "x86-windows"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "x86-windows", loaded.Settings.DefaultTriplet)
}

func TestConfig_StatusDBPath(t *testing.T) {
	cfg := &Config{Settings: Settings{InstalledRoot: "/data/installed"}}
	assert.Equal(t, filepath.Join("/data/installed", "status.json"), cfg.StatusDBPath())
}

func TestManifestModeEnabled(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, ManifestModeEnabled(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("dependencies: []\n"), 0o644))
	assert.True(t, ManifestModeEnabled(dir))
}

func TestHostTriplet(t *testing.T) {
	host := HostTriplet()
	assert.Contains(t, host, "-")
	assert.Equal(t, host, DefaultConfig().Settings.HostTriplet)
}
