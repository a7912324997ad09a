// Package config provides configuration management for portman: where the
// ports tree, triplet files, installed trees and binary cache live, and which
// triplets builds target by default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/triplet"
)

// ManifestFileName is the project manifest that switches a directory into
// manifest mode. The upgrade command rejects manifest mode outright.
const ManifestFileName = "portman.yaml"

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// CacheConfig selects and configures the binary cache backend. When S3 is
// configured it wins over the local directory.
type CacheConfig struct {
	Dir string    `yaml:"dir,omitempty"`
	S3  *S3Config `yaml:"s3,omitempty"`
}

// S3Config holds the remote binary cache settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Settings represents general application settings.
type Settings struct {
	PortsDir       string      `yaml:"ports_dir,omitempty"`
	TripletsDir    string      `yaml:"triplets_dir,omitempty"`
	InstalledRoot  string      `yaml:"installed_root,omitempty"`
	BuildtreesDir  string      `yaml:"buildtrees_dir,omitempty"`
	DefaultTriplet string      `yaml:"default_triplet,omitempty"`
	HostTriplet    string      `yaml:"host_triplet,omitempty"`
	Cache          CacheConfig `yaml:"cache,omitempty"`
	BuildLogsPath  string      `yaml:"build_logs_path,omitempty"`
	LogLevel       string      `yaml:"log_level"` // error, warn, info, debug
}

// DefaultConfig returns a configuration with sensible defaults rooted in the
// user's data directory, targeting the triplet of the running machine.
func DefaultConfig() *Config {
	root := userDataDir()
	host := HostTriplet()
	return &Config{
		Settings: Settings{
			PortsDir:       filepath.Join(root, "ports"),
			TripletsDir:    filepath.Join(root, "triplets"),
			InstalledRoot:  filepath.Join(root, "installed"),
			BuildtreesDir:  filepath.Join(root, "buildtrees"),
			DefaultTriplet: host,
			HostTriplet:    host,
			Cache:          CacheConfig{Dir: filepath.Join(root, "archives")},
			LogLevel:       "info",
		},
	}
}

// HostTriplet derives the triplet of the running machine, e.g. "x64-linux".
func HostTriplet() string {
	return triplet.NormalizeArch(runtime.GOARCH) + "-" + triplet.NormalizeOS(runtime.GOOS)
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "portman", "config.yaml"), nil
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks configured triplets and required directories.
func (c *Config) Validate() error {
	if err := triplet.Validate(c.Settings.DefaultTriplet); err != nil {
		return errors.Wrap(err, "default_triplet")
	}
	if err := triplet.Validate(c.Settings.HostTriplet); err != nil {
		return errors.Wrap(err, "host_triplet")
	}
	if c.Settings.PortsDir == "" {
		return errors.Wrap(errors.ErrConfigValidation, "ports_dir cannot be empty")
	}
	return nil
}

// StatusDBPath returns the status database location under the installed root.
func (c *Config) StatusDBPath() string {
	return filepath.Join(c.Settings.InstalledRoot, "status.json")
}

// ManifestModeEnabled reports whether dir contains a project manifest.
func ManifestModeEnabled(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFileName))
	return err == nil
}

func userDataDir() string {
	if dir := os.Getenv("PORTMAN_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "portman")
}
