// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
	"github.com/bureau-foundation/cutefs/lib/image"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "CUTEFS_CONFIG"

// Config is the configuration for the cutefs binary.
type Config struct {
	// Device configures the block pool the volume is built on.
	Device DeviceConfig `yaml:"device"`

	// Mount configures the FUSE mount.
	Mount MountConfig `yaml:"mount"`

	// Image configures saving and restoring volume images.
	Image ImageConfig `yaml:"image"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`
}

// DeviceConfig configures the block device.
type DeviceConfig struct {
	// Kind is "memory" or "file".
	// Default: memory
	Kind string `yaml:"kind"`

	// Path is the device file for kind "file". Created if missing.
	Path string `yaml:"path"`

	// BlockSize is the size of one block in bytes.
	// Default: 4096
	BlockSize int `yaml:"block_size"`

	// BlockCount is the number of blocks in the device.
	// Default: 16384 (64 MiB at the default block size)
	BlockCount int `yaml:"block_count"`

	// Verify checksums every block and fails reads of blocks that
	// changed underneath the engine.
	Verify bool `yaml:"verify"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// Mountpoint is the directory the volume is served at.
	Mountpoint string `yaml:"mountpoint"`

	// AllowOther lets other users access the mount.
	AllowOther bool `yaml:"allow_other"`
}

// ImageConfig configures volume images.
type ImageConfig struct {
	// Path is the image restored at mount and saved at unmount. Empty
	// disables both.
	Path string `yaml:"path"`

	// Compression is "none", "lz4", or "zstd".
	// Default: zstd
	Compression string `yaml:"compression"`

	// Recipients are age X25519 public keys. When set, saved images
	// are encrypted to them.
	Recipients []string `yaml:"recipients"`

	// IdentityFile holds the age identities used to decrypt images.
	IdentityFile string `yaml:"identity_file"`

	// SaveOnUnmount saves the volume to Path before unmounting.
	// Default: true
	SaveOnUnmount bool `yaml:"save_on_unmount"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: info
	Level string `yaml:"level"`

	// Format is "auto", "text", or "json". Auto picks text on a
	// terminal and JSON otherwise.
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the default configuration. Every field has a usable
// value except the mountpoint, which the file must supply.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Kind:       string(blockdev.KindMemory),
			BlockSize:  4096,
			BlockCount: 16384,
		},
		Image: ImageConfig{
			Compression:   "zstd",
			SaveOnUnmount: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the CUTEFS_CONFIG environment variable.
// There is no fallback search: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your cutefs.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// [Default]. Environment variables never override values; the only
// expansion is ${VAR} and ${VAR:-default} inside path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Device.Path = expandVars(c.Device.Path, vars)
	c.Mount.Mountpoint = expandVars(c.Mount.Mountpoint, vars)
	c.Image.Path = expandVars(c.Image.Path, vars)
	c.Image.IdentityFile = expandVars(c.Image.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch blockdev.Kind(c.Device.Kind) {
	case blockdev.KindMemory:
	case blockdev.KindFile:
		if c.Device.Path == "" {
			errs = append(errs, fmt.Errorf("device.path is required for kind %q", c.Device.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("device.kind must be one of: [memory file], got %q", c.Device.Kind))
	}
	geometry := blockdev.Geometry{BlockCount: c.Device.BlockCount, BlockSize: c.Device.BlockSize}
	if err := geometry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("device: %w", err))
	}

	if c.Mount.Mountpoint == "" {
		errs = append(errs, fmt.Errorf("mount.mountpoint is required"))
	}

	if _, err := image.ParseCompressionTag(c.Image.Compression); err != nil {
		errs = append(errs, fmt.Errorf("image.compression: %w", err))
	}
	if len(c.Image.Recipients) > 0 {
		if _, err := image.ParseRecipients(c.Image.Recipients); err != nil {
			errs = append(errs, fmt.Errorf("image.recipients: %w", err))
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	return errors.Join(errs...)
}

// BlockDevice returns the pool configuration for [blockdev.Open].
func (c *Config) BlockDevice() blockdev.Config {
	return blockdev.Config{
		Kind:       blockdev.Kind(c.Device.Kind),
		Path:       c.Device.Path,
		BlockCount: c.Device.BlockCount,
		BlockSize:  c.Device.BlockSize,
		Verify:     c.Device.Verify,
	}
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
