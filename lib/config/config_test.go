// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/cutefs/lib/blockdev"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "cutefs.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Kind != "memory" {
		t.Errorf("expected kind=memory, got %s", cfg.Device.Kind)
	}
	if cfg.Device.BlockSize != 4096 || cfg.Device.BlockCount != 16384 {
		t.Errorf("expected 16384 blocks of 4096 bytes, got %d of %d", cfg.Device.BlockCount, cfg.Device.BlockSize)
	}
	if cfg.Image.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Image.Compression)
	}
	if !cfg.Image.SaveOnUnmount {
		t.Error("expected save_on_unmount=true")
	}

	// The defaults lack only a mountpoint.
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "mount.mountpoint") {
		t.Errorf("Validate() = %v, want mountpoint error", err)
	}
	cfg.Mount.Mountpoint = "/mnt/cutefs"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with mountpoint = %v", err)
	}
}

func TestLoad_RequiresCutefsConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when CUTEFS_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "CUTEFS_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithCutefsConfig(t *testing.T) {
	configPath := writeConfig(t, `
mount:
  mountpoint: /test/mnt
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Mount.Mountpoint != "/test/mnt" {
		t.Errorf("expected mountpoint=/test/mnt, got %s", cfg.Mount.Mountpoint)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
device:
  kind: file
  path: /var/lib/cutefs/device
  block_size: 512
  block_count: 1024
  verify: true

mount:
  mountpoint: /mnt/scratch
  allow_other: true

image:
  path: /var/lib/cutefs/volume.img
  compression: lz4
  identity_file: /etc/cutefs/identity
  save_on_unmount: false

log:
  level: debug
  format: json
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := blockdev.Config{
		Kind:       blockdev.KindFile,
		Path:       "/var/lib/cutefs/device",
		BlockCount: 1024,
		BlockSize:  512,
		Verify:     true,
	}
	if got := cfg.BlockDevice(); got != want {
		t.Errorf("BlockDevice() = %+v, want %+v", got, want)
	}
	if !cfg.Mount.AllowOther || cfg.Mount.Mountpoint != "/mnt/scratch" {
		t.Errorf("unexpected mount section %+v", cfg.Mount)
	}
	if cfg.Image.Compression != "lz4" || cfg.Image.SaveOnUnmount {
		t.Errorf("unexpected image section %+v", cfg.Image)
	}
	if level, err := cfg.Log.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v", level, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFile_KeepsDefaultsForMissingSections(t *testing.T) {
	configPath := writeConfig(t, `
mount:
  mountpoint: /mnt/x
`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Device.BlockSize != 4096 || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: %+v %+v", cfg.Device, cfg.Log)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}
	configPath := writeConfig(t, "device: [unterminated\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Error("malformed YAML loaded without error")
	}
}

func TestEnvVarsExpandOnlyInPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("CUTEFS_STATE", "/srv/state")

	configPath := writeConfig(t, `
device:
  kind: file
  path: ${CUTEFS_STATE}/device
mount:
  mountpoint: ${HOME}/mnt
image:
  path: ${CUTEFS_IMAGES:-/var/images}/volume.img
  compression: ${CUTEFS_COMPRESSION}
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Device.Path != "/srv/state/device" {
		t.Errorf("device.path = %s", cfg.Device.Path)
	}
	if cfg.Mount.Mountpoint != "/home/tester/mnt" {
		t.Errorf("mount.mountpoint = %s", cfg.Mount.Mountpoint)
	}
	if cfg.Image.Path != "/var/images/volume.img" {
		t.Errorf("image.path = %s", cfg.Image.Path)
	}
	// Non-path fields are taken literally.
	if cfg.Image.Compression != "${CUTEFS_COMPRESSION}" {
		t.Errorf("image.compression = %s", cfg.Image.Compression)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("CUTEFS_TEST_VAR", "from-env")

	vars := map[string]string{"HOME": "/home/vars"}
	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/x", "/home/vars/x"},
		{"${CUTEFS_TEST_VAR}", "from-env"},
		{"${CUTEFS_TEST_UNSET:-fallback}", "fallback"},
		{"${CUTEFS_TEST_UNSET}", ""},
		{"plain", "plain"},
		{"$HOME", "$HOME"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   []string
	}{
		{
			name:   "file device without path",
			modify: func(c *Config) { c.Device.Kind = "file" },
			want:   []string{"device.path is required"},
		},
		{
			name:   "unknown device kind",
			modify: func(c *Config) { c.Device.Kind = "tape" },
			want:   []string{"device.kind"},
		},
		{
			name: "bad geometry",
			modify: func(c *Config) {
				c.Device.BlockSize = 0
			},
			want: []string{"block size must be positive"},
		},
		{
			name:   "unknown compression",
			modify: func(c *Config) { c.Image.Compression = "brotli" },
			want:   []string{"image.compression"},
		},
		{
			name:   "bad recipient",
			modify: func(c *Config) { c.Image.Recipients = []string{"not-a-key"} },
			want:   []string{"image.recipients"},
		},
		{
			name: "several problems at once",
			modify: func(c *Config) {
				c.Mount.Mountpoint = ""
				c.Log.Level = "loud"
				c.Log.Format = "xml"
			},
			want: []string{"mount.mountpoint", "log.level", "log.format"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Mount.Mountpoint = "/mnt/cutefs"
			test.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded")
			}
			for _, fragment := range test.want {
				if !strings.Contains(err.Error(), fragment) {
					t.Errorf("error %q does not mention %q", err, fragment)
				}
			}
		})
	}
}
