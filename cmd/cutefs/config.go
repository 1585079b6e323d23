// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cutefs/cmd/cutefs/cli"
	"github.com/bureau-foundation/cutefs/lib/config"
)

// loadConfig loads path, or CUTEFS_CONFIG when path is empty, and
// validates the result. A non-empty mountpoint replaces the file's
// before validation, so the flag can supply a missing one.
func loadConfig(path, mountpoint string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if mountpoint != "" {
		cfg.Mount.Mountpoint = mountpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config:\n%w", err)
	}
	return cfg, nil
}

// commandLogger builds the logger described by the log section, at
// debug level when verbose is set.
func commandLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return cli.NewCommandLogger(cli.LoggerOptions{Level: level, Format: cfg.Log.Format})
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect configuration files",
		Subcommands: []*cli.Command{
			configCheckCommand(),
		},
	}
}

func configCheckCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "check",
		Summary: "Load and validate a config file",
		Usage:   "cutefs config check [--config path]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $CUTEFS_CONFIG)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			cfg, err := loadConfig(configPath, "")
			if err != nil {
				return err
			}
			fmt.Printf("config ok: %s device, %d blocks of %d bytes, mountpoint %s\n",
				cfg.Device.Kind, cfg.Device.BlockCount, cfg.Device.BlockSize, cfg.Mount.Mountpoint)
			return nil
		},
	}
}
