// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/signal"
	"syscall"

	"filippo.io/age"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cutefs/cmd/cutefs/cli"
	"github.com/bureau-foundation/cutefs/lib/blockdev"
	"github.com/bureau-foundation/cutefs/lib/config"
	"github.com/bureau-foundation/cutefs/lib/cutefs"
	"github.com/bureau-foundation/cutefs/lib/fusefs"
	"github.com/bureau-foundation/cutefs/lib/image"
)

func mountCommand() *cli.Command {
	var (
		configPath string
		mountpoint string
		verbose    bool
		noSave     bool
	)
	return &cli.Command{
		Name:    "mount",
		Summary: "Serve a volume through FUSE until interrupted",
		Description: `Build the configured block device, mount a cutefs volume on it, and
serve it at the configured mountpoint.

If image.path names an existing image it is restored before serving.
On SIGINT or SIGTERM, or when the mount is removed externally, the
volume is saved back to image.path (unless image.save_on_unmount is
false or --no-save is given) and unmounted.`,
		Usage: "cutefs mount [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $CUTEFS_CONFIG)")
			flagSet.StringVar(&mountpoint, "mountpoint", "", "override mount.mountpoint")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
			flagSet.BoolVar(&noSave, "no-save", false, "do not save the image on unmount")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Mount with an explicit config file",
				Command:     "cutefs mount --config /etc/cutefs.yaml",
			},
			{
				Description: "Mount a throwaway volume somewhere else",
				Command:     "cutefs mount -c cutefs.yaml --mountpoint /tmp/scratch --no-save",
			},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			cfg, err := loadConfig(configPath, mountpoint)
			if err != nil {
				return err
			}
			if noSave {
				cfg.Image.SaveOnUnmount = false
			}
			logger, err := commandLogger(cfg, verbose)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger.With("command", "mount", "mountpoint", cfg.Mount.Mountpoint))
		},
	}
}

// serve runs one mount session: device, volume, restore, FUSE, save,
// unmount. It returns when ctx is cancelled or the kernel drops the
// mount.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	pool, err := openPool(cfg, logger)
	if err != nil {
		return err
	}
	volume, err := cutefs.Mount(cutefs.Options{Pool: pool, Logger: logger})
	if err != nil {
		pool.Close()
		return fmt.Errorf("mounting volume: %w", err)
	}
	defer func() {
		if unmountErr := volume.Unmount(); unmountErr != nil {
			err = errors.Join(err, fmt.Errorf("unmounting volume: %w", unmountErr))
		}
	}()

	identities, err := loadIdentities(cfg)
	if err != nil {
		return err
	}
	if err := restoreImage(volume, cfg, identities, logger); err != nil {
		return err
	}

	server, err := fusefs.Mount(fusefs.Options{
		Mountpoint: cfg.Mount.Mountpoint,
		Volume:     volume,
		AllowOther: cfg.Mount.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	served := make(chan struct{})
	go func() {
		server.Wait()
		close(served)
	}()

	select {
	case <-ctx.Done():
		logger.Info("signal received, unmounting")
		if err := server.Unmount(); err != nil {
			return fmt.Errorf("unmounting %s: %w", cfg.Mount.Mountpoint, err)
		}
		<-served
	case <-served:
		logger.Info("mount removed externally")
	}

	if cfg.Image.Path == "" || !cfg.Image.SaveOnUnmount {
		return nil
	}
	return saveImage(volume, cfg, logger)
}

// openPool builds the configured pool stack. Verification mismatches
// are logged as they are found; the engine itself sees them as failed
// reads.
func openPool(cfg *config.Config, logger *slog.Logger) (blockdev.Pool, error) {
	pool, err := blockdev.Open(cfg.BlockDevice())
	if err != nil {
		return nil, fmt.Errorf("opening block device: %w", err)
	}
	if verified, ok := pool.(*blockdev.VerifiedPool); ok {
		verified.OnMismatch(func(id blockdev.BlockID) {
			logger.Error("block failed verification", "block", id)
		})
	}
	logger.Info("block device ready",
		"kind", cfg.Device.Kind,
		"blocks", cfg.Device.BlockCount,
		"block_size", cfg.Device.BlockSize,
		"verify", cfg.Device.Verify,
	)
	return pool, nil
}

func loadIdentities(cfg *config.Config) ([]age.Identity, error) {
	if cfg.Image.IdentityFile == "" {
		return nil, nil
	}
	identities, err := image.LoadIdentities(cfg.Image.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("loading image identities: %w", err)
	}
	return identities, nil
}

// restoreImage restores image.path into volume. A missing image is
// the normal first run and is not an error.
func restoreImage(volume *cutefs.Volume, cfg *config.Config, identities []age.Identity, logger *slog.Logger) error {
	if cfg.Image.Path == "" {
		return nil
	}
	_, err := image.RestoreFile(volume, cfg.Image.Path, image.RestoreOptions{
		Identities: identities,
		Logger:     logger,
	})
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no image to restore", "image", cfg.Image.Path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring %s: %w", cfg.Image.Path, err)
	}
	return nil
}

func saveImage(volume *cutefs.Volume, cfg *config.Config, logger *slog.Logger) error {
	compression, err := image.ParseCompressionTag(cfg.Image.Compression)
	if err != nil {
		return err
	}
	recipients, err := image.ParseRecipients(cfg.Image.Recipients)
	if err != nil {
		return err
	}
	_, err = image.SaveFile(volume, cfg.Image.Path, image.SaveOptions{
		Compression: compression,
		Recipients:  recipients,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("saving %s: %w", cfg.Image.Path, err)
	}
	return nil
}
