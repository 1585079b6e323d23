// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cutefs/cmd/cutefs/cli"
	"github.com/bureau-foundation/cutefs/lib/image"
)

func imageCommand() *cli.Command {
	return &cli.Command{
		Name:    "image",
		Summary: "Inspect saved volume images",
		Description: `Read volume image files without mounting them.

Encrypted images need the age identity file they were encrypted to,
given with --identity.`,
		Subcommands: []*cli.Command{
			imageListCommand(),
			imageVerifyCommand(),
			imageDumpCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List the entries of an image",
				Command:     "cutefs image ls /var/lib/cutefs/volume.img",
			},
			{
				Description: "Check every content digest of an encrypted image",
				Command:     "cutefs image verify --identity ~/.config/cutefs/key.txt volume.img",
			},
		},
	}
}

// imageFlags holds the flags shared by the image subcommands.
type imageFlags struct {
	identityFile string
}

func (f *imageFlags) flagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&f.identityFile, "identity", "i", "", "age identity file for encrypted images")
	return flagSet
}

func (f *imageFlags) restoreOptions() (image.RestoreOptions, error) {
	if f.identityFile == "" {
		return image.RestoreOptions{}, nil
	}
	identities, err := image.LoadIdentities(f.identityFile)
	if err != nil {
		return image.RestoreOptions{}, err
	}
	return image.RestoreOptions{Identities: identities}, nil
}

// inspectImage opens the single image named by args and lists it.
func (f *imageFlags) inspectImage(args []string) (string, *image.Listing, error) {
	if len(args) != 1 {
		return "", nil, fmt.Errorf("expected one image path, got %d arguments", len(args))
	}
	options, err := f.restoreOptions()
	if err != nil {
		return "", nil, err
	}
	file, err := os.Open(args[0])
	if err != nil {
		return "", nil, err
	}
	defer file.Close()
	listing, err := image.Inspect(file, options)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return args[0], listing, nil
}

func imageListCommand() *cli.Command {
	var flags imageFlags
	return &cli.Command{
		Name:    "ls",
		Summary: "List the entries of an image",
		Usage:   "cutefs image ls [flags] <image>",
		Flags:   func() *pflag.FlagSet { return flags.flagSet("ls") },
		Run: func(args []string) error {
			path, listing, err := flags.inspectImage(args)
			if err != nil {
				return err
			}
			renderListing(os.Stdout, path, listing, cli.IsTerminal(os.Stdout))
			return nil
		},
	}
}

func imageVerifyCommand() *cli.Command {
	var flags imageFlags
	return &cli.Command{
		Name:    "verify",
		Summary: "Verify every content digest of an image",
		Description: `Decode every record of an image and check each file's size and
BLAKE3 digest. Exits 1 when any record is corrupt.`,
		Usage: "cutefs image verify [flags] <image>",
		Flags: func() *pflag.FlagSet { return flags.flagSet("verify") },
		Run: func(args []string) error {
			path, listing, err := flags.inspectImage(args)
			if err != nil {
				return err
			}
			corrupt := listing.Corrupt()
			for _, entry := range corrupt {
				fmt.Printf("CORRUPT %s: %v\n", entry.Path, entry.Problem)
			}
			if len(corrupt) > 0 {
				fmt.Printf("%s: %d of %d records corrupt\n", path, len(corrupt), len(listing.Entries))
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("%s: %d records ok\n", path, len(listing.Entries))
			return nil
		},
	}
}

func imageDumpCommand() *cli.Command {
	var flags imageFlags
	return &cli.Command{
		Name:    "dump",
		Summary: "Print an image's records in CBOR diagnostic notation",
		Usage:   "cutefs image dump [flags] <image>",
		Flags:   func() *pflag.FlagSet { return flags.flagSet("dump") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one image path, got %d arguments", len(args))
			}
			options, err := flags.restoreOptions()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			return image.Dump(file, os.Stdout, options)
		},
	}
}
