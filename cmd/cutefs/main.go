// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/cutefs/cmd/cutefs/cli"
	"github.com/bureau-foundation/cutefs/lib/version"
)

func main() {
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		// Commands that print their own result (image verify) return
		// an ExitError; don't add an "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "cutefs",
		Description: `cutefs: a small in-memory hierarchical filesystem.

Volumes live in a fixed pool of blocks and are served through FUSE.
Because the pool is volatile, a volume can be saved to an image file
at unmount and restored from it at the next mount.`,
		Subcommands: []*cli.Command{
			mountCommand(),
			imageCommand(),
			configCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("cutefs %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
