// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/cutefs/lib/cutefs"
	"github.com/bureau-foundation/cutefs/lib/image"
)

// listingStyles colors the columns of "image ls". The plain set
// renders text unchanged and is used when stdout is not a terminal.
type listingStyles struct {
	header    lipgloss.Style
	directory lipgloss.Style
	file      lipgloss.Style
	size      lipgloss.Style
	digest    lipgloss.Style
	problem   lipgloss.Style
}

func newListingStyles(styled bool) listingStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return listingStyles{plain, plain, plain, plain, plain, plain}
	}
	return listingStyles{
		header:    lipgloss.NewStyle().Bold(true),
		directory: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		file:      lipgloss.NewStyle(),
		size:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		digest:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		problem:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// renderListing writes a header line and one row per entry: size,
// short digest, path. Directories end with a slash.
func renderListing(w io.Writer, name string, listing *image.Listing, styled bool) {
	styles := newListingStyles(styled)

	encryption := "plain"
	if listing.Encrypted {
		encryption = "encrypted"
	}
	fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%s: %d entries, %d blocks of %d bytes, %s, %s",
		name, len(listing.Entries), listing.Header.BlockCount, listing.Header.BlockSize,
		listing.Compression, encryption)))

	sizeWidth := 1
	for _, entry := range listing.Entries {
		sizeWidth = max(sizeWidth, len(fmt.Sprint(entry.Size)))
	}
	sizeStyle := styles.size.Width(sizeWidth).Align(lipgloss.Right)

	var line strings.Builder
	for _, entry := range listing.Entries {
		line.Reset()
		if entry.Type == cutefs.TypeDirectory {
			line.WriteString(sizeStyle.Render("-"))
			line.WriteString("  ")
			line.WriteString(styles.digest.Render(strings.Repeat(" ", 12)))
			line.WriteString("  ")
			line.WriteString(styles.directory.Render(entry.Path + "/"))
		} else {
			line.WriteString(sizeStyle.Render(fmt.Sprint(entry.Size)))
			line.WriteString("  ")
			line.WriteString(styles.digest.Render(shortDigest(entry.Digest)))
			line.WriteString("  ")
			line.WriteString(styles.file.Render(entry.Path))
		}
		if entry.Problem != nil {
			line.WriteString("  ")
			line.WriteString(styles.problem.Render(entry.Problem.Error()))
		}
		fmt.Fprintln(w, line.String())
	}
}

// shortDigest returns the first 12 hex digits of digest, padded for
// empty files.
func shortDigest(digest []byte) string {
	text := hex.EncodeToString(digest)
	if len(text) > 12 {
		return text[:12]
	}
	return text + strings.Repeat(" ", 12-len(text))
}
