// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bep/rawpreview"
	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Print the container structure and preview location of RAW files",
	Run:   info,
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

func info(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		gLog.Warning.Printf("%s", missingInput)
		return
	}
	opts := newOptions()
	for _, filename := range args {
		if err := printInfo(os.Stdout, filename, opts); err != nil {
			gLog.Error.Printf("%s: %v", filename, err)
		}
	}
}

func printInfo(w io.Writer, filename string, opts rawpreview.Options) error {
	b, format, err := rawpreview.ReadFile(filename, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s, %d bytes)\n", filename, format, len(b))

	if format.IsTIFF() {
		ifds, err := rawpreview.Directories(b, format, opts)
		if err != nil {
			return err
		}
		for i, ifd := range ifds {
			fmt.Fprintf(w, "  IFD%d at %d (%d tags)\n", i, ifd.Offset, len(ifd.Tags))
			for _, tag := range ifd.Tags {
				fmt.Fprintf(w, "    %-30s %s\n", tag.Name(format), tag)
			}
			for j, strip := range ifd.Strips() {
				gLog.Trace.Printf("IFD%d strip %d: offset %d length %d compression %d", i, j, strip.Offset, strip.Length, strip.Compression)
			}
		}
	}

	thumb, err := rawpreview.Locate(b, format, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  Preview: offset %d, length %d", thumb.Offset, thumb.Length)
	if thumb.Width > 0 {
		fmt.Fprintf(w, ", %dx%d", thumb.Width, thumb.Height)
	}
	fmt.Fprintln(w)

	preview, err := thumb.Bytes(b)
	if err != nil {
		return err
	}
	fields, err := rawpreview.PreviewEXIF(preview)
	if err != nil {
		gLog.Trace.Printf("%s: no EXIF in preview: %v", filename, err)
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-30s %s\n", name, fields[name])
	}
	return nil
}
