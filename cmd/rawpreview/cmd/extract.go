// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/rawpreview"
	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Write the embedded preview of each RAW file to a JPEG file",
	Long: `Write the embedded preview of each RAW file to <name>.jpg.

Without --resize the preview bytes are written as stored in the RAW file.
With --resize the preview is decoded, scaled down and re-encoded.`,
	Run: extract,
}

func init() {
	RootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "output directory (default: next to the RAW file)")
	extractCmd.Flags().IntP("resize", "r", 0, "scale the preview to fit within this many pixels")
	extractCmd.Flags().IntP("quality", "q", jpeg.DefaultQuality, "JPEG quality used when resizing")
	viper.BindPFlag("output", extractCmd.Flags().Lookup("output"))
	viper.BindPFlag("resize", extractCmd.Flags().Lookup("resize"))
	viper.BindPFlag("quality", extractCmd.Flags().Lookup("quality"))
}

func extract(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		gLog.Warning.Printf("%s", missingInput)
		return
	}

	opts := newOptions()
	var failed int
	for _, filename := range args {
		target, err := extractOne(filename, opts)
		if err != nil {
			gLog.Error.Printf("%v", err)
			failed++
			continue
		}
		gLog.Info.Printf("Wrote preview of %s to %s", filename, target)
	}
	if failed > 0 {
		gLog.Error.Printf("%d of %d files failed", failed, len(args))
		os.Exit(1)
	}
}

func extractOne(filename string, opts rawpreview.Options) (string, error) {
	b, err := rawpreview.ExtractFile(filename, opts)
	if err != nil {
		return "", err
	}
	if !rawpreview.HasJPEGPrefix(b) {
		gLog.Warning.Printf("preview of %s does not start with a JPEG SOI marker", filename)
	}

	if opts.Resize > 0 {
		img, err := rawpreview.DecodeImage(b, opts)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: viper.GetInt("quality")}); err != nil {
			return "", err
		}
		b = buf.Bytes()
	}

	dir := viper.GetString("output")
	if dir == "" {
		dir = filepath.Dir(filename)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(filename)
	target := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".jpg")
	return target, os.WriteFile(target, b, 0o644)
}
