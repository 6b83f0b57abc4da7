// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

//go:generate go run main.go
package main

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Writes the preview exiftool extracts from each RAW file in ../testdata/images
// to testdata_exiftool/<path>.jpg, used as golden files by TestExtractGolden.
func main() {
	outDir := "testdata_exiftool"
	os.RemoveAll(outDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	base := "../testdata"

	if err := filepath.Walk(filepath.Join(base, "images"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		tag, found := previewTags[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
		if !found {
			return nil
		}

		basePath := strings.TrimPrefix(path, base)

		var buf bytes.Buffer
		cmd := exec.Command("exiftool", "-b", "-"+tag, path)
		cmd.Stdout = &buf
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return err
		}
		if buf.Len() == 0 {
			log.Printf("no %s in %s", tag, path)
			return nil
		}

		outFilename := filepath.Join(outDir, basePath+".jpg")
		if err := os.MkdirAll(filepath.Dir(outFilename), 0o755); err != nil {
			return err
		}

		return os.WriteFile(outFilename, buf.Bytes(), 0o644)
	}); err != nil {
		log.Fatal(err)
	}
}

// The exiftool tag holding the preview we extract, per file extension.
// CR2 is left out, exiftool has no tag for the strip data in IFD1.
var previewTags = map[string]string{
	"cr3": "PreviewImage",
	"arw": "PreviewImage",
	"nef": "JpgFromRaw",
}
