// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// PreviewEXIF decodes the EXIF fields stored in a preview JPEG as returned by Extract.
// Most cameras only store a handful of fields (Make, Model, Orientation) in the preview.
func PreviewEXIF(b []byte) (map[string]string, error) {
	if !HasJPEGPrefix(b) {
		return nil, &DecodeError{Err: fmt.Errorf("missing JPEG SOI marker")}
	}
	x, err := exif.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	fields := make(exifFields)
	if err := x.Walk(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type exifFields map[string]string

func (f exifFields) Walk(name exif.FieldName, tag *tiff.Tag) error {
	f[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}
