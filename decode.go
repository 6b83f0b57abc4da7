// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// DecodeImage decodes preview bytes as returned by Extract.
// If Options.Resize is set, the image is scaled down to fit within Resize x Resize pixels.
// Decoding errors are returned as a *DecodeError.
func DecodeImage(b []byte, opts Options) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if opts.Resize > 0 {
		img = resize(img, opts.Resize)
	}
	return img, nil
}

// DecodeFile extracts and decodes the embedded preview in the RAW file filename.
func DecodeFile(filename string, opts Options) (image.Image, error) {
	b, err := ExtractFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return DecodeImage(b, opts)
}

// resize scales img so that its longest side is size pixels.
// Images that already fit are returned as is.
func resize(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= size && h <= size {
		return img
	}

	if w >= h {
		h = size * h / w
		w = size
	} else {
		w = size * w / h
		h = size
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
