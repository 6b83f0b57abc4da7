// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package rawpreview extracts the embedded JPEG preview from camera RAW files
// (Canon CR2 and CR3, Nikon NEF and Sony ARW) without decoding the sensor data.
package rawpreview

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// FormatUnknown is the zero Format.
	FormatUnknown Format = iota
	// CR2 is the Canon RAW 2 format (TIFF based).
	CR2
	// CR3 is the Canon RAW 3 format (ISO Base Media File Format based).
	CR3
	// NEF is the Nikon Electronic Format (TIFF based).
	NEF
	// ARW is the Sony Alpha RAW format (TIFF based).
	ARW
)

// Extensions lists the file extensions we support, lower case and without the dot.
var Extensions = []string{"cr2", "cr3", "nef", "arw"}

// Format is a RAW file format.
type Format int

func (f Format) String() string {
	switch f {
	case CR2:
		return "CR2"
	case CR3:
		return "CR3"
	case NEF:
		return "NEF"
	case ARW:
		return "ARW"
	case FormatUnknown:
		return "FormatUnknown"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// IsTIFF reports whether f is a TIFF-derived format.
func (f Format) IsTIFF() bool {
	return f == CR2 || f == NEF || f == ARW
}

// maxIFDs is the default limit on the main IFD chain length.
func (f Format) maxIFDs() int {
	switch f {
	case CR2:
		return cr2MaxIFDs
	case ARW:
		return arwMaxIFDs
	default:
		return defaultMaxIFDs
	}
}

// FormatFromExtension returns the Format for the given file extension, e.g. "CR2" or ".nef".
func FormatFromExtension(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "cr2":
		return CR2, nil
	case "cr3":
		return CR3, nil
	case "nef":
		return NEF, nil
	case "arw":
		return ARW, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// 100 MiB should be plenty for any RAW file we want a preview from.
const defaultMaxFileSize = 100 << 20

// Options contains the options for the extraction functions.
// The zero value is ready to use.
type Options struct {
	// Warnf will be called for each warning, e.g. when a directory chain is cut short.
	Warnf func(string, ...any)

	// LimitDirectories is the maximum number of IFDs to visit in a directory chain.
	// If not set, a format specific default is used.
	LimitDirectories int

	// LimitBoxes is the maximum number of top-level boxes to visit in a CR3 file.
	// Default value is 6.
	LimitBoxes int

	// MaxFileSize is the maximum size in bytes of files read by ReadFile and friends.
	// Default value is 100 MiB.
	MaxFileSize int64

	// Resize, if set, scales decoded previews down so that neither side exceeds
	// this many pixels. The aspect ratio is preserved.
	Resize int
}

func (o Options) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}

func (o Options) limitIFDs(def int) int {
	if o.LimitDirectories > 0 {
		return o.LimitDirectories
	}
	return def
}

func (o Options) limitBoxes(def int) int {
	if o.LimitBoxes > 0 {
		return o.LimitBoxes
	}
	return def
}

func (o Options) maxFileSize() int64 {
	if o.MaxFileSize > 0 {
		return o.MaxFileSize
	}
	return defaultMaxFileSize
}

// Thumbnail describes where the embedded preview is stored in the file.
type Thumbnail struct {
	Offset int
	Length int

	// Width and Height are only set when the container stores them next to
	// the preview (CR3).
	Width  int
	Height int
}

// Bytes returns a copy of the preview bytes in b.
func (t Thumbnail) Bytes(b []byte) ([]byte, error) {
	v := newByteView(b, nil)
	data, err := v.slice(t.Offset, t.Length)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// previewLocator finds the embedded preview in a file of a given format.
type previewLocator interface {
	locate(b []byte, opts Options) (Thumbnail, error)
}

var locators = map[Format]previewLocator{
	CR2: locatorCR2{},
	CR3: locatorCR3{},
	NEF: locatorNEF{},
	ARW: locatorARW{},
}

// Locate finds the embedded preview in b, the complete content of a file in the given format.
// The returned Thumbnail refers to b; b is never modified.
func Locate(b []byte, format Format, opts Options) (Thumbnail, error) {
	l, found := locators[format]
	if !found {
		return Thumbnail{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return l.locate(b, opts)
}

// Extract returns a copy of the embedded preview in b.
func Extract(b []byte, format Format, opts Options) ([]byte, error) {
	t, err := Locate(b, format, opts)
	if err != nil {
		return nil, err
	}
	return t.Bytes(b)
}

// Directories returns the main IFD chain of a TIFF-derived file, in chain order.
func Directories(b []byte, format Format, opts Options) ([]IFD, error) {
	if !format.IsTIFF() {
		return nil, fmt.Errorf("%w: %s has no IFDs", ErrUnsupportedFormat, format)
	}
	d, err := newTIFFDecoder(b, format, opts)
	if err != nil {
		return nil, err
	}
	var ifds []IFD
	err = d.walkIFDs(d.header.FirstIFDOffset, opts.limitIFDs(format.maxIFDs()), func(i int, ifd IFD) (bool, error) {
		ifds = append(ifds, ifd)
		return false, nil
	})
	return ifds, err
}

// TagName returns the name of the tag with the given ID, taking format specific names into account.
// Unknown tags are named UnknownTag_0xNNNN.
func TagName(format Format, id uint16) string {
	return tagName(format, id)
}

var jpegSOI = []byte{0xff, 0xd8}

// HasJPEGPrefix reports whether b starts with the JPEG start of image marker.
func HasJPEGPrefix(b []byte) bool {
	return bytes.HasPrefix(b, jpegSOI)
}
