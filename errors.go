// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned when the container header (TIFF header or box header)
	// does not match the expected layout.
	ErrMalformedHeader = errors.New("rawpreview: malformed header")

	// ErrMalformedDirectory is returned when an IFD is truncated or otherwise broken.
	ErrMalformedDirectory = errors.New("rawpreview: malformed directory")

	// ErrOutOfBounds is returned when an offset/length read from the file points past the end of the buffer.
	ErrOutOfBounds = errors.New("rawpreview: out of bounds")

	// ErrThumbnailNotFound is returned when the container was parsed but no embedded preview was found.
	ErrThumbnailNotFound = errors.New("rawpreview: thumbnail not found")

	// ErrUnsupportedFormat is returned for file extensions or formats we don't handle.
	ErrUnsupportedFormat = errors.New("rawpreview: unsupported format")

	// ErrTooLarge is returned by the file loader when the file exceeds Options.MaxFileSize.
	ErrTooLarge = errors.New("rawpreview: file too large")

	// ErrNoExtension is returned by the file loader when the filename has no extension.
	ErrNoExtension = errors.New("rawpreview: missing file extension")
)

// DecodeError is returned when the extracted preview bytes could not be decoded as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rawpreview: decode preview: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeFailure reports whether err was caused by the image decoder.
func IsDecodeFailure(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsInvalidFormat reports whether err signals a structurally broken file,
// i.e. a malformed header or directory, or an offset outside of the buffer.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrMalformedDirectory) ||
		errors.Is(err, ErrOutOfBounds)
}

func newOutOfBoundsErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOutOfBounds, fmt.Sprintf(format, args...))
}

func newNotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrThumbnailNotFound, fmt.Sprintf(format, args...))
}
