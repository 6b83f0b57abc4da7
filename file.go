// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile reads the RAW file filename into memory and returns its content
// and the Format derived from its extension.
// Files larger than Options.MaxFileSize are rejected before they are read.
func ReadFile(filename string, opts Options) ([]byte, Format, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, FormatUnknown, fmt.Errorf("%w: %q", ErrNoExtension, filename)
	}
	format, err := FormatFromExtension(ext)
	if err != nil {
		return nil, FormatUnknown, err
	}

	fi, err := os.Stat(filename)
	if err != nil {
		return nil, format, err
	}
	if limit := opts.maxFileSize(); fi.Size() > limit {
		return nil, format, fmt.Errorf("%w: %q is %d bytes, max is %d", ErrTooLarge, filename, fi.Size(), limit)
	}

	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, format, err
	}
	return b, format, nil
}

// ExtractFile returns a copy of the embedded preview in the RAW file filename.
func ExtractFile(filename string, opts Options) ([]byte, error) {
	b, format, err := ReadFile(filename, opts)
	if err != nil {
		return nil, err
	}
	data, err := Extract(b, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	return data, nil
}
