// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// byteView provides bounds checked reads of fixed width values from an
// in-memory file. The underlying buffer is never modified.
type byteView struct {
	b         []byte
	byteOrder binary.ByteOrder
}

func newByteView(b []byte, byteOrder binary.ByteOrder) byteView {
	return byteView{b: b, byteOrder: byteOrder}
}

func (v byteView) len() int {
	return len(v.b)
}

// check verifies that [off, off+n) is inside the buffer.
// Written to avoid integer overflow for offsets read from the file.
func (v byteView) check(off, n int) error {
	if off < 0 || n < 0 || off > len(v.b) || n > len(v.b)-off {
		return newOutOfBoundsErrorf("read of %d bytes at offset %d (buffer size %d)", n, off, len(v.b))
	}
	return nil
}

func (v byteView) read1(off int) (uint8, error) {
	if err := v.check(off, 1); err != nil {
		return 0, err
	}
	return v.b[off], nil
}

func (v byteView) read2(off int) (uint16, error) {
	const n = 2
	if err := v.check(off, n); err != nil {
		return 0, err
	}
	return v.byteOrder.Uint16(v.b[off : off+n]), nil
}

func (v byteView) read4(off int) (uint32, error) {
	const n = 4
	if err := v.check(off, n); err != nil {
		return 0, err
	}
	return v.byteOrder.Uint32(v.b[off : off+n]), nil
}

func (v byteView) read8(off int) (uint64, error) {
	const n = 8
	if err := v.check(off, n); err != nil {
		return 0, err
	}
	return v.byteOrder.Uint64(v.b[off : off+n]), nil
}

// readUint reads an unsigned integer of the given width (1, 2, 4 or 8 bytes).
func (v byteView) readUint(off, width int) (uint64, error) {
	switch width {
	case 1:
		n, err := v.read1(off)
		return uint64(n), err
	case 2:
		n, err := v.read2(off)
		return uint64(n), err
	case 4:
		n, err := v.read4(off)
		return uint64(n), err
	case 8:
		return v.read8(off)
	default:
		return 0, newOutOfBoundsErrorf("unsupported integer width %d", width)
	}
}

// truncate returns a view of the first n bytes, or all of them if n is larger.
func (v byteView) truncate(n int) byteView {
	if n < 0 || n >= len(v.b) {
		return v
	}
	return byteView{b: v.b[:n:n], byteOrder: v.byteOrder}
}

// slice returns b[off:off+n] without copying.
func (v byteView) slice(off, n int) ([]byte, error) {
	if err := v.check(off, n); err != nil {
		return nil, err
	}
	return v.b[off : off+n : off+n], nil
}

// readString reads n bytes at off as text, trimming trailing NUL padding.
// Values that are not valid UTF-8 are decoded as ISO-8859-1, which is what
// most cameras write into ASCII tags.
func (v byteView) readString(off, n int) (string, error) {
	b, err := v.slice(off, n)
	if err != nil {
		return "", err
	}
	return decodeText(b), nil
}

func decodeText(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
