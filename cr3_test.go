// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLocateCR3(t *testing.T) {
	c := qt.New(t)

	ftyp := testBox("ftyp", []byte("crx \x00\x00\x00\x01"))
	jpg := testBytes(200, 0xab)

	var buf bytes.Buffer
	buf.Write(ftyp)
	buf.Write(testUUIDBox(uuidPreview, testPRVW(160, 120, jpg)))

	thumb, err := Locate(buf.Bytes(), CR3, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(thumb, qt.Equals, Thumbnail{
		Offset: len(ftyp) + boxHeaderLen + uuidLen + prvwDataOffset,
		Length: 200,
		Width:  160,
		Height: 120,
	})

	data, err := Extract(buf.Bytes(), CR3, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, jpg)
}

func TestLocateCR3SkipsBoxes(t *testing.T) {
	c := qt.New(t)

	jpg := testBytes(32, 0xcd)

	c.Run("Movie and XMP", func(c *qt.C) {
		var buf bytes.Buffer
		buf.Write(testBox("ftyp", []byte("crx ")))
		buf.Write(testUUIDBox(uuidMovie, testBytes(100, 0)))
		buf.Write(testUUIDBox("be7acfcb97a942e89c71999491e3afac", []byte("<x:xmpmeta/>")))
		buf.Write(testUUIDBox(uuidPreview, testPRVW(16, 8, jpg)))
		buf.Write(testBox("mdat", testBytes(64, 0)))

		data, err := Extract(buf.Bytes(), CR3, Options{})
		c.Assert(err, qt.IsNil)
		c.Assert(data, qt.DeepEquals, jpg)
	})

	c.Run("Large size", func(c *qt.C) {
		var buf bytes.Buffer
		var large []byte
		large = binary.BigEndian.AppendUint32(large, 1)
		large = append(large, "free"...)
		large = binary.BigEndian.AppendUint64(large, boxLargeHeaderLen+10)
		large = append(large, testBytes(10, 0)...)
		buf.Write(large)
		buf.Write(testUUIDBox(uuidPreview, testPRVW(16, 8, jpg)))

		thumb, err := Locate(buf.Bytes(), CR3, Options{})
		c.Assert(err, qt.IsNil)
		c.Assert(thumb.Offset, qt.Equals, len(large)+boxHeaderLen+uuidLen+prvwDataOffset)
		c.Assert(thumb.Length, qt.Equals, len(jpg))
	})
}

func TestLocateCR3NotFound(t *testing.T) {
	c := qt.New(t)

	jpg := testBytes(32, 0xcd)

	c.Run("Movie only", func(c *qt.C) {
		b := append(testBox("ftyp", []byte("crx ")), testUUIDBox(uuidMovie, testBytes(100, 0))...)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
	})

	c.Run("Box extends to end of file", func(c *qt.C) {
		var b []byte
		b = binary.BigEndian.AppendUint32(b, 0)
		b = append(b, "mdat"...)
		b = append(b, testUUIDBox(uuidPreview, testPRVW(16, 8, jpg))...)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
	})

	c.Run("Box runs past end of file", func(c *qt.C) {
		b := testBox("ftyp", []byte("crx "))
		binary.BigEndian.PutUint32(b, 1000)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
	})

	c.Run("Truncated header", func(c *qt.C) {
		b := append(testBox("ftyp", []byte("crx ")), 0, 0, 0)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
	})

	c.Run("Empty", func(c *qt.C) {
		_, err := Locate(nil, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
	})

	c.Run("Box limit", func(c *qt.C) {
		var warnings []string
		opts := Options{Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}}

		var buf bytes.Buffer
		for i := 0; i < cr3MaxBoxes; i++ {
			buf.Write(testBox("free", nil))
		}
		buf.Write(testUUIDBox(uuidPreview, testPRVW(16, 8, jpg)))

		_, err := Locate(buf.Bytes(), CR3, opts)
		c.Assert(err, qt.ErrorIs, ErrThumbnailNotFound)
		c.Assert(warnings, qt.HasLen, 1)

		opts.LimitBoxes = cr3MaxBoxes + 1
		data, err := Extract(buf.Bytes(), CR3, opts)
		c.Assert(err, qt.IsNil)
		c.Assert(data, qt.DeepEquals, jpg)
	})
}

func TestLocateCR3Invalid(t *testing.T) {
	c := qt.New(t)

	c.Run("Box smaller than its header", func(c *qt.C) {
		b := testBox("ftyp", []byte("crx "))
		binary.BigEndian.PutUint32(b, 4)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrMalformedHeader)
	})

	c.Run("Preview outside of file", func(c *qt.C) {
		b := testUUIDBox(uuidPreview, testPRVW(16, 8, testBytes(32, 0)))
		// Claim more JPEG bytes than there are.
		binary.BigEndian.PutUint32(b[boxHeaderLen+uuidLen+prvwSizeOffset:], 1<<20)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
	})

	c.Run("Truncated PRVW record", func(c *qt.C) {
		b := testUUIDBox(uuidPreview, testBytes(10, 0))
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
	})
}

func TestLocateCR3ReadsStayInBox(t *testing.T) {
	c := qt.New(t)

	jpg := testBytes(32, 0xcd)

	c.Run("uuid box without uuid", func(c *qt.C) {
		b := append(testBox("uuid", nil), testUUIDBox(uuidPreview, testPRVW(16, 8, jpg))...)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
	})

	c.Run("JPEG larger than its box", func(c *qt.C) {
		b := testUUIDBox(uuidPreview, testPRVW(16, 8, jpg))
		binary.BigEndian.PutUint32(b, uint32(len(b)-16))
		b = append(b, testBox("mdat", testBytes(64, 0))...)
		_, err := Locate(b, CR3, Options{})
		c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
	})
}

func TestParseBoxHeader(t *testing.T) {
	c := qt.New(t)

	b := append(testBox("ftyp", []byte("crx ")), testBytes(4, 0)...)
	v := newByteView(b, binary.BigEndian)

	bx, err := parseBoxHeader(v, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(bx.typ.String(), qt.Equals, "ftyp")
	c.Assert(bx.size, qt.Equals, 12)
	c.Assert(bx.payloadOffset(), qt.Equals, boxHeaderLen)

	_, err = parseBoxHeader(v, 12)
	c.Assert(err, qt.ErrorIs, ErrOutOfBounds)

	var large []byte
	large = binary.BigEndian.AppendUint32(large, 1)
	large = append(large, "mdat"...)
	large = binary.BigEndian.AppendUint64(large, 1<<40)
	_, err = parseBoxHeader(newByteView(large, binary.BigEndian), 0)
	c.Assert(err, qt.ErrorIs, ErrOutOfBounds)
}
