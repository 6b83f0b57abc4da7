// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Canon CR3 is an ISO Base Media File Format container.
// See https://github.com/lclevy/canon_cr3
const (
	// The preview is one of the first top-level boxes (ftyp, moov, uuid XMP, uuid PRVW, ...).
	cr3MaxBoxes = 6

	boxHeaderLen      = 8
	boxLargeHeaderLen = 16
	uuidLen           = 16

	uuidPreview = "eaf42b5e1c984b88b9fbb7dc406e4d16"
	uuidMovie   = "85c0b687820f11e08111f4ce462b6a48"

	// Layout of the preview uuid box payload, i.e. the bytes after the uuid:
	//
	//	8 bytes   unknown
	//	4 bytes   PRVW box size
	//	4 bytes   "PRVW"
	//	4 bytes   unknown
	//	2 bytes   unknown
	//	2 bytes   width
	//	2 bytes   height
	//	2 bytes   unknown
	//	4 bytes   JPEG size
	//	JPEG data
	prvwWidthOffset  = 22
	prvwHeightOffset = 24
	prvwSizeOffset   = 28
	prvwDataOffset   = prvwSizeOffset + 4
)

type fourCC [4]byte

func (f fourCC) String() string {
	return decodeText(f[:])
}

var fccUUID = fourCC{'u', 'u', 'i', 'd'}

// box is an ISOBMFF box header.
type box struct {
	offset int

	// size is the total box size including the header.
	size      int
	headerLen int
	typ       fourCC
}

func (b box) payloadOffset() int {
	return b.offset + b.headerLen
}

// parseBoxHeader reads the box header at offset.
// A size of 0 means the box extends to the end of the file and a size of 1
// means a 64-bit size follows the type.
func parseBoxHeader(v byteView, offset int) (box, error) {
	size, err := v.read4(offset)
	if err != nil {
		return box{}, err
	}
	typ, err := v.slice(offset+4, 4)
	if err != nil {
		return box{}, err
	}

	bx := box{offset: offset, headerLen: boxHeaderLen}
	copy(bx.typ[:], typ)

	switch size {
	case 0:
		bx.size = v.len() - offset
	case 1:
		largeSize, err := v.read8(offset + boxHeaderLen)
		if err != nil {
			return box{}, err
		}
		if largeSize > uint64(v.len()) {
			return box{}, newOutOfBoundsErrorf("box %s of %d bytes at offset %d", bx.typ, largeSize, offset)
		}
		bx.headerLen = boxLargeHeaderLen
		bx.size = int(largeSize)
	default:
		bx.size = int(size)
		if uint64(size) > uint64(v.len()) {
			// Out of range, but keep it positive on 32-bit platforms.
			bx.size = v.len() + 1
		}
	}

	if bx.size < bx.headerLen {
		return box{}, fmt.Errorf("%w: box %s at offset %d has size %d", ErrMalformedHeader, bx.typ, offset, bx.size)
	}

	return bx, nil
}

// parseUUID reads the 16 byte extended type at offset as lower case hex.
func parseUUID(v byteView, offset int) (string, error) {
	b, err := v.slice(offset, uuidLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// parsePreviewPayload reads the PRVW record starting at offset (right after the uuid).
// v must end where the uuid box ends.
func parsePreviewPayload(v byteView, offset int) (Thumbnail, error) {
	width, err := v.read2(offset + prvwWidthOffset)
	if err != nil {
		return Thumbnail{}, err
	}
	height, err := v.read2(offset + prvwHeightOffset)
	if err != nil {
		return Thumbnail{}, err
	}
	size, err := v.read4(offset + prvwSizeOffset)
	if err != nil {
		return Thumbnail{}, err
	}
	thumb, err := v.thumbnailAt(uint64(offset+prvwDataOffset), uint64(size))
	if err != nil {
		return Thumbnail{}, err
	}
	thumb.Width, thumb.Height = int(width), int(height)
	return thumb, nil
}

// locatorCR3 finds the preview in Canon CR3 files by scanning the top-level boxes
// for the preview uuid box.
type locatorCR3 struct{}

func (locatorCR3) locate(b []byte, opts Options) (Thumbnail, error) {
	v := newByteView(b, binary.BigEndian)
	limit := opts.limitBoxes(cr3MaxBoxes)

	offset := 0
	for i := 0; i < limit; i++ {
		if offset >= v.len() {
			return Thumbnail{}, newNotFoundErrorf("CR3: no preview box before end of file")
		}

		bx, err := parseBoxHeader(v, offset)
		if err != nil {
			if errors.Is(err, ErrOutOfBounds) {
				return Thumbnail{}, newNotFoundErrorf("CR3: truncated box at offset %d", offset)
			}
			return Thumbnail{}, err
		}

		if bx.typ == fccUUID {
			// Reads inside the box must not spill into its siblings.
			bv := v.truncate(offset + bx.size)
			uuid, err := parseUUID(bv, bx.payloadOffset())
			if err != nil {
				return Thumbnail{}, err
			}
			switch {
			case strings.EqualFold(uuid, uuidPreview):
				return parsePreviewPayload(bv, bx.payloadOffset()+uuidLen)
			case strings.EqualFold(uuid, uuidMovie):
				// Metadata for the movie tracks, not what we're looking for.
			}
		}

		if bx.size > v.len()-offset {
			return Thumbnail{}, newNotFoundErrorf("CR3: box %s at offset %d runs past end of file", bx.typ, offset)
		}
		offset += bx.size
	}

	if offset >= v.len() {
		return Thumbnail{}, newNotFoundErrorf("CR3: no preview box before end of file")
	}
	opts.warnf("CR3: stopped after %d boxes", limit)
	return Thumbnail{}, newNotFoundErrorf("CR3: no preview box in the first %d boxes", limit)
}
