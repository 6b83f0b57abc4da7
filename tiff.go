// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"encoding/binary"
	"fmt"
)

const (
	byteOrderBigEndian    = 0x4d4d // MM
	byteOrderLittleEndian = 0x4949 // II

	tiffHeaderLen = 8
	ifdEntryLen   = 12

	// Upper bound on the length of an IFD chain when the format has no tighter one.
	defaultMaxIFDs = 16
)

// ByteOrder is the byte order of a TIFF-derived file.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota + 1
	BigEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "LittleEndian"
	case BigEndian:
		return "BigEndian"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// TagType is the TIFF field type of a tag value.
type TagType uint16

const (
	TagTypeByte      TagType = 1
	TagTypeASCII     TagType = 2
	TagTypeShort     TagType = 3
	TagTypeLong      TagType = 4
	TagTypeRational  TagType = 5
	TagTypeSByte     TagType = 6
	TagTypeUndefined TagType = 7
	TagTypeSShort    TagType = 8
	TagTypeSLong     TagType = 9
	TagTypeSRational TagType = 10
	TagTypeFloat     TagType = 11
	TagTypeDouble    TagType = 12
	TagTypeIFD       TagType = 13
)

// Size in bytes of each type.
var tagTypeSize = map[TagType]uint32{
	TagTypeByte:      1,
	TagTypeASCII:     1,
	TagTypeShort:     2,
	TagTypeLong:      4,
	TagTypeRational:  8,
	TagTypeSByte:     1,
	TagTypeUndefined: 1,
	TagTypeSShort:    2,
	TagTypeSLong:     4,
	TagTypeSRational: 8,
	TagTypeFloat:     4,
	TagTypeDouble:    8,
	TagTypeIFD:       4,
}

// FileHeader is the 8 byte header of a TIFF-derived file.
type FileHeader struct {
	ByteOrder      ByteOrder
	Magic          uint16
	FirstIFDOffset uint32
}

// Tag is a single IFD entry with its value resolved.
type Tag struct {
	ID    uint16
	Type  TagType
	Count uint32

	// Value holds the raw value bytes in file byte order.
	// It is a sub slice of the file buffer and must not be modified.
	Value []byte

	byteOrder binary.ByteOrder
}

// Uint returns the i'th value of an integer tag.
func (t Tag) Uint(i int) (uint32, bool) {
	switch t.Type {
	case TagTypeByte, TagTypeSByte, TagTypeUndefined,
		TagTypeShort, TagTypeSShort,
		TagTypeLong, TagTypeSLong, TagTypeIFD:
	default:
		return 0, false
	}
	if i < 0 || uint32(i) >= t.Count || t.byteOrder == nil {
		return 0, false
	}
	size := int(tagTypeSize[t.Type])
	v, err := newByteView(t.Value, t.byteOrder).readUint(i*size, size)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// Name returns the tag name in the context of format f.
func (t Tag) Name(f Format) string {
	return tagName(f, t.ID)
}

// Uints returns all values of an integer tag.
func (t Tag) Uints() []uint32 {
	var vals []uint32
	for i := 0; i < int(t.Count); i++ {
		v, ok := t.Uint(i)
		if !ok {
			break
		}
		vals = append(vals, v)
	}
	return vals
}

// String returns the value as text for ASCII tags and a short summary for the rest.
func (t Tag) String() string {
	if t.Type == TagTypeASCII {
		return decodeText(t.Value)
	}
	if vals := t.Uints(); len(vals) > 0 {
		if len(vals) > 8 {
			return fmt.Sprintf("%v... (%d values)", vals[:8], len(vals))
		}
		return fmt.Sprintf("%v", vals)
	}
	return fmt.Sprintf("(Binary data %d bytes)", len(t.Value))
}

// IFD is an Image File Directory.
type IFD struct {
	// Offset is the absolute position of the directory in the file.
	Offset uint32

	// Tags in on-disk order. Tag IDs are not guaranteed to be sorted.
	Tags []Tag

	// NextOffset points to the next IFD in the chain; 0 ends the chain.
	NextOffset uint32
}

// Find returns the first tag with the given ID.
func (ifd IFD) Find(id uint16) (Tag, bool) {
	for _, t := range ifd.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

func (ifd IFD) firstVal(id uint16) (uint32, bool) {
	t, found := ifd.Find(id)
	if !found {
		return 0, false
	}
	return t.Uint(0)
}

// Strip describes one strip of a strip encoded image.
type Strip struct {
	Offset      int
	Length      int
	Compression uint32
}

// Strips returns the strips described by the StripOffsets and StripByteCounts tags.
// Both arrays should have the same length; any extra entries in the longer one are ignored.
func (ifd IFD) Strips() []Strip {
	offsets, found := ifd.Find(tagStripOffsets)
	if !found {
		return nil
	}
	counts, found := ifd.Find(tagStripByteCounts)
	if !found {
		return nil
	}
	compression, _ := ifd.firstVal(tagCompression)

	o, c := offsets.Uints(), counts.Uints()
	n := min(len(o), len(c))
	strips := make([]Strip, n)
	for i := 0; i < n; i++ {
		strips[i] = Strip{Offset: int(o[i]), Length: int(c[i]), Compression: compression}
	}
	return strips
}

// parseHeader reads the TIFF header from the first 8 bytes of b.
func parseHeader(b []byte) (FileHeader, error) {
	if len(b) < tiffHeaderLen {
		return FileHeader{}, fmt.Errorf("%w: need %d bytes, got %d", ErrMalformedHeader, tiffHeaderLen, len(b))
	}

	var h FileHeader
	switch uint16(b[0])<<8 | uint16(b[1]) {
	case byteOrderLittleEndian:
		h.ByteOrder = LittleEndian
	case byteOrderBigEndian:
		h.ByteOrder = BigEndian
	default:
		return FileHeader{}, fmt.Errorf("%w: unknown byte order marker %q", ErrMalformedHeader, b[:2])
	}

	v := newByteView(b, h.ByteOrder.binary())
	h.Magic, _ = v.read2(2)
	h.FirstIFDOffset, _ = v.read4(4)

	return h, nil
}

// tiffDecoder parses IFDs out of an in-memory TIFF-derived file.
type tiffDecoder struct {
	byteView
	header FileHeader
	format Format
	opts   Options
}

func newTIFFDecoder(b []byte, format Format, opts Options) (*tiffDecoder, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	return &tiffDecoder{
		byteView: newByteView(b, h.ByteOrder.binary()),
		header:   h,
		format:   format,
		opts:     opts,
	}, nil
}

// inRange reports whether an IFD could start at offset.
func (d *tiffDecoder) inRange(offset uint32) bool {
	return offset != 0 && uint64(offset)+2 <= uint64(d.len())
}

// A tag is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for a pointer to another location where the data may be found.
func (d *tiffDecoder) parseDirectory(offset uint32) (IFD, error) {
	pos := int(offset)
	if uint64(offset) > uint64(d.len()) {
		pos = -1
	}
	numTags, err := d.read2(pos)
	if err != nil {
		return IFD{}, fmt.Errorf("%w: %w", ErrMalformedDirectory, err)
	}

	entriesStart := pos + 2
	if err := d.check(entriesStart, int(numTags)*ifdEntryLen); err != nil {
		return IFD{}, fmt.Errorf("%w: %d entries at offset %d: %w", ErrMalformedDirectory, numTags, offset, err)
	}

	ifd := IFD{
		Offset: offset,
		Tags:   make([]Tag, 0, numTags),
	}

	for i := 0; i < int(numTags); i++ {
		tag, err := d.parseTag(entriesStart + i*ifdEntryLen)
		if err != nil {
			return IFD{}, err
		}
		ifd.Tags = append(ifd.Tags, tag)
	}

	// A missing next pointer in the last IFD is treated as the end of the chain.
	next, err := d.read4(entriesStart + int(numTags)*ifdEntryLen)
	if err == nil {
		ifd.NextOffset = next
	}

	return ifd, nil
}

func (d *tiffDecoder) parseTag(pos int) (Tag, error) {
	// The caller has verified that the full entry is inside the buffer.
	tag := Tag{
		ID:        d.byteOrder.Uint16(d.b[pos:]),
		Type:      TagType(d.byteOrder.Uint16(d.b[pos+2:])),
		Count:     d.byteOrder.Uint32(d.b[pos+4:]),
		byteOrder: d.byteOrder,
	}

	size, ok := tagTypeSize[tag.Type]
	if !ok {
		d.opts.warnf("%s: tag %s has unknown type %d", d.format, tagName(d.format, tag.ID), tag.Type)
		return tag, nil
	}

	valLen := uint64(size) * uint64(tag.Count)
	valuePos := pos + 8

	if valLen > 4 {
		valueOffset := d.byteOrder.Uint32(d.b[valuePos:])
		valuePos = int(valueOffset)
		if uint64(valueOffset)+valLen > uint64(d.len()) {
			return Tag{}, newOutOfBoundsErrorf("value of tag %s (%d bytes at offset %d)", tagName(d.format, tag.ID), valLen, valueOffset)
		}
	}

	v, err := d.slice(valuePos, int(valLen))
	if err != nil {
		return Tag{}, err
	}
	tag.Value = v

	return tag, nil
}

// walkIFDs follows the IFD chain from offset, calling fn for each directory
// until fn reports done, the chain ends or limit directories have been visited.
// The chain ends on a zero or out of range next pointer or when it loops back on itself.
func (d *tiffDecoder) walkIFDs(offset uint32, limit int, fn func(i int, ifd IFD) (bool, error)) error {
	seen := make(map[uint32]bool)
	for i := 0; ; i++ {
		if !d.inRange(offset) {
			if offset != 0 {
				d.opts.warnf("%s: IFD offset %d outside of file (size %d)", d.format, offset, d.len())
			}
			return nil
		}
		if i >= limit {
			d.opts.warnf("%s: stopped after %d IFDs", d.format, limit)
			return nil
		}
		if seen[offset] {
			d.opts.warnf("%s: IFD chain loops back to offset %d", d.format, offset)
			return nil
		}
		seen[offset] = true

		ifd, err := d.parseDirectory(offset)
		if err != nil {
			return err
		}
		done, err := fn(i, ifd)
		if err != nil || done {
			return err
		}
		offset = ifd.NextOffset
	}
}

// thumbnailAt validates that [offset, offset+length) is inside the file.
func (v byteView) thumbnailAt(offset, length uint64) (Thumbnail, error) {
	if length == 0 {
		return Thumbnail{}, newNotFoundErrorf("empty preview at offset %d", offset)
	}
	if offset > uint64(v.len()) || length > uint64(v.len())-offset {
		return Thumbnail{}, newOutOfBoundsErrorf("preview of %d bytes at offset %d (buffer size %d)", length, offset, v.len())
	}
	return Thumbnail{Offset: int(offset), Length: int(length)}, nil
}
