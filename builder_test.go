// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import (
	"encoding/binary"
	"encoding/hex"
)

// tiffBuilder builds synthetic TIFF-derived files for tests.
// IFDs are appended to the end of the buffer with out of line values
// written right after them.
type tiffBuilder struct {
	order appendByteOrder
	buf   []byte

	// IFD offset => position of its next pointer.
	nextPos map[uint32]int
}

type appendByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type testEntry struct {
	id    uint16
	typ   TagType
	count uint32
	data  []byte
}

// newTIFFBuilder panics if order is not one of binary.LittleEndian and binary.BigEndian.
func newTIFFBuilder(order binary.ByteOrder) *tiffBuilder {
	b := &tiffBuilder{order: order.(appendByteOrder), nextPos: make(map[uint32]int)}
	if order == binary.BigEndian {
		b.buf = append(b.buf, 'M', 'M')
	} else {
		b.buf = append(b.buf, 'I', 'I')
	}
	b.buf = b.order.AppendUint16(b.buf, 42)
	b.buf = b.order.AppendUint32(b.buf, 0)
	return b
}

func (b *tiffBuilder) setFirstIFD(offset uint32) {
	b.order.PutUint32(b.buf[4:], offset)
}

// link sets the next pointer of the IFD at from.
func (b *tiffBuilder) link(from, to uint32) {
	b.order.PutUint32(b.buf[b.nextPos[from]:], to)
}

// chain adds the IFDs in order, links them and points the header at the first.
func (b *tiffBuilder) chain(ifds ...[]testEntry) []uint32 {
	var offsets []uint32
	for i, entries := range ifds {
		offset := b.addIFD(entries...)
		if i == 0 {
			b.setFirstIFD(offset)
		} else {
			b.link(offsets[i-1], offset)
		}
		offsets = append(offsets, offset)
	}
	return offsets
}

func (b *tiffBuilder) addIFD(entries ...testEntry) uint32 {
	offset := uint32(len(b.buf))
	b.buf = b.order.AppendUint16(b.buf, uint16(len(entries)))

	type patch struct {
		pos  int
		data []byte
	}
	var patches []patch

	for _, e := range entries {
		b.buf = b.order.AppendUint16(b.buf, e.id)
		b.buf = b.order.AppendUint16(b.buf, uint16(e.typ))
		b.buf = b.order.AppendUint32(b.buf, e.count)
		var field [4]byte
		if len(e.data) <= 4 {
			copy(field[:], e.data)
		} else {
			patches = append(patches, patch{pos: len(b.buf), data: e.data})
		}
		b.buf = append(b.buf, field[:]...)
	}

	b.nextPos[offset] = len(b.buf)
	b.buf = b.order.AppendUint32(b.buf, 0)

	for _, p := range patches {
		b.order.PutUint32(b.buf[p.pos:], uint32(len(b.buf)))
		b.buf = append(b.buf, p.data...)
	}

	return offset
}

// pad grows the buffer to at least n bytes.
func (b *tiffBuilder) pad(n int) {
	for len(b.buf) < n {
		b.buf = append(b.buf, 0)
	}
}

func (b *tiffBuilder) appendData(data []byte) uint32 {
	offset := uint32(len(b.buf))
	b.buf = append(b.buf, data...)
	return offset
}

func (b *tiffBuilder) bytes() []byte {
	return b.buf
}

func (b *tiffBuilder) shorts(id uint16, vals ...uint16) testEntry {
	var data []byte
	for _, v := range vals {
		data = b.order.AppendUint16(data, v)
	}
	return testEntry{id: id, typ: TagTypeShort, count: uint32(len(vals)), data: data}
}

func (b *tiffBuilder) longs(id uint16, vals ...uint32) testEntry {
	var data []byte
	for _, v := range vals {
		data = b.order.AppendUint32(data, v)
	}
	return testEntry{id: id, typ: TagTypeLong, count: uint32(len(vals)), data: data}
}

func (b *tiffBuilder) ascii(id uint16, s string) testEntry {
	data := append([]byte(s), 0)
	return testEntry{id: id, typ: TagTypeASCII, count: uint32(len(data)), data: data}
}

// ISO BMFF helpers.

func testBox(typ string, payload []byte) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, uint32(boxHeaderLen+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}

func testUUIDBox(uuid string, payload []byte) []byte {
	id, err := hex.DecodeString(uuid)
	if err != nil {
		panic(err)
	}
	return testBox("uuid", append(id, payload...))
}

// testPRVW creates the payload of a preview uuid box (after the uuid).
func testPRVW(width, height uint16, jpeg []byte) []byte {
	be := binary.BigEndian
	b := make([]byte, 8)
	b = be.AppendUint32(b, uint32(8+4+2+2+2+2+4+len(jpeg)))
	b = append(b, "PRVW"...)
	b = be.AppendUint32(b, 0)
	b = be.AppendUint16(b, 1)
	b = be.AppendUint16(b, width)
	b = be.AppendUint16(b, height)
	b = be.AppendUint16(b, 1)
	b = be.AppendUint32(b, uint32(len(jpeg)))
	return append(b, jpeg...)
}

func testBytes(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}
