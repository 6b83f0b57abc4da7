// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

import "fmt"

// UnknownPrefix is used as prefix for unknown tags.
const UnknownPrefix = "UnknownTag_"

// Tag IDs referenced in code. Values are from the TIFF 6.0 and EXIF 2.3 specifications.
const (
	tagImageWidth                  = 0x0100
	tagImageLength                 = 0x0101
	tagCompression                 = 0x0103
	tagMake                        = 0x010f
	tagModel                       = 0x0110
	tagStripOffsets                = 0x0111
	tagOrientation                 = 0x0112
	tagStripByteCounts             = 0x0117
	tagSubIFDs                     = 0x014a // 330
	tagJPEGInterchangeFormat       = 0x0201 // 513
	tagJPEGInterchangeFormatLength = 0x0202 // 514
)

var fieldsTIFF = map[uint16]string{
	0x00fe: "NewSubfileType",
	0x00ff: "SubfileType",
	0x0100: "ImageWidth",
	0x0101: "ImageLength",
	0x0102: "BitsPerSample",
	0x0103: "Compression",
	0x0106: "PhotometricInterpretation",
	0x010e: "ImageDescription",
	0x010f: "Make",
	0x0110: "Model",
	0x0111: "StripOffsets",
	0x0112: "Orientation",
	0x0115: "SamplesPerPixel",
	0x0116: "RowsPerStrip",
	0x0117: "StripByteCounts",
	0x011a: "XResolution",
	0x011b: "YResolution",
	0x011c: "PlanarConfiguration",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013b: "Artist",
	0x0142: "TileWidth",
	0x0143: "TileLength",
	0x0144: "TileOffsets",
	0x0145: "TileByteCounts",
	0x014a: "SubIFDs",
	0x0201: "JPEGInterchangeFormat",
	0x0202: "JPEGInterchangeFormatLength",
	0x0213: "YCbCrPositioning",
	0x02bc: "ApplicationNotes",
	0x8298: "Copyright",
	0x8769: "ExifIFDPointer",
	0x8825: "GPSInfoIFDPointer",
	0x9003: "DateTimeOriginal",
	0xc612: "DNGVersion",
}

// Per format additions. These shadow the shared names above, e.g. CR2 and NEF
// store their previews under the generic JPEGInterchangeFormat IDs.
var fieldsFormat = map[Format]map[uint16]string{
	CR2: {
		0x0201: "ThumbnailOffset",
		0x0202: "ThumbnailLength",
		0xc640: "CR2Slice",
	},
	NEF: {
		0x0201: "JpgFromRawStart",
		0x0202: "JpgFromRawLength",
	},
	ARW: {
		0xc634: "SR2Private",
	},
}

// tagName resolves the name of the tag with the given ID in the context of f.
func tagName(f Format, id uint16) string {
	if name, found := fieldsFormat[f][id]; found {
		return name
	}
	if name, found := fieldsTIFF[id]; found {
		return name
	}
	return fmt.Sprintf("%s0x%04x", UnknownPrefix, id)
}
