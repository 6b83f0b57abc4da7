// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

const (
	// Nikon stores the full size JPEG preview in a SubIFD of IFD0 under
	// JpgFromRawStart/JpgFromRawLength (see fieldsFormat).
	tagNEFJpgFromRawStart  = tagJPEGInterchangeFormat
	tagNEFJpgFromRawLength = tagJPEGInterchangeFormatLength

	nefMaxSubIFDs = 8
)

// locatorNEF finds the preview in Nikon NEF files.
// The preview is never in the main chain; IFD0 must point to it via its SubIFDs tag.
type locatorNEF struct{}

func (locatorNEF) locate(b []byte, opts Options) (Thumbnail, error) {
	d, err := newTIFFDecoder(b, NEF, opts)
	if err != nil {
		return Thumbnail{}, err
	}

	if !d.inRange(d.header.FirstIFDOffset) {
		return Thumbnail{}, newNotFoundErrorf("NEF: IFD0 offset %d outside of file", d.header.FirstIFDOffset)
	}

	ifd0, err := d.parseDirectory(d.header.FirstIFDOffset)
	if err != nil {
		return Thumbnail{}, err
	}

	subIFDs, found := ifd0.Find(tagSubIFDs)
	if !found {
		return Thumbnail{}, newNotFoundErrorf("NEF: IFD0 has no %s tag", tagName(NEF, tagSubIFDs))
	}

	offsets := subIFDs.Uints()
	if len(offsets) > nefMaxSubIFDs {
		opts.warnf("NEF: only looking at the first %d of %d SubIFDs", nefMaxSubIFDs, len(offsets))
		offsets = offsets[:nefMaxSubIFDs]
	}

	for i, offset := range offsets {
		if !d.inRange(offset) {
			if offset != 0 {
				opts.warnf("NEF: SubIFD %d offset %d outside of file", i, offset)
			}
			continue
		}
		sub, err := d.parseDirectory(offset)
		if err != nil {
			opts.warnf("NEF: skipping SubIFD %d: %v", i, err)
			continue
		}
		start, hasStart := sub.firstVal(tagNEFJpgFromRawStart)
		length, hasLength := sub.firstVal(tagNEFJpgFromRawLength)
		if !hasStart || !hasLength || length == 0 {
			continue
		}
		return d.thumbnailAt(uint64(start), uint64(length))
	}

	return Thumbnail{}, newNotFoundErrorf("NEF: no SubIFD with %s/%s", tagName(NEF, tagNEFJpgFromRawStart), tagName(NEF, tagNEFJpgFromRawLength))
}
