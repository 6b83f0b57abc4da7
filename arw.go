// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

// Sony ARW files have a short main chain, but be lenient.
const arwMaxIFDs = defaultMaxIFDs

// locatorARW finds the preview in Sony ARW files: the first IFD in the chain
// that has both the JPEGInterchangeFormat (513) and JPEGInterchangeFormatLength (514) tags.
type locatorARW struct{}

func (locatorARW) locate(b []byte, opts Options) (Thumbnail, error) {
	d, err := newTIFFDecoder(b, ARW, opts)
	if err != nil {
		return Thumbnail{}, err
	}

	var (
		thumb Thumbnail
		found bool
	)

	err = d.walkIFDs(d.header.FirstIFDOffset, opts.limitIFDs(ARW.maxIFDs()), func(i int, ifd IFD) (bool, error) {
		offset, hasOffset := ifd.firstVal(tagJPEGInterchangeFormat)
		length, hasLength := ifd.firstVal(tagJPEGInterchangeFormatLength)
		if !hasOffset || !hasLength || length == 0 {
			return false, nil
		}
		t, err := d.thumbnailAt(uint64(offset), uint64(length))
		if err != nil {
			return true, err
		}
		thumb, found = t, true
		return true, nil
	})
	if err != nil {
		return Thumbnail{}, err
	}
	if !found {
		return Thumbnail{}, newNotFoundErrorf("ARW: no IFD with %s/%s", tagName(ARW, tagJPEGInterchangeFormat), tagName(ARW, tagJPEGInterchangeFormatLength))
	}
	return thumb, nil
}
