// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package rawpreview

const (
	// The CR2 preview lives in IFD1.
	cr2PreviewIFD = 1

	// CR2 files have 4 IFDs in the main chain.
	cr2MaxIFDs = 4
)

// locatorCR2 finds the preview in Canon CR2 files.
// It is described by the first strip of the second IFD in the chain.
type locatorCR2 struct{}

func (locatorCR2) locate(b []byte, opts Options) (Thumbnail, error) {
	d, err := newTIFFDecoder(b, CR2, opts)
	if err != nil {
		return Thumbnail{}, err
	}

	var (
		thumb Thumbnail
		found bool
	)

	err = d.walkIFDs(d.header.FirstIFDOffset, opts.limitIFDs(CR2.maxIFDs()), func(i int, ifd IFD) (bool, error) {
		if i < cr2PreviewIFD {
			return false, nil
		}
		offsets, hasOffsets := ifd.Find(tagStripOffsets)
		counts, hasCounts := ifd.Find(tagStripByteCounts)
		if !hasOffsets || !hasCounts {
			return true, nil
		}
		if offsets.Count != counts.Count {
			opts.warnf("CR2: StripOffsets has %d entries, StripByteCounts has %d", offsets.Count, counts.Count)
		}
		strips := ifd.Strips()
		if len(strips) == 0 {
			return true, nil
		}
		first := strips[0]
		t, err := d.thumbnailAt(uint64(first.Offset), uint64(first.Length))
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
		return Thumbnail{}, newNotFoundErrorf("CR2: no strips in IFD%d", cr2PreviewIFD)
	}
	return thumb, nil
}
