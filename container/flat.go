package container

import "rt11img/storage"

// decodeFlat treats data as a raw sector dump in C-H-S order and infers the
// physical geometry from its size (spec §4.1, §4.2).
func decodeFlat(data []byte) (*Container, error) {
	geometry, err := DetectGeometry(len(data))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return &Container{
		Buf:      storage.New(buf),
		Kind:     Flat,
		Geometry: geometry,
	}, nil
}

// encodeFlat emits the buffer as-is: for Flat, the physical sector ordering
// already is a raw C-H-S stream, so no re-layout is required. Tracks and
// sectors are visited in (t, s) order purely to document the emitted
// sequence — the underlying buffer already holds the bytes in that order.
func encodeFlat(c *Container) []byte {
	g := c.Geometry
	out := make([]byte, g.TotalBytes())
	for t := 0; t < g.Tracks; t++ {
		for s := 0; s < g.SectorsPerTrack; s++ {
			sector, err := c.SectorBytes(t, s)
			if err != nil {
				continue
			}
			off := g.SectorSizeBytes * (t*g.SectorsPerTrack + s)
			copy(out[off:off+g.SectorSizeBytes], sector)
		}
	}
	return out
}
