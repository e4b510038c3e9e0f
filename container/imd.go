package container

import (
	"bytes"

	"rt11img/rt11err"
	"rt11img/storage"
)

// imd sector data tags (ImageDisk on-disk format).
const (
	imdSectorUnavailable = 0x00
	imdSectorNormal      = 0x01
	imdSectorCompressed  = 0x02
	// 0x03-0x08: deleted/error variants. Odd tags carry verbatim data like
	// 0x01, even tags carry a single repeated byte like 0x02; this reader
	// drops the deleted/error distinction and reads them as plain data,
	// per spec §4.1.
)

// modeFM250kbps is the IMD recording-mode byte this tool emits for RX01-like
// floppies (250 kbps FM).
const modeFM250kbps = 0

// decodeImd parses an IMD byte stream into a Container. The ASCII banner is
// discarded once the 0x1A terminator is found; what follows is a sequence of
// per-track records, each collapsing IMD's physical sector-numbering order
// into canonical sector-ID order within the output buffer.
func decodeImd(data []byte) (*Container, error) {
	term := bytes.IndexByte(data, 0x1A)
	if term < 0 {
		return nil, rt11err.Newf(rt11err.ImageFormat, "IMD banner missing 0x1A terminator").WithOffset(0)
	}
	pos := term + 1

	type trackRecord struct {
		cylinder, head   byte
		sectorsPerTrack  int
		sectorSizeBytes  int
		sectorMap        []byte
		sectorData       [][]byte
	}

	type flaggedSector struct {
		track, sectorID int
		tag             byte
	}

	var tracks []trackRecord
	var flagged []flaggedSector

	for pos < len(data) {
		if pos+5 > len(data) {
			return nil, rt11err.Newf(rt11err.ImageFormat, "truncated IMD track header").WithOffset(int64(pos))
		}
		mode := data[pos]
		cylinder := data[pos+1]
		head := data[pos+2]
		sectorsPerTrack := int(data[pos+3])
		sectorSizeCode := data[pos+4]
		pos += 5
		_ = mode

		sectorSizeBytes := 128 << sectorSizeCode

		// Cylinder/head maps are only present when the corresponding high
		// bits of the head byte are set; this tool only serves RX01-like
		// floppies where they are absent (spec §4.1), so headByte>>7 and
		// headByte>>6 must both be clear.
		if head&0xC0 != 0 {
			return nil, rt11err.Newf(rt11err.ImageFormat, "IMD cylinder/head maps are not supported").WithOffset(int64(pos))
		}

		if pos+sectorsPerTrack > len(data) {
			return nil, rt11err.Newf(rt11err.ImageFormat, "truncated IMD sector numbering map").WithOffset(int64(pos))
		}
		sectorMap := append([]byte(nil), data[pos:pos+sectorsPerTrack]...)
		pos += sectorsPerTrack

		sectorData := make([][]byte, sectorsPerTrack)
		for i := 0; i < sectorsPerTrack; i++ {
			if pos >= len(data) {
				return nil, rt11err.Newf(rt11err.ImageFormat, "truncated IMD sector data").WithOffset(int64(pos))
			}
			tag := data[pos]
			pos++

			if tag >= 0x03 {
				flagged = append(flagged, flaggedSector{track: len(tracks), sectorID: int(sectorMap[i]), tag: tag})
			}

			switch {
			case tag == imdSectorUnavailable:
				sectorData[i] = make([]byte, sectorSizeBytes)
			case tag%2 == 1: // 0x01, 0x03, 0x05, 0x07: verbatim data follows
				if pos+sectorSizeBytes > len(data) {
					return nil, rt11err.Newf(rt11err.ImageFormat, "truncated IMD sector payload").WithOffset(int64(pos))
				}
				sectorData[i] = append([]byte(nil), data[pos:pos+sectorSizeBytes]...)
				pos += sectorSizeBytes
			default: // 0x02, 0x04, 0x06, 0x08: one fill byte follows
				if pos >= len(data) {
					return nil, rt11err.Newf(rt11err.ImageFormat, "truncated IMD compressed sector").WithOffset(int64(pos))
				}
				fill := data[pos]
				pos++
				buf := make([]byte, sectorSizeBytes)
				for j := range buf {
					buf[j] = fill
				}
				sectorData[i] = buf
			}
		}

		tracks = append(tracks, trackRecord{
			cylinder:        cylinder,
			head:            head,
			sectorsPerTrack: sectorsPerTrack,
			sectorSizeBytes: sectorSizeBytes,
			sectorMap:       sectorMap,
			sectorData:      sectorData,
		})
	}

	if len(tracks) == 0 {
		return nil, rt11err.Newf(rt11err.ImageFormat, "IMD file contains no track records").WithOffset(int64(pos))
	}

	sectorSizeBytes := tracks[0].sectorSizeBytes
	sectorsPerTrack := tracks[0].sectorsPerTrack
	geometry := Geometry{
		Name:            "rx01",
		SectorSizeBytes: sectorSizeBytes,
		SectorsPerTrack: sectorsPerTrack,
		Tracks:          len(tracks),
		Interleave:      RX01Geometry().Interleave,
		TrackSkew:       RX01Geometry().TrackSkew,
		ReservedSectors: RX01Geometry().ReservedSectors,
	}

	buf := make([]byte, geometry.TotalBytes())
	for t, track := range tracks {
		if track.sectorSizeBytes != sectorSizeBytes || track.sectorsPerTrack != sectorsPerTrack {
			return nil, rt11err.Newf(rt11err.GeometryMismatch, "IMD track %d geometry differs from track 0", t)
		}
		for i, sectorID := range track.sectorMap {
			if int(sectorID) < 1 || int(sectorID) > sectorsPerTrack {
				return nil, rt11err.Newf(rt11err.ImageFormat, "IMD sector ID %d out of range on track %d", sectorID, t)
			}
			off := sectorSizeBytes * (t*sectorsPerTrack + (int(sectorID) - 1))
			copy(buf[off:off+sectorSizeBytes], track.sectorData[i])
		}
	}

	if geometry.TotalBytes() != RX01Geometry().TotalBytes() {
		return nil, rt11err.Newf(rt11err.GeometryMismatch, "decoded IMD image is %d bytes, expected RX01 size %d", geometry.TotalBytes(), RX01Geometry().TotalBytes())
	}

	c := &Container{
		Buf:      storage.New(buf),
		Kind:     Imd,
		Geometry: geometry,
	}
	for _, f := range flagged {
		c.Logger().Warnf("IMD track %d sector %d: tag 0x%02X (deleted/error sector read as data)", f.track, f.sectorID, f.tag)
	}
	return c, nil
}

// encodeImd emits an IMD container holding the Container's buffer verbatim:
// every sector tagged 0x01 (full data), an identity sector-numbering map,
// and mode 0 (250 kbps FM), which is sufficient to round-trip through
// decodeImd to the same in-memory state (spec §4.1 testable property 8).
// Compressed-tag encoding is optional per spec and not produced here.
func encodeImd(c *Container) []byte {
	var out bytes.Buffer
	out.WriteString("IMD 1.00: rt11img\r\n")
	out.WriteByte(0x1A)

	g := c.Geometry
	identityMap := make([]byte, g.SectorsPerTrack)
	for i := range identityMap {
		identityMap[i] = byte(i + 1)
	}

	sizeCode := sectorSizeCodeFor(g.SectorSizeBytes)

	for t := 0; t < g.Tracks; t++ {
		out.WriteByte(modeFM250kbps)
		out.WriteByte(byte(t)) // cylinder
		out.WriteByte(0)       // head
		out.WriteByte(byte(g.SectorsPerTrack))
		out.WriteByte(sizeCode)
		out.Write(identityMap)

		for s := 0; s < g.SectorsPerTrack; s++ {
			sector, err := c.SectorBytes(t, s)
			if err != nil {
				sector = make([]byte, g.SectorSizeBytes)
			}
			out.WriteByte(imdSectorNormal)
			out.Write(sector)
		}
	}

	return out.Bytes()
}

func sectorSizeCodeFor(sectorSizeBytes int) byte {
	code := byte(0)
	size := 128
	for size < sectorSizeBytes {
		size <<= 1
		code++
	}
	return code
}
