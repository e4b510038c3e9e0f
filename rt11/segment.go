package rt11

import (
	"encoding/binary"

	"rt11img/rt11err"
)

// segmentBlocks is how many 512-byte logical blocks one directory segment
// occupies (spec §3.4).
const segmentBlocks = 2

// segmentHeaderSize is the 10-byte segment header preceding its entries.
const segmentHeaderSize = 10

// Segment is one node of the directory segment chain (spec §3.4). Entries
// is in on-disk order and always ends with exactly one KindEndOfSegment
// entry (invariant 6); everything after it in the segment's 1024 bytes is
// unused slack that this tool doesn't preserve (it's regenerated as zeros
// on encode, since nothing reads it).
type Segment struct {
	Index int // 1-based position in the chain

	TotalSegments       uint16
	NextSegment         uint16
	HighestSegmentInUse uint16
	ExtraBytesPerEntry  uint16
	DataBlockStart      uint16

	Entries []Entry
}

// maxEntries returns the largest number of entries (including the
// END_OF_SEGMENT sentinel) that fit in one segment given extraBytesPerEntry,
// per invariant 7: floor((1024-10)/(14+extra)) - 1 real entries, plus the
// sentinel.
func maxEntries(extraBytesPerEntry int) int {
	entrySize := entryBaseSize + extraBytesPerEntry
	avail := (segmentBlocks*512 - segmentHeaderSize) / entrySize
	return avail
}

// decodeSegment parses a 1024-byte segment buffer.
func decodeSegment(index int, buf []byte) (*Segment, error) {
	if len(buf) != segmentBlocks*512 {
		return nil, rt11err.Newf(rt11err.ImageFormat, "directory segment must be %d bytes, got %d", segmentBlocks*512, len(buf))
	}

	s := &Segment{Index: index}
	s.TotalSegments = binary.LittleEndian.Uint16(buf[0:2])
	s.NextSegment = binary.LittleEndian.Uint16(buf[2:4])
	s.HighestSegmentInUse = binary.LittleEndian.Uint16(buf[4:6])
	s.ExtraBytesPerEntry = binary.LittleEndian.Uint16(buf[6:8])
	s.DataBlockStart = binary.LittleEndian.Uint16(buf[8:10])

	entrySize := entryBaseSize + int(s.ExtraBytesPerEntry)
	if entrySize <= 0 {
		return nil, rt11err.Newf(rt11err.Corruption, "segment %d has non-positive entry size", index)
	}

	pos := segmentHeaderSize
	running := int(s.DataBlockStart)
	for pos+entrySize <= len(buf) {
		e, err := decodeEntry(buf[pos:pos+entrySize], int(s.ExtraBytesPerEntry))
		if err != nil {
			return nil, rt11err.Wrap(rt11err.Corruption, err, "decoding directory entry").WithInvariant(6)
		}
		pos += entrySize

		if e.Kind == KindEndOfSegment {
			s.Entries = append(s.Entries, e)
			return s, nil
		}

		e.StartBlock = running
		running += int(e.Length)
		s.Entries = append(s.Entries, e)
	}

	return nil, rt11err.Newf(rt11err.Corruption, "segment %d has no END_OF_SEGMENT entry", index).WithInvariant(6)
}

// encode serializes the segment back to a 1024-byte buffer. Trailing slack
// after the END_OF_SEGMENT entry is zero-filled.
func (s *Segment) encode() ([]byte, error) {
	buf := make([]byte, segmentBlocks*512)
	binary.LittleEndian.PutUint16(buf[0:2], s.TotalSegments)
	binary.LittleEndian.PutUint16(buf[2:4], s.NextSegment)
	binary.LittleEndian.PutUint16(buf[4:6], s.HighestSegmentInUse)
	binary.LittleEndian.PutUint16(buf[6:8], s.ExtraBytesPerEntry)
	binary.LittleEndian.PutUint16(buf[8:10], s.DataBlockStart)

	entrySize := entryBaseSize + int(s.ExtraBytesPerEntry)
	pos := segmentHeaderSize
	for _, e := range s.Entries {
		enc, err := e.encode(int(s.ExtraBytesPerEntry))
		if err != nil {
			return nil, err
		}
		if pos+entrySize > len(buf) {
			return nil, rt11err.Newf(rt11err.DirectoryFull, "segment %d: too many entries to fit", s.Index)
		}
		copy(buf[pos:pos+entrySize], enc)
		pos += entrySize
	}
	return buf, nil
}

// entryCount returns the number of real (non-sentinel) entries.
func (s *Segment) entryCount() int {
	n := len(s.Entries)
	if n > 0 && s.Entries[n-1].Kind == KindEndOfSegment {
		return n - 1
	}
	return n
}

// fileEntries returns the non-sentinel entries in order.
func (s *Segment) fileEntries() []Entry {
	n := s.entryCount()
	return s.Entries[:n]
}

func endOfSegmentEntry() Entry {
	return Entry{Kind: KindEndOfSegment}
}
