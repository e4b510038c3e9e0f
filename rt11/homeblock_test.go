package rt11

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/rt11err"
)

func TestHomeBlockEncodeDecodeRoundTrip(t *testing.T) {
	hb := &HomeBlock{
		ClusterSize:                1,
		FirstDirectorySegmentBlock: 6,
		VolumeID:                   paddedASCII("RT11A"),
		OwnerName:                  paddedASCII(""),
		SystemID:                   paddedASCII("DECRT11A"),
	}
	version, err := systemVersionWord("V3A")
	require.NoError(t, err)
	hb.SystemVersion = version

	encoded := hb.Encode()
	require.Len(t, encoded, homeBlockSize)
	assert.True(t, VerifyChecksum(encoded))

	decoded, err := DecodeHomeBlock(encoded)
	require.NoError(t, err)
	assert.Equal(t, hb.ClusterSize, decoded.ClusterSize)
	assert.Equal(t, hb.FirstDirectorySegmentBlock, decoded.FirstDirectorySegmentBlock)
	assert.Equal(t, hb.SystemVersion, decoded.SystemVersion)
	assert.Equal(t, hb.VolumeID, decoded.VolumeID)
	assert.Equal(t, hb.SystemID, decoded.SystemID)
}

// TestChecksumDetectsCorruption covers testable property 4: flipping any
// byte in the home block (other than the checksum itself) must make
// VerifyChecksum fail.
func TestChecksumDetectsCorruption(t *testing.T) {
	hb := &HomeBlock{ClusterSize: 1, FirstDirectorySegmentBlock: 6}
	encoded := hb.Encode()
	require.True(t, VerifyChecksum(encoded))

	encoded[100] ^= 0xFF
	assert.False(t, VerifyChecksum(encoded))
}

func TestDecodeHomeBlockRejectsWrongSize(t *testing.T) {
	_, err := DecodeHomeBlock(make([]byte, 100))
	require.Error(t, err)
}

// TestDecodeSegmentRejectsUnrepresentableFilename covers the read-side half
// of the radix-50 alphabet property: a directory entry whose filename word
// is out of the radix-50 range (>= 40^3) must be reported as Corruption
// rather than silently decoded to "???".
func TestDecodeSegmentRejectsUnrepresentableFilename(t *testing.T) {
	buf := make([]byte, segmentBlocks*512)
	binary.LittleEndian.PutUint16(buf[0:2], 1)  // TotalSegments
	binary.LittleEndian.PutUint16(buf[2:4], 0)  // NextSegment
	binary.LittleEndian.PutUint16(buf[4:6], 1)  // HighestSegmentInUse
	binary.LittleEndian.PutUint16(buf[6:8], 0)  // ExtraBytesPerEntry
	binary.LittleEndian.PutUint16(buf[8:10], 6) // DataBlockStart

	entry := buf[10:24]
	binary.LittleEndian.PutUint16(entry[0:2], statusPermanent)
	binary.LittleEndian.PutUint16(entry[2:4], 0xFFFF) // out of radix-50 range
	binary.LittleEndian.PutUint16(entry[4:6], 0)
	binary.LittleEndian.PutUint16(entry[6:8], 0)
	binary.LittleEndian.PutUint16(entry[8:10], 1) // length
	binary.LittleEndian.PutUint16(entry[10:12], 0)
	binary.LittleEndian.PutUint16(entry[12:14], 0)

	_, err := decodeSegment(1, buf)
	require.Error(t, err)
	kind, ok := rt11err.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rt11err.Corruption, kind)
}
