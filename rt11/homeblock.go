package rt11

import (
	"bytes"
	"encoding/binary"

	"rt11img/radix50"
	"rt11img/rt11err"
)

// homeBlockSize is the size in bytes of logical block 1, the RT-11 home
// block (spec §3.3).
const homeBlockSize = 512

// HomeBlock is the decoded form of logical block 1: volume metadata plus
// the fields this tool preserves verbatim without interpreting.
//
// Layout (offsets per spec §3.3):
//
//	0   bad block replacement table   130 bytes
//	130 init/restore area              38 bytes
//	168 BUP information area           18 bytes
//	186 reserved                      260 bytes
//	446 reserved (unlabeled gap)        22 bytes
//	468 cluster size                    2 bytes
//	470 first directory segment block   2 bytes
//	472 system version (radix-50)       2 bytes
//	474 volume id                      12 bytes
//	486 owner name                     12 bytes
//	498 system id                      12 bytes
//	510 checksum                        2 bytes
//
// Every struct field here is fixed-size and in on-disk order, so encoding/
// binary can decode/encode the whole thing in one call, the same way
// retroio's amstrad/dsk.DiskInformation does for its own packed header.
type HomeBlock struct {
	BadBlockReplacementTable [130]byte
	InitRestoreArea          [38]byte
	BupInformationArea       [18]byte
	Reserved                 [260]byte
	ReservedGap              [22]byte

	ClusterSize                uint16
	FirstDirectorySegmentBlock uint16
	SystemVersion              uint16
	VolumeID                   [12]byte
	OwnerName                  [12]byte
	SystemID                   [12]byte
	Checksum                   uint16
}

// DecodeHomeBlock parses a 512-byte logical block into a HomeBlock. It does
// not validate the checksum; call VerifyChecksum for that.
func DecodeHomeBlock(block []byte) (*HomeBlock, error) {
	if len(block) != homeBlockSize {
		return nil, rt11err.Newf(rt11err.ImageFormat, "home block must be %d bytes, got %d", homeBlockSize, len(block))
	}
	hb := &HomeBlock{}
	if err := binary.Read(bytes.NewReader(block), binary.LittleEndian, hb); err != nil {
		return nil, rt11err.Wrap(rt11err.ImageFormat, err, "decoding home block")
	}
	return hb, nil
}

// computeChecksum returns the wrapping little-endian 16-bit sum of the 255
// words preceding the checksum field, per spec §3.3/§8 property 4.
func computeChecksum(block []byte) uint16 {
	var sum uint16
	for i := 0; i < homeBlockSize-2; i += 2 {
		sum += binary.LittleEndian.Uint16(block[i : i+2])
	}
	return sum
}

// VerifyChecksum reports whether block's stored checksum matches the
// computed one. A mismatch is a warning per spec, never an error.
func VerifyChecksum(block []byte) bool {
	if len(block) != homeBlockSize {
		return false
	}
	stored := binary.LittleEndian.Uint16(block[homeBlockSize-2:])
	return stored == computeChecksum(block)
}

// Encode serializes the HomeBlock back to 512 bytes, always recomputing the
// checksum rather than trusting hb.Checksum.
func (hb *HomeBlock) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(homeBlockSize)
	_ = binary.Write(&buf, binary.LittleEndian, hb)
	block := buf.Bytes()

	binary.LittleEndian.PutUint16(block[homeBlockSize-2:], computeChecksum(block))
	return block
}

// paddedASCII space-pads s to 12 bytes, truncating if it's already longer.
func paddedASCII(s string) [12]byte {
	var out [12]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

// systemVersionWord encodes a 3-character version string (e.g. "V3A") as a
// single radix-50 word, per spec §3.3.
func systemVersionWord(version string) (uint16, error) {
	return radix50.EncodeWord(version)
}
