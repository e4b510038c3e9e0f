// Package container owns the raw byte buffer of a disk image and knows how
// to load/store the two supported container formats: a flat sector stream,
// and an ImageDisk (IMD) record stream. It exposes a sector-addressed byte
// view to the block package; it does not know about logical blocks, the
// RX01 interleave/skew formula, or anything filesystem-shaped.
package container

import (
	"github.com/sirupsen/logrus"

	"rt11img/rt11err"
	"rt11img/storage"
)

// Kind identifies the on-disk serialization of an image.
type Kind int

const (
	// Flat is a raw sector dump in C-H-S order.
	Flat Kind = iota
	// Imd is an ImageDisk container, preserving per-sector metadata.
	Imd
)

func (k Kind) String() string {
	if k == Imd {
		return "imd"
	}
	return "flat"
}

// imdMagic is the signature that identifies an IMD container.
const imdMagic = "IMD"

// Geometry describes the physical layout of the device an image was dumped
// from: sector size, track count, sectors per track, and the interleave
// permutation + per-track skew applied to sector ordering on the medium.
// A flat hard-disk device has SectorSizeBytes==512, SectorsPerTrack==1, no
// interleave and no skew: the identity mapping.
type Geometry struct {
	Name             string
	SectorSizeBytes  int
	SectorsPerTrack  int
	Tracks           int
	Interleave       []int // permutation of [0, SectorsPerTrack), or nil for identity
	TrackSkew        int   // sectors of rotational skew applied per track
	ReservedSectors  int   // sectors of track 0 reserved ahead of logical block 0
}

// TotalBytes is the size this geometry implies for the raw image buffer.
func (g Geometry) TotalBytes() int {
	return g.SectorSizeBytes * g.SectorsPerTrack * g.Tracks
}

// RX01Geometry is the floppy geometry of RT-11's classic RX01 device:
// 128-byte sectors, 26 sectors/track, 77 tracks, the standard RT-11
// interleave permutation, 6-sector-per-track skew, and the first track (26
// sectors) reserved ahead of logical block 0.
func RX01Geometry() Geometry {
	return Geometry{
		Name:            "rx01",
		SectorSizeBytes: 128,
		SectorsPerTrack: 26,
		Tracks:          77,
		Interleave: []int{
			0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24,
			1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23, 25,
		},
		TrackSkew:       6,
		ReservedSectors: 26,
	}
}

// FlatGeometry returns the identity geometry for a flat hard-disk-style
// device of the given total byte size, which must be a multiple of 512.
func FlatGeometry(totalBytes int) (Geometry, error) {
	if totalBytes <= 0 || totalBytes%512 != 0 {
		return Geometry{}, rt11err.Newf(rt11err.GeometryMismatch, "flat device size %d is not a positive multiple of 512", totalBytes)
	}
	return Geometry{
		Name:            "flat",
		SectorSizeBytes: 512,
		SectorsPerTrack: 1,
		Tracks:          totalBytes / 512,
		Interleave:      nil,
		TrackSkew:       0,
		ReservedSectors: 0,
	}, nil
}

// DetectGeometry infers a device geometry from a raw (non-IMD) image's byte
// size, per the Non-goals in spec §1: only RX01 floppies (exactly the RX01
// flat-dump size) and flat devices >= 1 MiB are supported.
func DetectGeometry(totalBytes int) (Geometry, error) {
	rx01 := RX01Geometry()
	if totalBytes == rx01.TotalBytes() {
		return rx01, nil
	}
	const oneMiB = 1 << 20
	if totalBytes >= oneMiB {
		return FlatGeometry(totalBytes)
	}
	return Geometry{}, rt11err.Newf(rt11err.GeometryMismatch, "image size %d bytes matches neither RX01 (%d bytes) nor a flat device >= 1 MiB", totalBytes, rx01.TotalBytes())
}

// Container is the in-memory model of a disk image: its byte buffer, the
// container format it was loaded from (which determines serialization
// only), and the physical geometry implied by that buffer's size.
type Container struct {
	Buf      *storage.Image
	Kind     Kind
	Geometry Geometry

	log *logrus.Logger
}

// Logger returns the logger used for non-fatal container diagnostics
// (suspect IMD sector tags). Home-block checksum mismatches are logged by
// rt11.Open through its own logger, not this one. Defaults to logrus's
// standard logger if none was set.
func (c *Container) Logger() *logrus.Logger {
	if c.log == nil {
		return logrus.StandardLogger()
	}
	return c.log
}

// SetLogger overrides the logger used for non-fatal diagnostics.
func (c *Container) SetLogger(l *logrus.Logger) {
	c.log = l
}

// Load sniffs the container format of data and decodes it into a Container.
// A file whose first three bytes are ASCII "IMD" is an IMD container;
// anything else is treated as flat.
func Load(data []byte) (*Container, error) {
	if len(data) >= len(imdMagic) && string(data[:len(imdMagic)]) == imdMagic {
		return decodeImd(data)
	}
	return decodeFlat(data)
}

// Save serializes the Container's buffer in the requested container kind.
func (c *Container) Save(kind Kind) ([]byte, error) {
	switch kind {
	case Flat:
		return encodeFlat(c), nil
	case Imd:
		return encodeImd(c), nil
	default:
		return nil, rt11err.Newf(rt11err.ImageFormat, "unknown container kind %d", kind)
	}
}

// Convert is equivalent to Save with a different container kind, re-loaded
// to produce a new Container of that kind (so Kind reflects the conversion).
func (c *Container) Convert(kind Kind) (*Container, error) {
	data, err := c.Save(kind)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// SectorBytes returns a zero-copy view onto the physical sector (track,
// sector) — sector is 0-based within the track.
func (c *Container) SectorBytes(track, sector int) ([]byte, error) {
	g := c.Geometry
	if track < 0 || track >= g.Tracks || sector < 0 || sector >= g.SectorsPerTrack {
		return nil, rt11err.Newf(rt11err.GeometryMismatch, "sector (track=%d, sector=%d) out of range for geometry %s", track, sector, g.Name)
	}
	off := g.SectorSizeBytes * (track*g.SectorsPerTrack + sector)
	return c.Buf.Slice(off, g.SectorSizeBytes)
}
