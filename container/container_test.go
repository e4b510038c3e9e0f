package container

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/rt11err"
)

func flatRX01Fixture(t *testing.T) []byte {
	t.Helper()
	g := RX01Geometry()
	data := make([]byte, g.TotalBytes())
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestLoadFlatRoundTrip(t *testing.T) {
	data := flatRX01Fixture(t)

	c, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, Flat, c.Kind)
	assert.Equal(t, RX01Geometry().TotalBytes(), c.Geometry.TotalBytes())

	out, err := c.Save(Flat)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLoadFlatDetectsFlatHardDisk(t *testing.T) {
	data := make([]byte, 2*1<<20) // 2 MiB
	c, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "flat", c.Geometry.Name)
	assert.Equal(t, 512, c.Geometry.SectorSizeBytes)
	assert.Equal(t, 1, c.Geometry.SectorsPerTrack)
	assert.Equal(t, len(data)/512, c.Geometry.Tracks)
}

func TestLoadRejectsUnsupportedSize(t *testing.T) {
	_, err := Load(make([]byte, 1000))
	require.Error(t, err)
	kind, ok := rt11err.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rt11err.GeometryMismatch, kind)
}

func TestImdRoundTrip(t *testing.T) {
	data := flatRX01Fixture(t)
	flat, err := Load(data)
	require.NoError(t, err)

	imdBytes, err := flat.Save(Imd)
	require.NoError(t, err)
	assert.Equal(t, byte('I'), imdBytes[0])

	reloaded, err := Load(imdBytes)
	require.NoError(t, err)
	assert.Equal(t, Imd, reloaded.Kind)
	assert.Equal(t, flat.Buf.Bytes(), reloaded.Buf.Bytes())

	// Re-saving as IMD a second time must itself load to the same state
	// (property 8: IMD output need not be byte-identical, only load-stable).
	imdBytes2, err := reloaded.Save(Imd)
	require.NoError(t, err)
	reloaded2, err := Load(imdBytes2)
	require.NoError(t, err)
	assert.Equal(t, reloaded.Buf.Bytes(), reloaded2.Buf.Bytes())
}

func TestConvertFlatImdFlatIsIdentity(t *testing.T) {
	data := flatRX01Fixture(t)
	flat, err := Load(data)
	require.NoError(t, err)

	imd, err := flat.Convert(Imd)
	require.NoError(t, err)

	backToFlat, err := imd.Convert(Flat)
	require.NoError(t, err)

	out, err := backToFlat.Save(Flat)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecodeImdHandlesCompressedAndUnavailableSectors(t *testing.T) {
	g := RX01Geometry()

	var buf []byte
	buf = append(buf, []byte("IMD test\x1A")...)
	for t := 0; t < g.Tracks; t++ {
		buf = append(buf, modeFM250kbps, byte(t), 0, byte(g.SectorsPerTrack), sectorSizeCodeFor(g.SectorSizeBytes))
		for s := 1; s <= g.SectorsPerTrack; s++ {
			buf = append(buf, byte(s))
		}
		for s := 0; s < g.SectorsPerTrack; s++ {
			switch s % 3 {
			case 0:
				buf = append(buf, imdSectorUnavailable)
			case 1:
				buf = append(buf, imdSectorCompressed, 0xAA)
			default:
				buf = append(buf, imdSectorNormal)
				buf = append(buf, make([]byte, g.SectorSizeBytes)...)
			}
		}
	}

	c, err := Load(buf)
	require.NoError(t, err)
	assert.Equal(t, g.TotalBytes(), c.Buf.Len())

	sector1, err := c.SectorBytes(0, 1)
	require.NoError(t, err)
	for _, b := range sector1 {
		assert.Equal(t, byte(0xAA), b)
	}
}

// TestDecodeImdWarnsOnDeletedSectorTag covers the deleted/error sector tags
// (0x03-0x08): they're read as data, per spec §4.1, but must log a Warn so a
// reader knows a sector came from a deleted/error record rather than a
// normal one.
func TestDecodeImdWarnsOnDeletedSectorTag(t *testing.T) {
	hook := logrustest.NewGlobal()

	g := RX01Geometry()
	var buf []byte
	buf = append(buf, []byte("IMD test\x1A")...)
	for t := 0; t < g.Tracks; t++ {
		buf = append(buf, modeFM250kbps, byte(t), 0, byte(g.SectorsPerTrack), sectorSizeCodeFor(g.SectorSizeBytes))
		for s := 1; s <= g.SectorsPerTrack; s++ {
			buf = append(buf, byte(s))
		}
		for s := 0; s < g.SectorsPerTrack; s++ {
			if t == 0 && s == 0 {
				buf = append(buf, 0x03) // deleted-data tag: verbatim payload follows
				buf = append(buf, make([]byte, g.SectorSizeBytes)...)
				continue
			}
			buf = append(buf, imdSectorNormal)
			buf = append(buf, make([]byte, g.SectorSizeBytes)...)
		}
	}

	_, err := Load(buf)
	require.NoError(t, err)

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			found = true
		}
	}
	assert.True(t, found, "expected a Warn-level log entry for the deleted-data sector tag")
}
