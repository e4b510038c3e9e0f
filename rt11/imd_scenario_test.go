package rt11

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/block"
	"rt11img/container"
)

// buildIMDFixture synthesizes an IMD byte stream shaped like the bundled
// RT11RX01.IMD the spec's scenarios S4/S5 describe: a formatted RX01 RT-11
// volume holding an 80-block RT11SJ.SYS dated 1988-03-07, with its home
// block checksum deliberately wrong so the load path exercises the
// checksum-mismatch warning rather than a byte-identical fixture.
func buildIMDFixture(t *testing.T) []byte {
	t.Helper()
	dev := newBlankRX01(t)
	fs, err := Format(dev, RT11, nil)
	require.NoError(t, err)

	data := make([]byte, 80*512)
	for i := range data {
		data[i] = byte(i)
	}
	date := time.Date(1988, time.March, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.InsertWithDate("RT11SJ.SYS", data, date))

	home, err := dev.ReadBlock(homeBlockNumber)
	require.NoError(t, err)
	home[510] ^= 0xff
	home[511] ^= 0xff
	require.NoError(t, dev.WriteBlock(homeBlockNumber, home))

	flat, err := dev.Container().Save(container.Flat)
	require.NoError(t, err)

	flatContainer, err := container.Load(flat)
	require.NoError(t, err)
	imdContainer, err := flatContainer.Convert(container.Imd)
	require.NoError(t, err)
	imdBytes, err := imdContainer.Save(container.Imd)
	require.NoError(t, err)
	return imdBytes
}

// TestLoadIMDFixtureListsExpectedFile covers scenario S4.
func TestLoadIMDFixtureListsExpectedFile(t *testing.T) {
	imdBytes := buildIMDFixture(t)

	c, err := container.Load(imdBytes)
	require.NoError(t, err)
	assert.Equal(t, container.Imd, c.Kind)

	home, err := block.New(c).ReadBlock(homeBlockNumber)
	require.NoError(t, err)
	assert.False(t, VerifyChecksum(home), "fixture must carry a checksum mismatch, per S4")

	fs, err := Open(block.New(c), nil)
	require.NoError(t, err)

	view, ok, err := fs.Stat("RT11SJ.SYS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(80), view.Length)

	year, month, day, hasDate := view.Date()
	require.True(t, hasDate)
	assert.Equal(t, 1988, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 7, day)
}

// TestConvertIMDFixtureToFlatPreservesEnumeration covers scenario S5.
func TestConvertIMDFixtureToFlatPreservesEnumeration(t *testing.T) {
	imdBytes := buildIMDFixture(t)

	imdC, err := container.Load(imdBytes)
	require.NoError(t, err)
	before, err := Open(block.New(imdC), nil)
	require.NoError(t, err)

	flatOut, err := imdC.Save(container.Flat)
	require.NoError(t, err)
	flatC, err := container.Load(flatOut)
	require.NoError(t, err)
	assert.Equal(t, container.Flat, flatC.Kind)

	after, err := Open(block.New(flatC), nil)
	require.NoError(t, err)

	beforeEntries := before.Enumerate(true)
	afterEntries := after.Enumerate(true)
	require.Len(t, afterEntries, len(beforeEntries))
	for i := range beforeEntries {
		assert.Equal(t, beforeEntries[i].Name(), afterEntries[i].Name())
		assert.Equal(t, beforeEntries[i].Kind, afterEntries[i].Kind)
		assert.Equal(t, beforeEntries[i].Length, afterEntries[i].Length)
		assert.Equal(t, beforeEntries[i].StartBlock, afterEntries[i].StartBlock)
	}
}
