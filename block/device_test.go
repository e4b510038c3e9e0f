package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/container"
)

func newBlankRX01Device(t *testing.T) *Device {
	t.Helper()
	data := make([]byte, container.RX01Geometry().TotalBytes())
	c, err := container.Load(data)
	require.NoError(t, err)
	return New(c)
}

func TestDeviceBlockCountRX01(t *testing.T) {
	d := newBlankRX01Device(t)
	assert.Equal(t, 500, d.BlockCount())
}

func TestDeviceReadWriteRoundTrip(t *testing.T) {
	d := newBlankRX01Device(t)

	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, d.WriteBlock(14, payload))

	got, err := d.ReadBlock(14)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Writing block 14 must not disturb its neighbors.
	other, err := d.ReadBlock(15)
	require.NoError(t, err)
	for _, b := range other {
		assert.Equal(t, byte(0), b)
	}
}

func TestDeviceFlatHardDisk(t *testing.T) {
	data := make([]byte, 2<<20)
	c, err := container.Load(data)
	require.NoError(t, err)
	d := New(c)

	assert.Equal(t, len(data)/512, d.BlockCount())

	payload := make([]byte, 512)
	payload[0] = 0xFE
	require.NoError(t, d.WriteBlock(0, payload))
	got, err := d.ReadBlock(0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
