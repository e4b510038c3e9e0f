package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/container"
)

// invert reconstructs the sequential sector index that produced (track,
// sector) under g's interleave+skew formula, for property 5: the mapping
// must be a bijection so every physical location round-trips to a unique
// logical/sequential index.
func invert(g container.Geometry, track, sector int) int {
	spt := g.SectorsPerTrack
	pre := ((sector - g.TrackSkew*track) % spt + spt) % spt

	s0 := pre
	if len(g.Interleave) == spt {
		for i, v := range g.Interleave {
			if int(v) == pre {
				s0 = i
				break
			}
		}
	}
	return track*spt + s0
}

func TestRX01MappingIsBijective(t *testing.T) {
	g := container.RX01Geometry()
	total := g.SectorsPerTrack * g.Tracks

	seen := make(map[int]bool, total)
	for l := 0; l < total; l++ {
		track, sector := sectorsToTrackSector(g, l)
		require.False(t, seen[track*g.SectorsPerTrack+sector], "duplicate physical location for L=%d", l)
		seen[track*g.SectorsPerTrack+sector] = true

		got := invert(g, track, sector)
		assert.Equal(t, l%total, got, "inverse mapping mismatch for L=%d", l)
	}
	assert.Equal(t, total, len(seen))
}

func TestRX01LogicalBlockToFirstSectorConvention(t *testing.T) {
	g := container.RX01Geometry()
	for l := 0; l < 500; l++ {
		first := l*4 + g.ReservedSectors
		track, sector := sectorsToTrackSector(g, first)
		recovered := invert(g, track, sector)
		assert.Equal(t, first%(g.SectorsPerTrack*g.Tracks), recovered)
	}
}

func TestFlatGeometryIsIdentity(t *testing.T) {
	g, err := container.FlatGeometry(4096)
	require.NoError(t, err)

	for l := 0; l < g.Tracks; l++ {
		track, sector := sectorsToTrackSector(g, l)
		assert.Equal(t, l, track)
		assert.Equal(t, 0, sector)
	}
}
