package block

import "rt11img/container"

// sectorsToTrackSector converts a physical sector index, counted
// sequentially from the start of the whole device ignoring interleave, into
// a (track, sector-within-track) pair, then applies the geometry's
// interleave permutation and per-track skew.
//
// For RX01 this implements spec §4.2 exactly:
//
//  1. track = (L / sectorsPerTrack) mod tracks
//  2. s0 = L mod sectorsPerTrack
//  3. sectorPreSkew = interleave[s0]
//  4. sector = (sectorPreSkew + trackSkew*track) mod sectorsPerTrack
//
// For a flat device (no interleave table, zero skew) this collapses to the
// identity mapping: track = L / sectorsPerTrack (== L, since
// sectorsPerTrack==1), sector = 0.
func sectorsToTrackSector(g container.Geometry, sectorIndex int) (track, sector int) {
	spt := g.SectorsPerTrack
	track = (sectorIndex / spt) % g.Tracks
	s0 := sectorIndex % spt

	preSkew := s0
	if len(g.Interleave) == spt {
		preSkew = int(g.Interleave[s0])
	}

	sector = (preSkew + g.TrackSkew*track) % spt
	return track, sector
}
