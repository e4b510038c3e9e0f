// Package rt11 implements the RT-11 (and byte-compatible XXDP) on-disk
// filesystem: the home block, the directory segment chain, and the
// enumerate/insert/extract/rename/remove/format operations that mutate it.
// It is layered on a block.Device and knows nothing about image containers
// or host files.
package rt11

import (
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rt11img/block"
	"rt11img/radix50"
	"rt11img/rt11err"
)

// FilesystemKind distinguishes RT-11 from its XXDP variant, which shares
// the on-disk layout entirely except for the home block's system-id (and,
// at mkfs time, system-version) fields (spec §4.3.3, §6.2).
type FilesystemKind int

const (
	RT11 FilesystemKind = iota
	XXDP
)

// homeBlockNumber is the fixed logical block holding the home block.
const homeBlockNumber = 1

// defaultFirstDirectorySegmentBlock is the conventional location of segment
// 1, per spec §3.3.
const defaultFirstDirectorySegmentBlock = 6

// Filesystem is an open RT-11 (or XXDP) volume: the decoded home block plus
// the directory segment chain, backed by a block.Device.
type Filesystem struct {
	dev  *block.Device
	home *HomeBlock

	// segments holds every segment reachable from the chain, keyed by its
	// 1-based index.
	segments map[int]*Segment
	// chain is the traversal order: chain[0] is always segment 1.
	chain []int

	dirty bool
	log   *logrus.Logger
}

// EntryView is the read-only projection of a directory entry Enumerate/Stat
// return to callers.
type EntryView struct {
	Filename           string
	Extension          string
	Length             uint16
	CreationDate       uint16
	Kind               EntryKind
	PreAllocated       bool
	ProtectedByMonitor bool
	StartBlock         int
}

// Name returns the "NAME.EXT" display form.
func (v EntryView) Name() string {
	if v.Extension == "" {
		return v.Filename
	}
	return v.Filename + "." + v.Extension
}

// Date returns the decoded creation date, if any.
func (v EntryView) Date() (year, month, day int, ok bool) {
	return DecodeCreationDate(v.CreationDate)
}

func entryView(e Entry) EntryView {
	return EntryView{
		Filename:           e.Filename,
		Extension:          e.Extension,
		Length:             e.Length,
		CreationDate:       e.CreationDate,
		Kind:               e.Kind,
		PreAllocated:       e.PreAllocated,
		ProtectedByMonitor: e.ProtectedByMonitor,
		StartBlock:         e.StartBlock,
	}
}

// Open reads the home block and walks the directory segment chain of dev.
// A checksum mismatch is logged as a warning, not returned as an error.
func Open(dev *block.Device, log *logrus.Logger) (*Filesystem, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	blk1, err := dev.ReadBlock(homeBlockNumber)
	if err != nil {
		return nil, errors.Wrap(err, "rt11: reading home block")
	}
	if !VerifyChecksum(blk1) {
		log.Warn("rt11: home block checksum mismatch")
	}
	home, err := DecodeHomeBlock(blk1)
	if err != nil {
		return nil, err
	}
	if home.ClusterSize != 1 {
		return nil, rt11err.Newf(rt11err.GeometryMismatch, "unsupported cluster size %d (only 1 is supported)", home.ClusterSize)
	}

	fs := &Filesystem{
		dev:      dev,
		home:     home,
		segments: make(map[int]*Segment),
		log:      log,
	}

	idx := 1
	visited := map[int]bool{}
	for idx != 0 {
		if visited[idx] {
			return nil, rt11err.Newf(rt11err.Corruption, "directory segment chain loops back to segment %d", idx).WithInvariant(2)
		}
		visited[idx] = true

		seg, err := fs.readSegment(idx)
		if err != nil {
			return nil, err
		}
		fs.segments[idx] = seg
		fs.chain = append(fs.chain, idx)
		idx = int(seg.NextSegment)
	}

	return fs, nil
}

// segmentBlockStart returns the logical block at which segment index begins.
func (fs *Filesystem) segmentBlockStart(index int) int {
	return int(fs.home.FirstDirectorySegmentBlock) + segmentBlocks*(index-1)
}

func (fs *Filesystem) readSegment(index int) (*Segment, error) {
	start := fs.segmentBlockStart(index)
	buf := make([]byte, 0, segmentBlocks*512)
	for b := 0; b < segmentBlocks; b++ {
		block, err := fs.dev.ReadBlock(start + b)
		if err != nil {
			return nil, errors.Wrapf(err, "rt11: reading segment %d", index)
		}
		buf = append(buf, block...)
	}
	return decodeSegment(index, buf)
}

func (fs *Filesystem) writeSegment(s *Segment) error {
	buf, err := s.encode()
	if err != nil {
		return err
	}
	start := fs.segmentBlockStart(s.Index)
	for b := 0; b < segmentBlocks; b++ {
		if err := fs.dev.WriteBlock(start+b, buf[b*512:(b+1)*512]); err != nil {
			return errors.Wrapf(err, "rt11: writing segment %d", s.Index)
		}
	}
	return nil
}

func (fs *Filesystem) writeHomeBlock() error {
	return fs.dev.WriteBlock(homeBlockNumber, fs.home.Encode())
}

// IsDirty reports whether the filesystem has been mutated since Open. A
// filesystem returned by Format is already dirty.
func (fs *Filesystem) IsDirty() bool {
	return fs.dirty
}

// recomputeStartBlocks recalculates every entry's StartBlock in segment s
// from its DataBlockStart, per invariant 1.
func (s *Segment) recomputeStartBlocks() {
	running := int(s.DataBlockStart)
	for i := range s.Entries {
		if s.Entries[i].Kind == KindEndOfSegment {
			continue
		}
		s.Entries[i].StartBlock = running
		running += int(s.Entries[i].Length)
	}
}

// Enumerate returns directory entries in chain (= block-range) order.
// EMPTY and TENTATIVE entries are only included when includeNonPermanent is
// true; END_OF_SEGMENT sentinels are never included.
func (fs *Filesystem) Enumerate(includeNonPermanent bool) []EntryView {
	var out []EntryView
	for _, idx := range fs.chain {
		seg := fs.segments[idx]
		for _, e := range seg.fileEntries() {
			if e.Kind == KindPermanent || includeNonPermanent {
				out = append(out, entryView(e))
			}
		}
	}
	return out
}

// ParseName splits and validates a "NAME.EXT" (or bare "NAME") string into
// its uppercase, radix-50-representable filename and extension, per spec
// §4.3.2 step 1.
func ParseName(name string) (filename, extension string, err error) {
	parts := strings.SplitN(name, ".", 2)
	filename = strings.ToUpper(parts[0])
	if len(parts) == 2 {
		extension = strings.ToUpper(parts[1])
	}
	if len(filename) == 0 || len(filename) > 6 {
		return "", "", rt11err.Newf(rt11err.NameInvalid, "filename %q must be 1-6 characters", filename).WithName(name)
	}
	if len(extension) > 3 {
		return "", "", rt11err.Newf(rt11err.NameInvalid, "extension %q must be at most 3 characters", extension).WithName(name)
	}
	if _, err := radix50.Encode(filename); err != nil {
		return "", "", err
	}
	if _, err := radix50.Encode(extension); err != nil {
		return "", "", err
	}
	return filename, extension, nil
}

type entryLocation struct {
	segmentIndex int
	entryIndex   int
}

// find locates the first entry in chain order matching pred.
func (fs *Filesystem) find(pred func(Entry) bool) (entryLocation, Entry, bool) {
	for _, idx := range fs.chain {
		seg := fs.segments[idx]
		for i, e := range seg.Entries {
			if e.Kind == KindEndOfSegment {
				continue
			}
			if pred(e) {
				return entryLocation{idx, i}, e, true
			}
		}
	}
	return entryLocation{}, Entry{}, false
}

func matchesName(e Entry, filename, extension string) bool {
	return e.Kind == KindPermanent && e.Filename == filename && e.Extension == extension
}

// Stat looks up a permanent entry by "NAME.EXT" (case-insensitive).
func (fs *Filesystem) Stat(name string) (EntryView, bool, error) {
	filename, extension, err := ParseName(name)
	if err != nil {
		return EntryView{}, false, err
	}
	_, e, ok := fs.find(func(e Entry) bool { return matchesName(e, filename, extension) })
	if !ok {
		return EntryView{}, false, nil
	}
	return entryView(e), true, nil
}

// Extract returns exactly Length*512 bytes of file data for name.
func (fs *Filesystem) Extract(name string) ([]byte, error) {
	view, ok, err := fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rt11err.Newf(rt11err.NotFound, "file not found").WithName(name)
	}

	out := make([]byte, 0, int(view.Length)*512)
	for b := 0; b < int(view.Length); b++ {
		blk, err := fs.dev.ReadBlock(view.StartBlock + b)
		if err != nil {
			return nil, errors.Wrapf(err, "rt11: extracting %s", name)
		}
		out = append(out, blk...)
	}
	return out, nil
}

// freeBlocks sums space available for allocation. Per spec §9's tolerated
// ambiguity, TENTATIVE entries count as free here even though Insert only
// ever allocates from KindEmpty entries.
func (fs *Filesystem) freeBlocks() int {
	total := 0
	for _, idx := range fs.chain {
		for _, e := range fs.segments[idx].fileEntries() {
			if e.Kind == KindEmpty || e.Kind == KindTentative {
				total += int(e.Length)
			}
		}
	}
	return total
}

// Insert adds or replaces a permanent entry named name with the given
// bytes, stamping today's date (UTC) as the creation date.
func (fs *Filesystem) Insert(name string, data []byte) error {
	return fs.InsertWithDate(name, data, time.Now().UTC())
}

// InsertWithDate is Insert with an explicit creation date, per spec §4.3.2.
func (fs *Filesystem) InsertWithDate(name string, data []byte, date time.Time) error {
	filename, extension, err := ParseName(name)
	if err != nil {
		return err
	}

	needed := (len(data) + 511) / 512

	if _, _, ok := fs.find(func(e Entry) bool { return matchesName(e, filename, extension) }); ok {
		if err := fs.Remove(name); err != nil {
			return err
		}
	}

	loc, empty, ok := fs.find(func(e Entry) bool {
		return e.Kind == KindEmpty && int(e.Length) >= needed
	})
	if !ok {
		return rt11err.Newf(rt11err.NoSpace, "no free region of at least %d blocks", needed).WithName(name)
	}

	seg := fs.segments[loc.segmentIndex]

	permanent := Entry{
		Kind:         KindPermanent,
		Filename:     filename,
		Extension:    extension,
		Length:       uint16(needed),
		CreationDate: EncodeCreationDate(date.Year(), int(date.Month()), date.Day()),
	}

	remaining := int(empty.Length) - needed
	replacement := []Entry{permanent}
	if remaining > 0 {
		replacement = append(replacement, Entry{Kind: KindEmpty, Length: uint16(remaining)})
	}

	newEntries := make([]Entry, 0, len(seg.Entries)+len(replacement))
	newEntries = append(newEntries, seg.Entries[:loc.entryIndex]...)
	newEntries = append(newEntries, replacement...)
	newEntries = append(newEntries, seg.Entries[loc.entryIndex+1:]...)
	seg.Entries = newEntries
	seg.recomputeStartBlocks()

	if seg.entryCount() > maxEntries(int(seg.ExtraBytesPerEntry))-1 {
		if err := fs.splitSegment(seg); err != nil {
			return err
		}
		// Re-locate the permanent entry: splitSegment may have moved it to
		// the new tail segment.
		loc, _, ok = fs.find(func(e Entry) bool { return matchesName(e, filename, extension) })
		if !ok {
			return rt11err.New(rt11err.Corruption, "permanent entry lost its own insert after segment split")
		}
		seg = fs.segments[loc.segmentIndex]
	}

	if err := fs.writeSegment(seg); err != nil {
		return err
	}

	startBlock := seg.Entries[loc.entryIndex].StartBlock
	for b := 0; b < needed; b++ {
		blk := make([]byte, 512)
		off := b * 512
		end := off + 512
		if end > len(data) {
			end = len(data)
		}
		if off < len(data) {
			copy(blk, data[off:end])
		}
		if err := fs.dev.WriteBlock(startBlock+b, blk); err != nil {
			return errors.Wrapf(err, "rt11: writing data for %s", name)
		}
	}

	fs.dirty = true
	return nil
}

// splitSegment allocates an unused segment slot and moves roughly the tail
// half of seg's real entries into it, per spec §4.3.2 step 6.
func (fs *Filesystem) splitSegment(seg *Segment) error {
	newIndex := fs.findUnusedSegmentSlot()
	if newIndex == 0 {
		return rt11err.New(rt11err.DirectoryFull, "no unused directory segment slot available to split into")
	}

	entries := seg.fileEntries()
	splitAt := len(entries) / 2
	if splitAt == 0 {
		splitAt = 1
	}
	head := append([]Entry(nil), entries[:splitAt]...)
	tail := append([]Entry(nil), entries[splitAt:]...)

	tailDataStart := int(seg.DataBlockStart)
	for _, e := range head {
		tailDataStart += int(e.Length)
	}

	newSeg := &Segment{
		Index:               newIndex,
		TotalSegments:       seg.TotalSegments,
		NextSegment:         seg.NextSegment,
		HighestSegmentInUse: seg.HighestSegmentInUse,
		ExtraBytesPerEntry:  seg.ExtraBytesPerEntry,
		DataBlockStart:      uint16(tailDataStart),
		Entries:             append(tail, endOfSegmentEntry()),
	}
	newSeg.recomputeStartBlocks()

	seg.Entries = append(head, endOfSegmentEntry())
	seg.NextSegment = uint16(newIndex)
	seg.recomputeStartBlocks()

	fs.segments[newIndex] = newSeg
	pos := indexOf(fs.chain, seg.Index)
	fs.chain = append(fs.chain[:pos+1], append([]int{newIndex}, fs.chain[pos+1:]...)...)

	if int(newIndex) > int(fs.segment1().HighestSegmentInUse) {
		fs.segment1().HighestSegmentInUse = uint16(newIndex)
	}

	if err := fs.writeSegment(seg); err != nil {
		return err
	}
	if err := fs.writeSegment(newSeg); err != nil {
		return err
	}
	if seg.Index != 1 {
		if err := fs.writeSegment(fs.segment1()); err != nil {
			return err
		}
	}
	return nil
}

func (fs *Filesystem) segment1() *Segment {
	return fs.segments[1]
}

func (fs *Filesystem) findUnusedSegmentSlot() int {
	total := int(fs.segment1().TotalSegments)
	for i := 2; i <= total; i++ {
		if _, used := fs.segments[i]; !used {
			return i
		}
	}
	return 0
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// Remove deletes the permanent entry named name, converting it to EMPTY and
// coalescing with adjacent EMPTY siblings in the same segment, per spec
// §4.3.4.
func (fs *Filesystem) Remove(name string) error {
	filename, extension, err := ParseName(name)
	if err != nil {
		return err
	}

	loc, _, ok := fs.find(func(e Entry) bool { return matchesName(e, filename, extension) })
	if !ok {
		return rt11err.Newf(rt11err.NotFound, "file not found").WithName(name)
	}

	seg := fs.segments[loc.segmentIndex]
	seg.Entries[loc.entryIndex].Kind = KindEmpty
	seg.Entries[loc.entryIndex].PreAllocated = false
	seg.Entries[loc.entryIndex].ProtectedByMonitor = false
	seg.Entries[loc.entryIndex].Filename = ""
	seg.Entries[loc.entryIndex].Extension = ""
	seg.Entries[loc.entryIndex].CreationDate = 0

	coalesceSegment(seg)
	seg.recomputeStartBlocks()

	if err := fs.writeSegment(seg); err != nil {
		return err
	}
	fs.dirty = true
	return nil
}

// coalesceSegment merges consecutive EMPTY entries in seg into one,
// dropping the absorbed entries. Coalescence never crosses segment
// boundaries (spec §4.3.4).
func coalesceSegment(seg *Segment) {
	var merged []Entry
	for _, e := range seg.Entries {
		if e.Kind == KindEmpty && len(merged) > 0 && merged[len(merged)-1].Kind == KindEmpty {
			merged[len(merged)-1].Length += e.Length
			continue
		}
		merged = append(merged, e)
	}
	seg.Entries = merged
}

// Rename renames src to dest in place; no blocks move.
func (fs *Filesystem) Rename(src, dest string, overwrite bool) error {
	srcName, srcExt, err := ParseName(src)
	if err != nil {
		return err
	}
	destName, destExt, err := ParseName(dest)
	if err != nil {
		return err
	}

	if srcName == destName && srcExt == destExt {
		if _, _, ok := fs.find(func(e Entry) bool { return matchesName(e, srcName, srcExt) }); !ok {
			return rt11err.Newf(rt11err.NotFound, "file not found").WithName(src)
		}
		return nil
	}

	srcLoc, _, ok := fs.find(func(e Entry) bool { return matchesName(e, srcName, srcExt) })
	if !ok {
		return rt11err.Newf(rt11err.NotFound, "file not found").WithName(src)
	}

	if _, _, exists := fs.find(func(e Entry) bool { return matchesName(e, destName, destExt) }); exists {
		if !overwrite {
			return rt11err.Newf(rt11err.Exists, "destination already exists").WithName(dest)
		}
		if err := fs.Remove(dest); err != nil {
			return err
		}
		// Removing dest may have coalesced entries and shifted indices;
		// re-locate src.
		srcLoc, _, ok = fs.find(func(e Entry) bool { return matchesName(e, srcName, srcExt) })
		if !ok {
			return rt11err.New(rt11err.Corruption, "source entry lost during overwrite rename")
		}
	}

	seg := fs.segments[srcLoc.segmentIndex]
	seg.Entries[srcLoc.entryIndex].Filename = destName
	seg.Entries[srcLoc.entryIndex].Extension = destExt

	if err := fs.writeSegment(seg); err != nil {
		return err
	}
	fs.dirty = true
	return nil
}

// Format (re)initializes dev as a blank volume of the given filesystem kind,
// per spec §4.3.3.
func Format(dev *block.Device, kind FilesystemKind, log *logrus.Logger) (*Filesystem, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	zero := make([]byte, 512)
	blockCount := dev.BlockCount()
	for b := 0; b < blockCount; b++ {
		if err := dev.WriteBlock(b, zero); err != nil {
			return nil, errors.Wrap(err, "rt11: zeroing volume")
		}
	}

	totalSegments := 4
	if blockCount > 500 {
		totalSegments = blockCount / 100
		if totalSegments < 4 {
			totalSegments = 4
		}
		if totalSegments > 31 {
			totalSegments = 31
		}
	}

	firstDataBlock := defaultFirstDirectorySegmentBlock + 2*totalSegments

	systemID := "DECRT11A"
	systemVersion := "V3A"
	if kind == XXDP {
		systemID = "DECDXB"
		systemVersion = "V06"
	}
	versionWord, err := systemVersionWord(systemVersion)
	if err != nil {
		return nil, err
	}

	home := &HomeBlock{
		ClusterSize:                1,
		FirstDirectorySegmentBlock: defaultFirstDirectorySegmentBlock,
		SystemVersion:              versionWord,
		VolumeID:                   paddedASCII("RT11A"),
		OwnerName:                  paddedASCII(""),
		SystemID:                   paddedASCII(systemID),
	}
	if err := dev.WriteBlock(homeBlockNumber, home.Encode()); err != nil {
		return nil, errors.Wrap(err, "rt11: writing home block")
	}

	seg1 := &Segment{
		Index:               1,
		TotalSegments:       uint16(totalSegments),
		NextSegment:         0,
		HighestSegmentInUse: 1,
		ExtraBytesPerEntry:  0,
		DataBlockStart:      uint16(firstDataBlock),
		Entries: []Entry{
			{Kind: KindEmpty, Length: uint16(blockCount - firstDataBlock)},
			endOfSegmentEntry(),
		},
	}
	seg1.recomputeStartBlocks()

	fs := &Filesystem{
		dev:      dev,
		home:     home,
		segments: map[int]*Segment{1: seg1},
		chain:    []int{1},
		log:      log,
		dirty:    true,
	}
	if err := fs.writeSegment(seg1); err != nil {
		return nil, err
	}

	return fs, nil
}

// CheckInvariants validates every filesystem invariant in spec §3.5 against
// the current in-memory state, aggregating every violation found rather
// than stopping at the first.
func (fs *Filesystem) CheckInvariants() error {
	var result *multierror.Error

	names := map[string]bool{}
	firstFileBlock := fs.segments[1].DataBlockStart
	var ranges [][2]int // [start, end) of every PERMANENT/EMPTY region

	for _, idx := range fs.chain {
		seg := fs.segments[idx]

		// Invariant 6: exactly one END_OF_SEGMENT, always last.
		for i, e := range seg.Entries {
			isLast := i == len(seg.Entries)-1
			if e.Kind == KindEndOfSegment && !isLast {
				result = multierror.Append(result, errors.Errorf("segment %d: END_OF_SEGMENT is not the last entry", idx))
			}
		}
		if len(seg.Entries) == 0 || seg.Entries[len(seg.Entries)-1].Kind != KindEndOfSegment {
			result = multierror.Append(result, errors.Errorf("segment %d: missing terminal END_OF_SEGMENT", idx))
		}

		// Invariant 7: capacity.
		if seg.entryCount() > maxEntries(int(seg.ExtraBytesPerEntry))-1 {
			result = multierror.Append(result, errors.Errorf("segment %d: %d entries exceeds capacity", idx, seg.entryCount()))
		}

		// Invariant 1: contiguity within the segment.
		running := int(seg.DataBlockStart)
		var segmentLength int
		for _, e := range seg.fileEntries() {
			if e.StartBlock != running {
				result = multierror.Append(result, errors.Errorf("segment %d: entry %s starts at %d, expected %d", idx, e.Filename, e.StartBlock, running))
			}
			running += int(e.Length)
			segmentLength += int(e.Length)

			if e.Kind == KindPermanent || e.Kind == KindEmpty {
				ranges = append(ranges, [2]int{e.StartBlock, e.StartBlock + int(e.Length)})
			}
			if e.Kind == KindPermanent {
				key := e.Filename + "." + e.Extension
				if names[key] {
					result = multierror.Append(result, errors.Errorf("duplicate permanent entry name %q", key))
				}
				names[key] = true
			}
		}

		// Invariant 2: segment boundary continuity.
		if seg.NextSegment != 0 {
			next, ok := fs.segments[int(seg.NextSegment)]
			if ok && int(next.DataBlockStart) < int(seg.DataBlockStart)+segmentLength {
				result = multierror.Append(result, errors.Errorf("segment %d -> %d: boundary gap violated", idx, seg.NextSegment))
			}
		}
	}

	// Invariant 3: no overlap across segments.
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	for i := 1; i < len(ranges); i++ {
		if ranges[i][0] < ranges[i-1][1] {
			result = multierror.Append(result, errors.Errorf("block ranges overlap: [%d,%d) and [%d,%d)", ranges[i-1][0], ranges[i-1][1], ranges[i][0], ranges[i][1]))
		} else if ranges[i][0] > ranges[i-1][1] {
			result = multierror.Append(result, errors.Errorf("block ranges leave a gap: [%d,%d) and [%d,%d)", ranges[i-1][0], ranges[i-1][1], ranges[i][0], ranges[i][1]))
		}
	}

	// Invariant 4: free space covers [first_file_block, block_count).
	if len(ranges) > 0 {
		lastEnd := ranges[len(ranges)-1][1]
		if lastEnd != fs.dev.BlockCount() {
			result = multierror.Append(result, errors.Errorf("directory ranges end at block %d, expected block_count %d", lastEnd, fs.dev.BlockCount()))
		}
		if ranges[0][0] != int(firstFileBlock) {
			result = multierror.Append(result, errors.Errorf("directory ranges start at block %d, expected first_data_block %d", ranges[0][0], firstFileBlock))
		}
	}

	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}
