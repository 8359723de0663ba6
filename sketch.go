// Package resketch implements a resizable, mergeable, partitionable
// frequency-estimation sketch. A single Sketch value answers bounded-error
// per-item frequency queries over a stream of 64-bit item identifiers, and
// supports three structural transforms that conventional frequency
// sketches do not combine: Expand/Shrink (resize a live sketch), Merge
// (combine two sketches into one of larger capacity), and Split (divide
// one sketch into two that jointly cover the same key domain).
//
// A Sketch is a plain value type: single-threaded, deterministic given its
// seeds, with no internal synchronization. Concurrent access must be
// guarded by the caller.
package resketch

import (
	"math/rand"

	"github.com/resketch/resketch/internal/hashing"
)

// Sketch is a depth-d, width-w frequency sketch: d independent rows, each
// a consistent-hash ring of w buckets, each bucket owning a KLL quantile
// sketch over the placement-hash values of items routed to it.
type Sketch struct {
	depth         uint32
	width         uint32
	kllK          uint32
	partitionSeed uint32
	rowSeeds      []uint32
	rows          []*row

	// ownedArcs is the set of arcs of the key domain this sketch answers
	// for. nil means the whole domain (a freshly built or freshly merged
	// sketch). Split populates it on both children so that, between them,
	// every item is owned by exactly one side.
	ownedArcs []Range

	rng *rand.Rand
}

// Config holds the parameters needed to deterministically construct a
// Sketch.
type Config struct {
	Depth         uint32
	Width         uint32
	KLLK          uint32
	PartitionSeed uint32
	RowSeeds      []uint32 // must have length Depth
	Rand          *rand.Rand
}

// New builds a sketch from an explicit configuration. If cfg.RowSeeds is
// nil, row seeds are derived deterministically from cfg.Rand. If cfg.Rand
// is nil, a source seeded from cfg.PartitionSeed is used so that
// construction remains reproducible from a single seed.
func New(cfg Config) *Sketch {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(cfg.PartitionSeed)))
	}

	rowSeeds := cfg.RowSeeds
	if rowSeeds == nil {
		rowSeeds = make([]uint32, cfg.Depth)
		for i := range rowSeeds {
			rowSeeds[i] = rng.Uint32()
		}
	}

	rows := make([]*row, cfg.Depth)
	for i := range rows {
		rows[i] = newRow(int(cfg.Width), cfg.KLLK, rowSeeds[i], rng)
	}

	return &Sketch{
		depth:         cfg.Depth,
		width:         cfg.Width,
		kllK:          cfg.KLLK,
		partitionSeed: cfg.PartitionSeed,
		rowSeeds:      rowSeeds,
		rows:          rows,
		rng:           rng,
	}
}

// FromBudget constructs a sketch sized to fit within budgetBytes, computing
// the largest feasible width for the given depth and kll_k.
func FromBudget(budgetBytes uint64, depth, kllK, partitionSeed uint32, rng *rand.Rand) *Sketch {
	width := CalculateMaxWidth(budgetBytes, depth, kllK)
	return New(Config{
		Depth:         depth,
		Width:         width,
		KLLK:          kllK,
		PartitionSeed: partitionSeed,
		Rand:          rng,
	})
}

// Depth returns the number of rows.
func (s *Sketch) Depth() uint32 { return s.depth }

// Width returns the number of buckets per row.
func (s *Sketch) Width() uint32 { return s.width }

// KLLK returns the k parameter shared by every row's buckets' KLLs.
func (s *Sketch) KLLK() uint32 { return s.kllK }

// partitionHash computes the sketch-wide, row-independent hash that fixes
// item's ring identity for its whole lifetime.
func (s *Sketch) partitionHash(item uint64) uint64 {
	return hashing.PartitionHash(item, s.partitionSeed)
}

// Update records one occurrence of item.
func (s *Sketch) Update(item uint64) {
	p := s.partitionHash(item)
	for _, rw := range s.rows {
		rw.update(p)
	}
}

// Estimate returns the mean, over rows, of each row's frequency estimate
// for item. Averaging (rather than taking the min, as Count-Min does)
// suits KLL's per-value estimator being unbiased in expectation.
func (s *Sketch) Estimate(item uint64) float64 {
	if len(s.rows) == 0 {
		return 0
	}
	p := s.partitionHash(item)
	var total float64
	for _, rw := range s.rows {
		total += rw.estimate(p)
	}
	return total / float64(len(s.rows))
}

// Expand grows the sketch to newWidth buckets per row. Each row
// independently extends its ring with newWidth-Width() fresh random points
// and remaps its existing buckets onto the enlarged ring.
func (s *Sketch) Expand(newWidth uint32) error {
	if newWidth <= s.width {
		return ErrInvalidResize
	}
	for _, rw := range s.rows {
		if err := rw.expand(int(newWidth), s.kllK, s.rng); err != nil {
			return err
		}
	}
	s.width = newWidth
	return nil
}

// Shrink reduces the sketch to newWidth buckets per row. Each row
// independently evicts ring points down to newWidth and remaps its
// existing buckets onto the reduced ring.
func (s *Sketch) Shrink(newWidth uint32) error {
	if newWidth >= s.width || newWidth == 0 {
		return ErrInvalidResize
	}
	for _, rw := range s.rows {
		if err := rw.shrink(int(newWidth), s.kllK, s.rng); err != nil {
			return err
		}
	}
	s.width = newWidth
	return nil
}

// Merge combines s1 and s2 into a new sketch of width s1.Width()+s2.Width().
// s1 and s2 must agree on depth, kll_k, partition seed, and every row seed.
// Each row's rings are concatenated (s2's bucket ids offset by s1's
// width), and both sources' buckets are remapped onto the combined ring
// and summed/merged pairwise.
func Merge(s1, s2 *Sketch) (*Sketch, error) {
	if !compatible(s1, s2) {
		return nil, ErrIncompatibleSketches
	}

	rng := s1.rng
	rows := make([]*row, s1.depth)
	for i := range rows {
		merged, err := mergeRows(s1.rows[i], s2.rows[i], s1.kllK, rng)
		if err != nil {
			return nil, err
		}
		rows[i] = merged
	}

	return &Sketch{
		depth:         s1.depth,
		width:         s1.width + s2.width,
		kllK:          s1.kllK,
		partitionSeed: s1.partitionSeed,
		rowSeeds:      append([]uint32(nil), s1.rowSeeds...),
		rows:          rows,
		rng:           rng,
	}, nil
}

func compatible(s1, s2 *Sketch) bool {
	if s1.depth != s2.depth || s1.kllK != s2.kllK || s1.partitionSeed != s2.partitionSeed {
		return false
	}
	if len(s1.rowSeeds) != len(s2.rowSeeds) {
		return false
	}
	for i := range s1.rowSeeds {
		if s1.rowSeeds[i] != s2.rowSeeds[i] {
			return false
		}
	}
	return true
}

// Split partitions s into two sketches of width w1 and w2, w1+w2 == s.Width().
// For each row, the first w1 ring entries (in ring order) and their
// buckets form the left child; the remaining w2 form the right child. No
// remap is needed: each child's buckets already summarize exactly the
// items routed through the arcs it inherits.
//
// Using row 0 as the reference, the arcs row 0's current ring assigns to
// the first w1 points become the left child's ownedArcs, and the arcs it
// assigns to the rest become the right child's -- so IsResponsibleFor
// answers true for a given item on exactly one of the two children.
func Split(s *Sketch, w1, w2 uint32) (*Sketch, *Sketch, error) {
	if w1+w2 != s.width {
		return nil, nil, ErrInvalidSplit
	}

	leftRows := make([]*row, s.depth)
	rightRows := make([]*row, s.depth)
	for i, rw := range s.rows {
		leftRows[i], rightRows[i] = splitRow(rw, int(w1), int(w2))
	}

	var leftArcs, rightArcs []Range
	if len(s.rows) > 0 {
		// AllRanges walks s.rows[0]'s points in the same ascending-value
		// order as Points(), so its ith entry is exactly the arc owned
		// by the ith point -- the same point splitRow hands to the left
		// child for i < w1 and to the right child otherwise.
		fullArcs := s.rows[0].r.AllRanges()
		for i := 0; i < int(w1); i++ {
			leftArcs = append(leftArcs, Range{Start: fullArcs[i].Range.Start, End: fullArcs[i].Range.End})
		}
		for i := int(w1); i < len(fullArcs); i++ {
			rightArcs = append(rightArcs, Range{Start: fullArcs[i].Range.Start, End: fullArcs[i].Range.End})
		}
	}

	left := &Sketch{
		depth: s.depth, width: w1, kllK: s.kllK, partitionSeed: s.partitionSeed,
		rowSeeds: append([]uint32(nil), s.rowSeeds...), rows: leftRows, rng: s.rng,
		ownedArcs: leftArcs,
	}
	right := &Sketch{
		depth: s.depth, width: w2, kllK: s.kllK, partitionSeed: s.partitionSeed,
		rowSeeds: append([]uint32(nil), s.rowSeeds...), rows: rightRows, rng: s.rng,
		ownedArcs: rightArcs,
	}
	return left, right, nil
}

// IsResponsibleFor reports whether item's placement hash, under row 0 --
// the canonical reference row, since rows' independently-sampled rings
// can disagree at arc boundaries -- falls within an arc this sketch
// still owns. A sketch with no split ancestry (ownedArcs == nil) is
// responsible for every item.
func (s *Sketch) IsResponsibleFor(item uint64) bool {
	if len(s.rows) == 0 {
		return false
	}
	if s.ownedArcs == nil {
		return true
	}
	q := s.rows[0].placement(s.partitionHash(item))
	for _, rg := range s.ownedArcs {
		if rangeContains(rg, q) {
			return true
		}
	}
	return false
}

// PartitionRanges enumerates the arcs of the key domain this sketch is
// responsible for. For a sketch with no split ancestry this is the
// single range [0, 2^64), represented as the sentinel Range{0, 0}.
func (s *Sketch) PartitionRanges() []Range {
	if len(s.rows) == 0 {
		return nil
	}
	if s.ownedArcs == nil {
		return []Range{{Start: 0, End: 0}}
	}
	return append([]Range(nil), s.ownedArcs...)
}

// rangeContains reports whether v lies in the half-open arc (rg.Start,
// rg.End], honoring both conventions: rg.Start == rg.End denotes the
// whole domain, and rg.Start > rg.End denotes an arc that wraps through
// 2^64-1 back to 0.
func rangeContains(rg Range, v uint64) bool {
	switch {
	case rg.Start == rg.End:
		return true
	case rg.Start < rg.End:
		return v > rg.Start && v <= rg.End
	default:
		return v > rg.Start || v <= rg.End
	}
}

// Range is a half-open arc (Start, End] of the 64-bit key domain. The
// wrap-around arc (the one containing 0) is represented with Start > End;
// Start == End denotes the entire domain.
type Range struct {
	Start uint64
	End   uint64
}
