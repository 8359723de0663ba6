// Package kll implements a compactor-stack KLL sketch specialized to
// summarize a weighted multiset of 64-bit hash values. It underlies the
// sketch's per-bucket placement-hash distribution tracking: range counts
// and range rebuilds on stored hash values are what let a row be
// restructured onto a new ring without re-ingesting the stream.
package kll

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// compactionFactor is the ratio between a level's capacity and the next
// level's (c in cap(L) = ceil(k * c^(numLevels-1-L))).
const compactionFactor = 2.0 / 3.0

// ErrIncompatibleParameters is returned by Merge when the two sketches
// were built with different k.
var ErrIncompatibleParameters = errors.New("kll: sketches have different k parameters")

// Sketch is a weighted-multiset summary over uint64 values.
//
// It is not safe for concurrent use; callers needing shared access must
// provide their own synchronization.
type Sketch struct {
	k      uint32
	n      uint64
	levels [][]uint64
	rng    *rand.Rand
}

// New returns an empty sketch with the given k. k controls both accuracy
// and the sketch's maximum memory footprint (see MaxMemoryUsage).
func New(k uint32, rng *rand.Rand) *Sketch {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Sketch{
		k:      k,
		levels: [][]uint64{nil},
		rng:    rng,
	}
}

// K returns the sketch's configured k parameter.
func (s *Sketch) K() uint32 { return s.k }

// N returns the total weight of items summarized so far.
func (s *Sketch) N() uint64 { return s.n }

func (s *Sketch) levelCapacity(level int) uint64 {
	if s.k == 0 {
		return math.MaxUint64
	}
	numLevels := len(s.levels)
	exp := float64(numLevels - 1 - level)
	return uint64(math.Ceil(float64(s.k) * math.Pow(compactionFactor, exp)))
}

// Update inserts v with weight 1 into level 0, compacting upward if level 0
// overflows its capacity.
func (s *Sketch) Update(v uint64) {
	s.levels[0] = append(s.levels[0], v)
	s.n++
	if uint64(len(s.levels[0])) >= s.levelCapacity(0) {
		s.compact(0)
	}
}

// UpdateWeighted inserts v at every level corresponding to a set bit of
// weight, so that item v carries total weight `weight` (level L carries
// weight 2^L). Levels are created on demand. If compress is false, no
// level is compacted by this call, and levels may exceed their capacity
// until a later Update or Merge compacts them.
func (s *Sketch) UpdateWeighted(v uint64, weight uint64, compress bool) {
	if weight == 0 {
		return
	}
	s.n += weight
	level := 0
	for weight > 0 {
		if weight&1 == 1 {
			for level >= len(s.levels) {
				s.levels = append(s.levels, nil)
			}
			s.levels[level] = append(s.levels[level], v)
		}
		weight >>= 1
		level++
	}
	if compress {
		for i := 0; i < len(s.levels); i++ {
			if uint64(len(s.levels[i])) >= s.levelCapacity(i) {
				s.compact(i)
			}
		}
	}
}

// compact sorts level, keeps every other element (random phase), and
// promotes the survivors to level+1, cascading if that level now overflows.
// When the level holds an odd number of items, its largest item stays
// behind at this level, so the total stored weight always equals N().
func (s *Sketch) compact(level int) {
	if level >= len(s.levels) || uint64(len(s.levels[level])) < s.levelCapacity(level) {
		return
	}
	if level+1 >= len(s.levels) {
		s.levels = append(s.levels, nil)
	}

	src := s.levels[level]
	sort.Slice(src, func(i, j int) bool { return src[i] < src[j] })
	var leftover []uint64
	if len(src)%2 == 1 {
		leftover = []uint64{src[len(src)-1]}
		src = src[:len(src)-1]
	}

	offset := 0
	if s.rng.Intn(2) == 1 {
		offset = 1
	}
	kept := 0
	for i := offset; i < len(src); i += 2 {
		src[kept] = src[i]
		kept++
	}
	s.levels[level] = src[:kept:kept]
	s.levels[level+1] = append(s.levels[level+1], src[:kept]...)
	s.levels[level] = leftover

	if uint64(len(s.levels[level+1])) >= s.levelCapacity(level+1) {
		s.compact(level + 1)
	}
}

// Estimate returns the estimated count of v in the stream this sketch
// summarized: the sum, over levels, of (occurrences of v at that level)
// times the level's weight (2^L).
func (s *Sketch) Estimate(v uint64) float64 {
	var total float64
	for level, items := range s.levels {
		weight := float64(uint64(1) << uint(level))
		for _, item := range items {
			if item == v {
				total += weight
			}
		}
	}
	return total
}

// inRange reports whether item falls in the half-open range (lo, hi]. When
// lo <= hi this is the ordinary arc; when lo > hi the range wraps through
// the top of the uint64 domain, covering (lo, 2^64) union [0, hi] -- the
// convention a remap's first union-point step needs, since it walks from
// the largest ring point back around to the smallest.
func inRange(item, lo, hi uint64) bool {
	if lo <= hi {
		return item > lo && item <= hi
	}
	return item > lo || item <= hi
}

// CountInRange returns the estimated weighted count of values in the
// half-open, exclusive-lower-inclusive-upper range (lo, hi] (see inRange
// for the lo > hi wraparound convention).
func (s *Sketch) CountInRange(lo, hi uint64) float64 {
	var total float64
	for level, items := range s.levels {
		weight := float64(uint64(1) << uint(level))
		for _, item := range items {
			if inRange(item, lo, hi) {
				total += weight
			}
		}
	}
	return total
}

// Rebuild returns a new sketch containing exactly the items of s falling
// in (lo, hi] (see inRange for the lo > hi wraparound convention),
// preserving their level index and weight. It performs no recompaction:
// the result's per-level counts may exceed the normal capacity schedule,
// which is safe since it is only ever merged into another sketch (Merge
// recompacts as needed).
func (s *Sketch) Rebuild(lo, hi uint64) *Sketch {
	out := New(s.k, s.rng)
	out.levels = make([][]uint64, len(s.levels))
	for level, items := range s.levels {
		weight := uint64(1) << uint(level)
		for _, item := range items {
			if inRange(item, lo, hi) {
				out.levels[level] = append(out.levels[level], item)
				out.n += weight
			}
		}
	}
	return out
}

// Merge absorbs other's levels into s, compacting any level that overflows
// as a result (low to high, so cascades behave the same as ordinary
// updates).
func (s *Sketch) Merge(other *Sketch) error {
	if other == nil || other.n == 0 {
		return nil
	}
	if s.k != other.k {
		return ErrIncompatibleParameters
	}
	s.n += other.n
	for len(s.levels) < len(other.levels) {
		s.levels = append(s.levels, nil)
	}
	for level, items := range other.levels {
		s.levels[level] = append(s.levels[level], items...)
	}
	for level := 0; level < len(s.levels); level++ {
		if uint64(len(s.levels[level])) >= s.levelCapacity(level) {
			s.compact(level)
		}
	}
	return nil
}

// ForEachSummarizedItem visits every stored value with its level weight.
func (s *Sketch) ForEachSummarizedItem(f func(item uint64, weight uint64)) {
	for level, items := range s.levels {
		if len(items) == 0 {
			continue
		}
		weight := uint64(1) << uint(level)
		for _, item := range items {
			f(item, weight)
		}
	}
}

// MaxMemoryUsage returns the worst-case byte footprint of a sketch with
// parameter k: the geometric series sum k/(1-c) of level capacities, each
// item stored as a uint64.
func MaxMemoryUsage(k uint32) uint64 {
	maxStoredItems := uint64(math.Ceil(float64(k) / (1.0 - compactionFactor)))
	return maxStoredItems * 8
}
