// Package ring implements the sorted consistent-hash ring underlying one
// row of the sketch: a sorted sequence of (point, bucketID) pairs mapping
// 64-bit hash points to bucket ids.
package ring

import (
	"math/rand"
	"sort"
)

// Point is one ring entry.
type Point struct {
	Value    uint64
	BucketID uint32
}

// Range is a half-open arc (Start, End] on the ring. The first entry's arc
// wraps around 2^64-1, which is represented by Start > End.
type Range struct {
	Start uint64
	End   uint64
}

// Ring is a sorted sequence of Points. The zero value is not usable; build
// one with New, NewRandom, or Clone.
type Ring struct {
	points []Point
}

// New builds a ring directly from already-assigned points, sorting them by
// Value. Bucket ids must be a permutation of {0..len(points)-1}.
func New(points []Point) *Ring {
	r := &Ring{points: append([]Point(nil), points...)}
	r.sort()
	return r
}

// NewRandom builds a ring of width w with random points and sequential
// bucket ids 0..w-1.
func NewRandom(w int, rng *rand.Rand) *Ring {
	points := make([]Point, w)
	for i := 0; i < w; i++ {
		points[i] = Point{Value: randUint64(rng), BucketID: uint32(i)}
	}
	r := &Ring{points: points}
	r.sort()
	return r
}

func randUint64(rng *rand.Rand) uint64 {
	return uint64(rng.Uint32())<<32 | uint64(rng.Uint32())
}

func (r *Ring) sort() {
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].Value < r.points[j].Value })
}

// Width returns the number of points (buckets) on the ring.
func (r *Ring) Width() int { return len(r.points) }

// Points returns the ring's points in ascending order. The returned slice
// must not be mutated by the caller.
func (r *Ring) Points() []Point { return r.points }

// Clone returns an independent copy of the ring.
func (r *Ring) Clone() *Ring {
	return &Ring{points: append([]Point(nil), r.points...)}
}

// Lookup returns the bucket id owning h: the smallest point strictly
// greater than h, wrapping to the first entry if none exists. An empty
// ring always returns 0.
func (r *Ring) Lookup(h uint64) uint32 {
	if len(r.points) == 0 {
		return 0
	}
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i].Value > h })
	if idx == len(r.points) {
		return r.points[0].BucketID
	}
	return r.points[idx].BucketID
}

// ExtendRandom appends n new points with fresh random values and
// sequential bucket ids starting at Width(), then re-sorts.
func (r *Ring) ExtendRandom(n int, rng *rand.Rand) {
	base := uint32(len(r.points))
	for i := 0; i < n; i++ {
		r.points = append(r.points, Point{Value: randUint64(rng), BucketID: base + uint32(i)})
	}
	r.sort()
}

// RandomEvict removes n arbitrary points (shuffle-and-drop) and reindexes
// the remaining points' bucket ids contiguously to 0..Width()-1, in
// increasing order of their original bucket id (stable relabeling, not
// ring order).
func (r *Ring) RandomEvict(n int, rng *rand.Rand) {
	if n <= 0 {
		return
	}
	rng.Shuffle(len(r.points), func(i, j int) {
		r.points[i], r.points[j] = r.points[j], r.points[i]
	})
	if n > len(r.points) {
		n = len(r.points)
	}
	r.points = r.points[n:]

	sort.Slice(r.points, func(i, j int) bool { return r.points[i].BucketID < r.points[j].BucketID })
	for i := range r.points {
		r.points[i].BucketID = uint32(i)
	}
	r.sort()
}

// PartitionRangesFor returns the arcs on the ring owned by bucketID. A
// bucket with multiple ring entries owns multiple arcs. The first ring
// entry's arc wraps: it is returned as (last.Value, first.Value] spanning
// through 2^64-1, represented with Start > End.
func (r *Ring) PartitionRangesFor(bucketID uint32) []Range {
	var out []Range
	n := len(r.points)
	if n == 0 {
		return out
	}
	for i, p := range r.points {
		if p.BucketID != bucketID {
			continue
		}
		var start uint64
		if i == 0 {
			start = r.points[n-1].Value
		} else {
			start = r.points[i-1].Value
		}
		out = append(out, Range{Start: start, End: p.Value})
	}
	return out
}

// AllRanges returns every arc on the ring paired with its owning bucket
// id, in ring order starting from the wrap-around arc.
func (r *Ring) AllRanges() []struct {
	Range    Range
	BucketID uint32
} {
	n := len(r.points)
	out := make([]struct {
		Range    Range
		BucketID uint32
	}, 0, n)
	if n == 0 {
		return out
	}
	prev := r.points[n-1].Value
	for _, p := range r.points {
		out = append(out, struct {
			Range    Range
			BucketID uint32
		}{Range: Range{Start: prev, End: p.Value}, BucketID: p.BucketID})
		prev = p.Value
	}
	return out
}
