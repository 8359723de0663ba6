// Package remap implements the single routine shared by Expand, Shrink,
// Merge and Split: transplanting a row's buckets from one ring layout to
// another by range-rebuilding each bucket's KLL onto the refined arcs of
// the two rings' union.
package remap

import (
	"math/rand"
	"sort"

	"github.com/resketch/resketch/internal/kll"
	"github.com/resketch/resketch/internal/ring"
)

// Bucket is one row bucket: an auxiliary count kept in sync with the KLL's
// total weight, and the KLL itself.
type Bucket struct {
	Count uint64
	KLL   *kll.Sketch
}

// NewBuckets returns n empty buckets, each with a fresh KLL of parameter k.
func NewBuckets(n int, k uint32, rng *rand.Rand) []Bucket {
	out := make([]Bucket, n)
	for i := range out {
		out[i] = Bucket{KLL: kll.New(k, rng)}
	}
	return out
}

// Row transplants inBuckets (laid out on inRing) onto outRing, returning
// the buckets it induces. Both rings partition [0, 2^64) into arcs; their
// union, refined by the sorted concatenation of all ring points, lets
// every item originally routed by inRing be attributed to exactly one
// input bucket and exactly one output bucket via KLL range rebuilds --
// without re-ingesting the original stream.
//
// Precondition: len(inBuckets) == inRing.Width(). k parameterizes the
// fresh KLLs backing the output buckets; it must match inBuckets' KLLs --
// Row returns kll.ErrIncompatibleParameters if a caller violates this.
func Row(inRing *ring.Ring, inBuckets []Bucket, outRing *ring.Ring, k uint32, rng *rand.Rand) ([]Bucket, error) {
	outBuckets := NewBuckets(outRing.Width(), k, rng)
	if outRing.Width() == 0 {
		return outBuckets, nil
	}

	points := unionPoints(inRing, outRing)
	if len(points) == 0 {
		return outBuckets, nil
	}

	prev := points[len(points)-1]
	for _, current := range points {
		inID := inRing.Lookup(prev)
		outID := outRing.Lookup(prev)

		if len(inBuckets) > 0 {
			inBucket := inBuckets[inID]
			count := inBucket.KLL.CountInRange(prev, current)
			if count > 0 {
				outBuckets[outID].Count += uint64(count + 0.5)
				sub := inBucket.KLL.Rebuild(prev, current)
				if err := outBuckets[outID].KLL.Merge(sub); err != nil {
					return nil, err
				}
			}
		}
		prev = current
	}
	return outBuckets, nil
}

// unionPoints returns the sorted, deduplicated union of both rings' point
// values.
func unionPoints(a, b *ring.Ring) []uint64 {
	seen := make(map[uint64]struct{}, a.Width()+b.Width())
	for _, p := range a.Points() {
		seen[p.Value] = struct{}{}
	}
	for _, p := range b.Points() {
		seen[p.Value] = struct{}{}
	}
	out := make([]uint64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
