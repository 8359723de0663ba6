package resketch

import (
	"math/rand"

	"github.com/resketch/resketch/internal/hashing"
	"github.com/resketch/resketch/internal/remap"
	"github.com/resketch/resketch/internal/ring"
)

// row is one ring plus the array of buckets it indexes. It owns its ring
// and buckets; each bucket owns one KLL. Rows never reference each other.
type row struct {
	a, b uint64 // placement hash params for this row, derived from seed
	r    *ring.Ring
	buck []remap.Bucket
}

func newRow(width int, kllK uint32, rowSeed uint32, rng *rand.Rand) *row {
	a, b := hashing.PlacementParams(rowSeed)
	return &row{
		a:    a,
		b:    b,
		r:    ring.NewRandom(width, rng),
		buck: remap.NewBuckets(width, kllK, rng),
	}
}

// placement returns row i's placement hash of a partition hash value.
func (rw *row) placement(p uint64) uint64 {
	return hashing.PlacementHash(rw.a, rw.b, p)
}

func (rw *row) width() int { return rw.r.Width() }

// update routes partition hash p to its bucket and records it there.
func (rw *row) update(p uint64) {
	h := rw.placement(p)
	id := rw.r.Lookup(h)
	rw.buck[id].Count++
	rw.buck[id].KLL.Update(h)
}

// estimate returns this row's frequency estimate for partition hash p.
func (rw *row) estimate(p uint64) float64 {
	h := rw.placement(p)
	id := rw.r.Lookup(h)
	return rw.buck[id].KLL.Estimate(h)
}

// expand grows the row to newWidth buckets, via remap from the old ring to
// a new ring carrying newWidth-width() freshly-randomized extra points.
func (rw *row) expand(newWidth int, kllK uint32, rng *rand.Rand) error {
	oldRing := rw.r
	newRing := oldRing.Clone()
	newRing.ExtendRandom(newWidth-oldRing.Width(), rng)

	buck, err := remap.Row(oldRing, rw.buck, newRing, kllK, rng)
	if err != nil {
		return err
	}
	rw.buck = buck
	rw.r = newRing
	return nil
}

// shrink reduces the row to newWidth buckets, via remap from the old ring
// to a ring obtained by randomly evicting points and reindexing.
func (rw *row) shrink(newWidth int, kllK uint32, rng *rand.Rand) error {
	oldRing := rw.r
	newRing := oldRing.Clone()
	newRing.RandomEvict(oldRing.Width()-newWidth, rng)

	buck, err := remap.Row(oldRing, rw.buck, newRing, kllK, rng)
	if err != nil {
		return err
	}
	rw.buck = buck
	rw.r = newRing
	return nil
}

// mergedRing concatenates a's and b's ring points, offsetting
// b's bucket ids by a's width, and sorts the result -- the shared
// target both rows' buckets get remapped onto.
func mergedRing(a, b *ring.Ring) *ring.Ring {
	offset := uint32(a.Width())
	points := make([]ring.Point, 0, a.Width()+b.Width())
	points = append(points, a.Points()...)
	for _, p := range b.Points() {
		points = append(points, ring.Point{Value: p.Value, BucketID: p.BucketID + offset})
	}
	return ring.New(points)
}

// mergeRows returns the row formed by remapping a and b independently onto
// their combined ring and summing/merging bucket state pairwise.
func mergeRows(a, b *row, kllK uint32, rng *rand.Rand) (*row, error) {
	merged := mergedRing(a.r, b.r)

	fromA, err := remap.Row(a.r, a.buck, merged, kllK, rng)
	if err != nil {
		return nil, err
	}
	fromB, err := remap.Row(b.r, b.buck, merged, kllK, rng)
	if err != nil {
		return nil, err
	}

	buck := make([]remap.Bucket, merged.Width())
	for i := range buck {
		buck[i] = remap.Bucket{
			Count: fromA[i].Count + fromB[i].Count,
			KLL:   fromA[i].KLL,
		}
		if err := buck[i].KLL.Merge(fromB[i].KLL); err != nil {
			return nil, err
		}
	}
	return &row{a: a.a, b: a.b, r: merged, buck: buck}, nil
}

// splitRow partitions rw's ring into its first w1 entries (by ring order)
// and the remaining w2, carrying buckets along 1:1 and reindexing bucket
// ids within each child to 0..w1-1 and 0..w2-1. No remap is needed: each
// child's buckets already summarize only the items routed through the
// arcs it inherits.
func splitRow(rw *row, w1, w2 int) (*row, *row) {
	points := rw.r.Points()

	leftPoints := make([]ring.Point, w1)
	leftBuck := make([]remap.Bucket, w1)
	for i := 0; i < w1; i++ {
		leftPoints[i] = ring.Point{Value: points[i].Value, BucketID: uint32(i)}
		leftBuck[i] = rw.buck[points[i].BucketID]
	}

	rightPoints := make([]ring.Point, w2)
	rightBuck := make([]remap.Bucket, w2)
	for i := 0; i < w2; i++ {
		rightPoints[i] = ring.Point{Value: points[w1+i].Value, BucketID: uint32(i)}
		rightBuck[i] = rw.buck[points[w1+i].BucketID]
	}

	left := &row{a: rw.a, b: rw.b, r: ring.New(leftPoints), buck: leftBuck}
	right := &row{a: rw.a, b: rw.b, r: ring.New(rightPoints), buck: rightBuck}
	return left, right
}
