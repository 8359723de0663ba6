package ring

import (
	"math/rand"
	"testing"
)

func TestLookupWrapsAndPicksStrictlyGreater(t *testing.T) {
	r := New([]Point{
		{Value: 10, BucketID: 0},
		{Value: 20, BucketID: 1},
		{Value: 30, BucketID: 2},
	})

	cases := []struct {
		h    uint64
		want uint32
	}{
		{5, 0},
		{10, 1}, // equal to a point: strictly-greater rule lands on the next point
		{15, 1},
		{30, 0}, // equal to the last point: no point is strictly greater, so it wraps to the first entry
		{31, 0},
	}
	for _, c := range cases {
		if got := r.Lookup(c.h); got != c.want {
			t.Errorf("Lookup(%d) = %d, want %d", c.h, got, c.want)
		}
	}
}

func TestLookupEmptyRing(t *testing.T) {
	r := New(nil)
	if got := r.Lookup(42); got != 0 {
		t.Errorf("Lookup on empty ring = %d, want 0", got)
	}
}

func TestExtendRandomGrowsWidthWithSequentialIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := NewRandom(4, rng)
	r.ExtendRandom(3, rng)
	if r.Width() != 7 {
		t.Fatalf("Width() = %d, want 7", r.Width())
	}
	seen := make(map[uint32]bool)
	for _, p := range r.Points() {
		seen[p.BucketID] = true
	}
	for i := uint32(0); i < 7; i++ {
		if !seen[i] {
			t.Errorf("bucket id %d missing after extend", i)
		}
	}
}

func TestRandomEvictReindexesContiguously(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	r := NewRandom(10, rng)
	r.RandomEvict(4, rng)
	if r.Width() != 6 {
		t.Fatalf("Width() = %d, want 6", r.Width())
	}
	seen := make(map[uint32]bool)
	for _, p := range r.Points() {
		if p.BucketID >= 6 {
			t.Fatalf("bucket id %d out of range after evicting to width 6", p.BucketID)
		}
		seen[p.BucketID] = true
	}
	if len(seen) != 6 {
		t.Errorf("bucket ids not a permutation of 0..5: %v", seen)
	}
}

func TestPartitionRangesForCoverWholeRing(t *testing.T) {
	r := New([]Point{
		{Value: 10, BucketID: 0},
		{Value: 20, BucketID: 1},
		{Value: 30, BucketID: 0},
	})
	ranges := r.PartitionRangesFor(0)
	if len(ranges) != 2 {
		t.Fatalf("bucket 0 owns %d arcs, want 2", len(ranges))
	}
	// First entry's arc wraps: (30, 10].
	found30to10 := false
	found20to30 := false
	for _, rg := range ranges {
		if rg.Start == 30 && rg.End == 10 {
			found30to10 = true
		}
		if rg.Start == 20 && rg.End == 30 {
			found20to30 = true
		}
	}
	if !found30to10 || !found20to30 {
		t.Errorf("unexpected ranges for bucket 0: %+v", ranges)
	}
}

func TestAllRangesCoverEveryPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r := NewRandom(5, rng)
	all := r.AllRanges()
	if len(all) != 5 {
		t.Fatalf("len(AllRanges()) = %d, want 5", len(all))
	}
	seen := make(map[uint32]bool)
	for _, a := range all {
		seen[a.BucketID] = true
	}
	if len(seen) != 5 {
		t.Errorf("AllRanges did not cover every bucket: %v", seen)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	r := NewRandom(3, rng)
	c := r.Clone()
	c.ExtendRandom(2, rng)
	if r.Width() != 3 {
		t.Errorf("original ring mutated by clone's ExtendRandom: width = %d", r.Width())
	}
	if c.Width() != 5 {
		t.Errorf("clone width = %d, want 5", c.Width())
	}
}
