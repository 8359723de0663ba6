package resketch

import (
	"math/rand"
	"testing"

	"github.com/resketch/resketch/internal/kll"
)

func newTestSketch(seed int64, depth, width, k uint32) *Sketch {
	rng := rand.New(rand.NewSource(seed))
	return New(Config{
		Depth:         depth,
		Width:         width,
		KLLK:          k,
		PartitionSeed: uint32(seed),
		Rand:          rng,
	})
}

func feedZipf(s *Sketch, rng *rand.Rand, n int, diversity uint64) map[uint64]uint64 {
	z := rand.NewZipf(rng, 1.5, 1.0, diversity-1)
	truth := make(map[uint64]uint64, diversity)
	for i := 0; i < n; i++ {
		item := z.Uint64()
		s.Update(item)
		truth[item]++
	}
	return truth
}

func meanARE(s *Sketch, truth map[uint64]uint64) float64 {
	var total float64
	for item, freq := range truth {
		est := s.Estimate(item)
		total += absF((est - float64(freq)) / float64(freq))
	}
	return total / float64(len(truth))
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestUpdateEstimateTracksZipfFrequencies(t *testing.T) {
	s := newTestSketch(1, 4, 256, 200)
	rng := rand.New(rand.NewSource(2))
	truth := feedZipf(s, rng, 50000, 1<<12)

	if are := meanARE(s, truth); are > 0.5 {
		t.Fatalf("mean ARE = %v, want <= 0.5", are)
	}
}

func TestEstimateOfUnseenItemIsNearZero(t *testing.T) {
	s := newTestSketch(3, 3, 64, 100)
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 5000; i++ {
		s.Update(rng.Uint64())
	}
	if got := s.Estimate(0xdeadbeefcafebabe); got > 5 {
		t.Errorf("Estimate(unseen) = %v, want close to 0", got)
	}
}

func TestExpandPreservesAccuracy(t *testing.T) {
	s := newTestSketch(5, 4, 64, 200)
	rng := rand.New(rand.NewSource(6))
	truth := feedZipf(s, rng, 30000, 1<<10)
	before := meanARE(s, truth)

	if err := s.Expand(128); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if s.Width() != 128 {
		t.Fatalf("Width() after expand = %d, want 128", s.Width())
	}
	after := meanARE(s, truth)
	if after > before+0.3 {
		t.Errorf("accuracy degraded too much on expand: before=%v after=%v", before, after)
	}
}

func TestShrinkConservesAccuracyReasonably(t *testing.T) {
	s := newTestSketch(7, 4, 128, 200)
	rng := rand.New(rand.NewSource(8))
	truth := feedZipf(s, rng, 30000, 1<<10)

	if err := s.Shrink(32); err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if s.Width() != 32 {
		t.Fatalf("Width() after shrink = %d, want 32", s.Width())
	}
	if are := meanARE(s, truth); are > 1.0 {
		t.Errorf("mean ARE after shrink = %v, want <= 1.0", are)
	}
}

func TestExpandRejectsNonGrowingWidth(t *testing.T) {
	s := newTestSketch(9, 2, 16, 50)
	if err := s.Expand(16); err != ErrInvalidResize {
		t.Errorf("Expand(same width) = %v, want ErrInvalidResize", err)
	}
	if err := s.Expand(8); err != ErrInvalidResize {
		t.Errorf("Expand(smaller width) = %v, want ErrInvalidResize", err)
	}
}

func TestShrinkRejectsNonShrinkingOrZeroWidth(t *testing.T) {
	s := newTestSketch(10, 2, 16, 50)
	if err := s.Shrink(16); err != ErrInvalidResize {
		t.Errorf("Shrink(same width) = %v, want ErrInvalidResize", err)
	}
	if err := s.Shrink(0); err != ErrInvalidResize {
		t.Errorf("Shrink(0) = %v, want ErrInvalidResize", err)
	}
}

func TestMergeDisjointKeySpacesSumsFrequencies(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rowSeeds := []uint32{rng.Uint32(), rng.Uint32(), rng.Uint32()}

	s1 := New(Config{Depth: 3, Width: 64, KLLK: 150, PartitionSeed: 42, RowSeeds: rowSeeds, Rand: rand.New(rand.NewSource(12))})
	s2 := New(Config{Depth: 3, Width: 64, KLLK: 150, PartitionSeed: 42, RowSeeds: rowSeeds, Rand: rand.New(rand.NewSource(13))})

	truth := make(map[uint64]uint64)
	for i := uint64(0); i < 2000; i++ {
		item := i
		s1.Update(item)
		truth[item]++
	}
	for i := uint64(2000); i < 4000; i++ {
		item := i
		s2.Update(item)
		truth[item]++
	}

	merged, err := Merge(s1, s2)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Width() != 128 {
		t.Fatalf("merged.Width() = %d, want 128", merged.Width())
	}
	if are := meanARE(merged, truth); are > 0.5 {
		t.Errorf("merged mean ARE = %v, want <= 0.5", are)
	}
}

func TestMergeRejectsIncompatibleSketches(t *testing.T) {
	s1 := newTestSketch(14, 2, 32, 100)
	s2 := newTestSketch(15, 3, 32, 100)
	if _, err := Merge(s1, s2); err != ErrIncompatibleSketches {
		t.Errorf("Merge(depth mismatch) = %v, want ErrIncompatibleSketches", err)
	}
}

func TestSplitPartitionsResponsibilityExactlyOnce(t *testing.T) {
	s := newTestSketch(16, 3, 64, 150)
	rng := rand.New(rand.NewSource(17))
	truth := feedZipf(s, rng, 20000, 1<<11)

	left, right, err := Split(s, 24, 40)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if left.Width() != 24 || right.Width() != 40 {
		t.Fatalf("split widths = %d, %d, want 24, 40", left.Width(), right.Width())
	}

	for item := range truth {
		l, r := left.IsResponsibleFor(item), right.IsResponsibleFor(item)
		if l == r {
			t.Fatalf("item %d: IsResponsibleFor(left)=%v IsResponsibleFor(right)=%v, want exactly one true", item, l, r)
		}
	}
}

func TestUnsplitSketchIsResponsibleForEverything(t *testing.T) {
	s := newTestSketch(18, 2, 16, 50)
	for i := uint64(0); i < 100; i++ {
		if !s.IsResponsibleFor(i) {
			t.Fatalf("fresh sketch not responsible for item %d", i)
		}
	}
	ranges := s.PartitionRanges()
	if len(ranges) != 1 || ranges[0].Start != ranges[0].End {
		t.Errorf("PartitionRanges() on unsplit sketch = %+v, want single full-domain sentinel range", ranges)
	}
}

func TestSplitThenMergeRecoversFullCoverage(t *testing.T) {
	s := newTestSketch(19, 3, 48, 150)
	rng := rand.New(rand.NewSource(20))
	truth := feedZipf(s, rng, 20000, 1<<11)

	left, right, err := Split(s, 20, 28)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	remerged, err := Merge(left, right)
	if err != nil {
		t.Fatalf("Merge after split: %v", err)
	}
	if remerged.Width() != 48 {
		t.Fatalf("remerged.Width() = %d, want 48", remerged.Width())
	}
	if ranges := remerged.PartitionRanges(); len(ranges) != 1 || ranges[0].Start != ranges[0].End {
		t.Errorf("remerged PartitionRanges() = %+v, want single full-domain sentinel range", ranges)
	}
	if are := meanARE(remerged, truth); are > 0.5 {
		t.Errorf("remerged mean ARE = %v, want <= 0.5", are)
	}
}

func TestSplitRejectsWidthsNotSummingToParent(t *testing.T) {
	s := newTestSketch(21, 2, 32, 100)
	if _, _, err := Split(s, 10, 10); err != ErrInvalidSplit {
		t.Errorf("Split(widths not summing to parent) = %v, want ErrInvalidSplit", err)
	}
}

func TestMaxMemoryUsageScalesWithDepthAndWidth(t *testing.T) {
	s := newTestSketch(22, 4, 32, 200)
	got := s.MaxMemoryUsage()
	want := uint64(4) * uint64(32) * kll.MaxMemoryUsage(200)
	if got != want {
		t.Errorf("MaxMemoryUsage() = %d, want %d", got, want)
	}
}

func TestCalculateMaxWidthInvertsMaxMemoryUsage(t *testing.T) {
	perBucket := kll.MaxMemoryUsage(200)
	budget := perBucket * 4 * 10
	w := CalculateMaxWidth(budget, 4, 200)
	if w != 10 {
		t.Errorf("CalculateMaxWidth(...) = %d, want 10", w)
	}
}
