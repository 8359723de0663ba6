package synthetic

import (
	"math/rand"
	"testing"
)

func TestZipfStaysWithinDiversity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := Zipf(rng, 1000, 1.5)
	for i := 0; i < 10000; i++ {
		if v := s.Next(); v >= 1000 {
			t.Fatalf("Next() = %d, want < 1000", v)
		}
	}
}

func TestUniformStaysWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	s := Uniform(rng, 50, 100)
	for i := 0; i < 10000; i++ {
		v := s.Next()
		if v < 50 || v >= 100 {
			t.Fatalf("Next() = %d, want in [50, 100)", v)
		}
	}
}

func TestUniformRejectsEmptyRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Uniform(10, 10) did not panic")
		}
	}()
	Uniform(rand.New(rand.NewSource(1)), 10, 10)
}

func TestHotspotFavorsHotRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := Hotspot(rng, 0, 1000, 0.2)
	hot := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if s.Next() < 200 {
			hot++
		}
	}
	// hotFrac=0.2 means the bottom 20% of the range absorbs ~80% of traffic.
	if frac := float64(hot) / n; frac < 0.6 {
		t.Errorf("hot-range fraction = %v, want >= 0.6", frac)
	}
}

func TestHotspotHandlesExtremeFractionsWithoutPanicOrOutOfRange(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, hotFrac := range []float64{0.0, 1.0} {
		s := Hotspot(rng, 10, 20, hotFrac)
		for i := 0; i < 1000; i++ {
			v := s.Next()
			if v < 10 || v >= 20 {
				t.Fatalf("Hotspot(10,20,%v).Next() = %d, want in [10,20)", hotFrac, v)
			}
		}
	}
}

func TestCounterProducesUniqueIncreasingValues(t *testing.T) {
	s := Counter(0)
	seen := make(map[uint64]bool)
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		v := s.Next()
		if v <= prev {
			t.Fatalf("Counter not strictly increasing: prev=%d got=%d", prev, v)
		}
		if seen[v] {
			t.Fatalf("Counter repeated value %d", v)
		}
		seen[v] = true
		prev = v
	}
}
