package synthetic

import "math/rand"

type zipfSource struct {
	r *rand.Zipf
}

func (g *zipfSource) Next() uint64 { return g.r.Uint64() }

// Zipf returns a Source drawing from a Zipf distribution over
// [0, diversity) with skew parameter exp (must be > 1.0), seeded from rng
// for reproducibility across repetitions.
func Zipf(rng *rand.Rand, diversity uint64, exp float64) Source {
	if diversity == 0 {
		panic("synthetic: invalid zipf diversity")
	}
	if exp <= 1.0 {
		panic("synthetic: invalid zipf exponent")
	}
	return &zipfSource{r: rand.NewZipf(rng, exp, 1.0, diversity-1)}
}
