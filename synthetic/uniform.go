package synthetic

import "math/rand"

type uniformSource struct {
	r   *rand.Rand
	n   uint64
	min uint64
}

func (g *uniformSource) Next() uint64 {
	return g.min + uint64(g.r.Int63n(int64(g.n)))
}

// Uniform returns a Source drawing uniformly from [min, max), seeded from
// rng for reproducibility across repetitions.
func Uniform(rng *rand.Rand, min, max uint64) Source {
	if max <= min {
		panic("synthetic: invalid uniform range")
	}
	return &uniformSource{r: rng, min: min, n: max - min}
}
