package synthetic

import "math/rand"

type hotspotSource struct {
	r   *rand.Rand
	min uint64

	hotFrac float64
	hotN    uint64
	coldN   uint64
}

func (g *hotspotSource) Next() uint64 {
	v := g.min
	switch {
	case g.coldN == 0:
		// hotFrac == 1.0: the whole range is hot, there is no coldset to draw from.
		v += uint64(g.r.Int63n(int64(g.hotN)))
	case g.hotN == 0:
		// hotFrac's hot-range share rounded down to nothing; always coldset.
		v += uint64(g.r.Int63n(int64(g.coldN)))
	case g.r.Float64() > g.hotFrac:
		// Hotset
		v += uint64(g.r.Int63n(int64(g.hotN)))
	default:
		// Coldset
		v += g.hotN + uint64(g.r.Int63n(int64(g.coldN)))
	}
	return v
}

// Hotspot returns a Source where a hotFrac fraction of the identifier range
// [min, max) absorbs (1.0-hotFrac) of the traffic, seeded from rng for
// reproducibility across repetitions.
func Hotspot(rng *rand.Rand, min, max uint64, hotFrac float64) Source {
	if max <= min {
		panic("synthetic: invalid hotspot range")
	}
	if hotFrac < 0.0 || hotFrac > 1.0 {
		panic("synthetic: invalid hotspot fraction")
	}
	n := max - min
	hotN := uint64(hotFrac * float64(n))
	coldN := n - hotN

	return &hotspotSource{
		r:       rng,
		min:     min,
		hotFrac: hotFrac,
		hotN:    hotN,
		coldN:   coldN,
	}
}
