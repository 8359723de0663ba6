// Package baselines provides reference frequency summaries used only to
// put a Sketch's accuracy in context during evaluation -- they are not
// part of the sketch's structural API and carry none of its resize,
// merge, or split support.
package baselines

import (
	"math"
	"math/rand"

	"github.com/resketch/resketch/internal/hashing"
)

// CountMinSketch is the classical Count-Min sketch: depth independent rows
// of width counters each, with Estimate taking the minimum across rows.
// Unlike Sketch, a row here is a flat counter array addressed directly by
// a pairwise-independent hash, with no per-bucket quantile structure and
// no consistent-hash ring.
type CountMinSketch struct {
	depth uint32
	width uint32
	table [][]uint32

	hashA []uint64
	hashB []uint64

	// ErrorBound and Confidence record the accuracy guarantee this
	// sketch's dimensions were chosen to meet, when constructed via
	// NewFromErrorBound. Zero if constructed via NewFromDimensions.
	ErrorBound float64
	Confidence float64
}

// NewFromDimensions builds a CountMinSketch with explicit width and depth.
func NewFromDimensions(width, depth uint32, rng *rand.Rand) *CountMinSketch {
	cms := &CountMinSketch{
		depth: depth,
		width: width,
		table: make([][]uint32, depth),
		hashA: make([]uint64, depth),
		hashB: make([]uint64, depth),
	}
	for i := range cms.table {
		cms.table[i] = make([]uint32, width)
		a, b := hashing.PlacementParams(rng.Uint32())
		cms.hashA[i] = a
		cms.hashB[i] = b
	}
	return cms
}

// NewFromErrorBound builds a CountMinSketch sized so that estimates are
// within errorBound*N of the truth with probability at least confidence,
// where N is the total stream weight: width = ceil(e/errorBound),
// depth = ceil(ln(1/(1-confidence))).
func NewFromErrorBound(errorBound, confidence float64, rng *rand.Rand) *CountMinSketch {
	width := uint32(math.Ceil(math.E / errorBound))
	depth := uint32(math.Ceil(math.Log(1 / (1 - confidence))))
	cms := NewFromDimensions(width, depth, rng)
	cms.ErrorBound = errorBound
	cms.Confidence = confidence
	return cms
}

func (cms *CountMinSketch) row(i int, item uint64) uint32 {
	return uint32(hashing.PlacementHash(cms.hashA[i], cms.hashB[i], item) % uint64(cms.width))
}

// Update records one occurrence of item.
func (cms *CountMinSketch) Update(item uint64) {
	for i := range cms.table {
		cms.table[i][cms.row(i, item)]++
	}
}

// Estimate returns the minimum counter across rows for item, Count-Min's
// standard (always non-negative-biased) point estimator.
func (cms *CountMinSketch) Estimate(item uint64) float64 {
	min := uint32(math.MaxUint32)
	for i := range cms.table {
		if v := cms.table[i][cms.row(i, item)]; v < min {
			min = v
		}
	}
	return float64(min)
}

// Merge adds other's counters into cms in place, cell by cell. Both
// sketches must share width and depth; Merge checks only those and does
// not compare the two sketches' row hash parameters.
func (cms *CountMinSketch) Merge(other *CountMinSketch) error {
	if cms.width != other.width || cms.depth != other.depth {
		return ErrIncompatibleDimensions
	}
	for i := range cms.table {
		for j := range cms.table[i] {
			cms.table[i][j] += other.table[i][j]
		}
	}
	return nil
}

// MaxMemoryUsage returns the sketch's counter table footprint in bytes.
func (cms *CountMinSketch) MaxMemoryUsage() uint64 {
	return uint64(cms.depth) * uint64(cms.width) * 4
}

// Width returns the number of counters per row.
func (cms *CountMinSketch) Width() uint32 { return cms.width }

// Depth returns the number of rows.
func (cms *CountMinSketch) Depth() uint32 { return cms.depth }

// CalculateMaxWidth returns the largest per-row width that fits depth rows
// of uint32 counters within budgetBytes.
func CalculateMaxWidth(budgetBytes uint64, depth uint32) uint32 {
	if depth == 0 {
		return 0
	}
	maxCounters := budgetBytes / 4
	return uint32(maxCounters / uint64(depth))
}
