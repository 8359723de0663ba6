package resketch

import "github.com/resketch/resketch/internal/kll"

// MaxMemoryUsage returns the sketch's worst-case byte footprint:
// depth * width * kll.MaxMemoryUsage(k).
func (s *Sketch) MaxMemoryUsage() uint64 {
	return uint64(s.depth) * uint64(s.width) * kll.MaxMemoryUsage(s.kllK)
}

// CalculateMaxWidth returns the largest width w such that a sketch of the
// given depth and kll_k fits within budgetBytes, i.e. the inverse of
// MaxMemoryUsage. Returns 0 if depth is 0 or a single bucket's KLL alone
// already exceeds the budget.
func CalculateMaxWidth(budgetBytes uint64, depth uint32, kllK uint32) uint32 {
	if depth == 0 {
		return 0
	}
	perBucket := kll.MaxMemoryUsage(kllK)
	if perBucket == 0 {
		return 0
	}
	return uint32(budgetBytes / (uint64(depth) * perBucket))
}
