// Package traces replays recorded request traces as streams of uint64 item
// identifiers, for feeding a Sketch from real-world data instead of a
// synthetic distribution (package synthetic).
package traces

import "context"

// Provider streams item identifiers parsed from a trace until the
// underlying reader is exhausted, or ctx is canceled.
type Provider interface {
	Provide(ctx context.Context, items chan<- uint64)
}

// Collect drains p into a slice, stopping after maxItems (0 means run p to
// completion). It cancels p's context and drains any remaining buffered
// send before returning, so a caller that immediately closes the reader
// backing p never races p's goroutine mid-Read.
func Collect(p Provider, maxItems uint64) []uint64 {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := make(chan uint64)
	go p.Provide(ctx, items)

	var data []uint64
	if maxItems > 0 {
		data = make([]uint64, 0, maxItems)
	}
	for v := range items {
		data = append(data, v)
		if maxItems > 0 && uint64(len(data)) >= maxItems {
			cancel()
			for range items {
			}
			break
		}
	}
	return data
}

// hashString folds an arbitrary byte string down to a uint64 item
// identifier using FNV-1a, for traces whose native key is a string
// (a URL path, a video id) rather than an already-numeric address.
func hashString(data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}
