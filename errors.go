package resketch

import "errors"

// Structural operations fail only on precondition violations -- programmer
// errors the caller never retries. They are never returned from Update or
// Estimate.
var (
	// ErrInvalidResize is returned by Expand and Shrink when the requested
	// width does not strictly grow (Expand) or strictly shrink to at
	// least 1 (Shrink) the sketch's current width.
	ErrInvalidResize = errors.New("resketch: invalid resize")

	// ErrInvalidSplit is returned by Split when the two child widths do
	// not sum to the parent's width.
	ErrInvalidSplit = errors.New("resketch: invalid split: widths must sum to parent width")

	// ErrIncompatibleSketches is returned by Merge when the two sketches
	// disagree on depth, kll_k, partition seed, or any row seed.
	ErrIncompatibleSketches = errors.New("resketch: incompatible sketches")
)
