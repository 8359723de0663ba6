package baselines

import "errors"

// ErrIncompatibleDimensions is returned by Merge when the two sketches
// disagree on width or depth.
var ErrIncompatibleDimensions = errors.New("baselines: incompatible count-min dimensions")
