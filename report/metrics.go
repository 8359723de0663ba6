// Package report computes accuracy metrics against a known-frequency
// ground truth and writes experiment results as JSON, in the shape
// consumed by downstream plotting tooling.
package report

import "math"

// Estimator is the subset of Sketch that metrics need: per-item frequency
// estimates. Kept as an interface so tests can exercise metrics against a
// trivial stand-in instead of a full Sketch.
type Estimator interface {
	Estimate(item uint64) float64
}

// AverageRelativeError returns the mean, over truth, of
// |estimate-true|/true for every item with a nonzero true frequency. Items
// absent from truth are not visited: ARE is defined over the ground truth's
// domain, not the sketch's.
func AverageRelativeError(e Estimator, truth map[uint64]uint64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var total float64
	for item, freq := range truth {
		if freq == 0 {
			continue
		}
		est := e.Estimate(item)
		total += math.Abs(est-float64(freq)) / float64(freq)
	}
	return total / float64(len(truth))
}

// AverageAbsoluteError returns the mean, over truth, of |estimate-true|.
func AverageAbsoluteError(e Estimator, truth map[uint64]uint64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var total float64
	for item, freq := range truth {
		est := e.Estimate(item)
		total += math.Abs(est - float64(freq))
	}
	return total / float64(len(truth))
}

// RelativeErrorVariance returns the variance of the per-item relative
// error around meanARE, as computed by AverageRelativeError.
func RelativeErrorVariance(e Estimator, truth map[uint64]uint64, meanARE float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sumSq float64
	for item, freq := range truth {
		var relErr float64
		if freq > 0 {
			relErr = math.Abs(e.Estimate(item)-float64(freq)) / float64(freq)
		}
		d := relErr - meanARE
		sumSq += d * d
	}
	return sumSq / float64(len(truth))
}

// AbsoluteErrorVariance returns the variance of the per-item absolute
// error around meanAAE, as computed by AverageAbsoluteError.
func AbsoluteErrorVariance(e Estimator, truth map[uint64]uint64, meanAAE float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sumSq float64
	for item, freq := range truth {
		absErr := math.Abs(e.Estimate(item) - float64(freq))
		d := absErr - meanAAE
		sumSq += d * d
	}
	return sumSq / float64(len(truth))
}

// Accuracy bundles the four metrics computed together against the same
// ground truth, since every caller needs all four and ARE/AAE must be
// computed before their variances.
type Accuracy struct {
	ARE         float64
	AAE         float64
	AREVariance float64
	AAEVariance float64
}

// Measure computes Accuracy for e against truth. It calls e.Estimate once
// per truth item (not once per metric) since Estimate walks every KLL level
// in every row and truth sets run into the hundreds of thousands of items.
func Measure(e Estimator, truth map[uint64]uint64) Accuracy {
	if len(truth) == 0 {
		return Accuracy{}
	}

	type sample struct {
		relErr, absErr float64
	}
	samples := make([]sample, 0, len(truth))

	var sumRelErr, sumAbsErr float64
	for item, freq := range truth {
		est := e.Estimate(item)
		absErr := math.Abs(est - float64(freq))
		var relErr float64
		if freq > 0 {
			relErr = absErr / float64(freq)
		}
		samples = append(samples, sample{relErr: relErr, absErr: absErr})
		sumRelErr += relErr
		sumAbsErr += absErr
	}

	n := float64(len(truth))
	are := sumRelErr / n
	aae := sumAbsErr / n

	var sumRelSq, sumAbsSq float64
	for _, s := range samples {
		dRel := s.relErr - are
		sumRelSq += dRel * dRel
		dAbs := s.absErr - aae
		sumAbsSq += dAbs * dAbs
	}

	return Accuracy{
		ARE:         are,
		AAE:         aae,
		AREVariance: sumRelSq / n,
		AAEVariance: sumAbsSq / n,
	}
}
