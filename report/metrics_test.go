package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEstimator map[uint64]float64

func (f fakeEstimator) Estimate(item uint64) float64 { return f[item] }

func TestAverageRelativeErrorIsZeroForPerfectEstimates(t *testing.T) {
	truth := map[uint64]uint64{1: 10, 2: 20, 3: 30}
	est := fakeEstimator{1: 10, 2: 20, 3: 30}
	require.Equal(t, 0.0, AverageRelativeError(est, truth))
}

func TestAverageRelativeErrorAveragesPerItemRatios(t *testing.T) {
	truth := map[uint64]uint64{1: 10, 2: 20}
	est := fakeEstimator{1: 15, 2: 20} // item 1: |15-10|/10 = 0.5, item 2: 0
	require.InDelta(t, 0.25, AverageRelativeError(est, truth), 1e-9)
}

func TestAverageAbsoluteErrorSumsMagnitudes(t *testing.T) {
	truth := map[uint64]uint64{1: 10, 2: 20}
	est := fakeEstimator{1: 15, 2: 18}
	require.InDelta(t, 3.5, AverageAbsoluteError(est, truth), 1e-9)
}

func TestVariancesAreZeroWhenAllErrorsMatchMean(t *testing.T) {
	truth := map[uint64]uint64{1: 10, 2: 10}
	est := fakeEstimator{1: 12, 2: 12}
	are := AverageRelativeError(est, truth)
	aae := AverageAbsoluteError(est, truth)
	require.InDelta(t, 0.0, RelativeErrorVariance(est, truth, are), 1e-9)
	require.InDelta(t, 0.0, AbsoluteErrorVariance(est, truth, aae), 1e-9)
}

func TestMeasureBundlesAllFourMetrics(t *testing.T) {
	truth := map[uint64]uint64{1: 10}
	est := fakeEstimator{1: 10}
	acc := Measure(est, truth)
	require.Equal(t, Accuracy{ARE: 0, AAE: 0, AREVariance: 0, AAEVariance: 0}, acc)
}

func TestEmptyTruthYieldsZeroMetrics(t *testing.T) {
	est := fakeEstimator{}
	acc := Measure(est, map[uint64]uint64{})
	require.Zero(t, acc)
}
