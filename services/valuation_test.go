package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation/apperrors"
	"property-valuation/models"
)

func candidates(prices []int64, weights []float64) []models.ComparableCandidate {
	out := make([]models.ComparableCandidate, len(prices))
	for i, p := range prices {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		out[i] = models.ComparableCandidate{
			CandidateID:   fmt.Sprintf("c%d", i+1),
			AdjustedPrice: p,
			Weight:        w,
			Similarity:    0.8,
		}
	}
	return out
}

func TestAggregateRejectsOutlier(t *testing.T) {
	a := NewAggregator(0, 0)
	cands := candidates([]int64{1000000, 1000000, 1000000, 1000000, 5000000}, nil)

	res, err := a.Aggregate(cands, models.StrategyWeightedMean)
	require.NoError(t, err)

	assert.Equal(t, []string{"c5"}, res.RejectedOutliers)
	assert.Equal(t, 4, res.ComparablesUsed)
	assert.Equal(t, int64(1000000), res.Range.Mid)
	assert.Equal(t, int64(940000), res.Range.Low)
	assert.Equal(t, int64(1060000), res.Range.High)
	require.Len(t, res.Rationale, 3)
	assert.Equal(t, "Used 4 comparables after IQR filtering (1 rejected as outliers)", res.Rationale[0])
	assert.Equal(t, "Price dispersion 0.0%", res.Rationale[1])
	assert.Equal(t, "Strategy: weighted-mean", res.Rationale[2])
	assert.False(t, res.Degenerate)
}

func TestAggregateMeanVersusWeightedMean(t *testing.T) {
	a := NewAggregator(0, 0)

	uneven := candidates([]int64{1000000, 1200000}, []float64{1.0, 0.2})
	mean, err := a.Aggregate(uneven, models.StrategyMean)
	require.NoError(t, err)
	weighted, err := a.Aggregate(uneven, models.StrategyWeightedMean)
	require.NoError(t, err)
	assert.Equal(t, int64(1100000), mean.Range.Mid)
	assert.Equal(t, int64(1033333), weighted.Range.Mid)

	even := candidates([]int64{1000000, 1200000}, []float64{0.5, 0.5})
	mean, err = a.Aggregate(even, models.StrategyMean)
	require.NoError(t, err)
	weighted, err = a.Aggregate(even, models.StrategyWeightedMean)
	require.NoError(t, err)
	assert.Equal(t, mean.Range.Mid, weighted.Range.Mid)
}

func TestAggregateHedonicBlend(t *testing.T) {
	a := NewAggregator(0, 0)
	cands := candidates([]int64{900000, 1000000, 1300000}, []float64{1, 0.5, 0.2})

	res, err := a.Aggregate(cands, models.StrategyHedonic)
	require.NoError(t, err)

	wm := (900000*1 + 1000000*0.5 + 1300000*0.2) / 1.7
	want := math.Round(0.55*wm + 0.45*1000000)
	assert.Equal(t, int64(want), res.Range.Mid)
	assert.Equal(t, "Strategy: hedonic", res.Rationale[2])
}

func TestAggregateZeroWeightsFallBackToMean(t *testing.T) {
	res, err := NewAggregator(0, 0).Aggregate(candidates([]int64{100, 300}, []float64{0, 0}), models.StrategyWeightedMean)
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.Range.Mid)
}

func TestAggregateDegenerate(t *testing.T) {
	a := NewAggregator(0, 0)
	for _, cands := range [][]models.ComparableCandidate{nil, candidates([]int64{0, -5}, nil)} {
		res, err := a.Aggregate(cands, "")
		require.NoError(t, err)
		assert.True(t, res.Degenerate)
		assert.Equal(t, models.ValueRange{}, res.Range)
		assert.Equal(t, []string{NoPricesRationale}, res.Rationale)
		assert.Equal(t, models.StrategyWeightedMean, res.Strategy)
	}
}

func TestAggregateUnknownStrategy(t *testing.T) {
	_, err := NewAggregator(0, 0).Aggregate(candidates([]int64{1}, nil), "median")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAggregateRangeOrderingAndBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAggregator(0, 0)
	strategies := []string{models.StrategyMean, models.StrategyWeightedMean, models.StrategyHedonic}

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(15)
		prices := make([]int64, n)
		weights := make([]float64, n)
		for j := range prices {
			prices[j] = 200000 + rng.Int63n(5000000)
			weights[j] = rng.Float64()
		}
		cands := candidates(prices, weights)
		for j := range cands {
			cands[j].Similarity = rng.Float64()
			cands[j].MonthsSinceSale = rng.Float64() * 60
		}

		res, err := a.Aggregate(cands, strategies[i%len(strategies)])
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Range.Low, res.Range.Mid)
		assert.LessOrEqual(t, res.Range.Mid, res.Range.High)
		assert.GreaterOrEqual(t, res.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, res.ConfidenceScore, 100.0)
		assert.Equal(t, n, res.ComparablesUsed+len(res.RejectedOutliers))
	}
}

func TestOutlierRemovalNeverIncreasesDispersion(t *testing.T) {
	a := NewAggregator(0, 0)
	all := []float64{980000, 1000000, 1010000, 1020000, 1050000, 3000000, 100000}
	lower, upper := a.OutlierBounds(all)

	var kept []float64
	for _, p := range all {
		if p >= lower && p <= upper {
			kept = append(kept, p)
		}
	}
	require.Less(t, len(kept), len(all))
	assert.Less(t, StdDev(kept), StdDev(all))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 1))
	assert.InDelta(t, 1.75, Percentile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, Percentile(sorted, 0.5), 1e-9)
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
	assert.Equal(t, 9.0, Percentile([]float64{9}, 0.75))
	assert.True(t, sort.Float64sAreSorted(sorted))
}

func TestConfigurableIQRMultiplier(t *testing.T) {
	cands := candidates([]int64{100, 110, 120, 130, 190}, nil)

	strict, err := NewAggregator(0.5, 0).Aggregate(cands, models.StrategyMean)
	require.NoError(t, err)
	loose, err := NewAggregator(3, 0).Aggregate(cands, models.StrategyMean)
	require.NoError(t, err)

	assert.Equal(t, []string{"c5"}, strict.RejectedOutliers)
	assert.Empty(t, loose.RejectedOutliers)
}

func TestAggregateIgnoresNonPositivePrices(t *testing.T) {
	agg := NewAggregator(DefaultIQRMultiplier, DefaultHedonicBlend)
	res, err := agg.Aggregate(candidates([]int64{1000000, 0}, nil), models.StrategyMean)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ComparablesUsed)
	assert.Equal(t, int64(1000000), res.Range.Mid)
}
