package services

import (
	"fmt"
	"math"
	"sort"

	"property-valuation/apperrors"
	"property-valuation/models"
)

// Default aggregation constants. Both are configurable on the Aggregator.
const (
	DefaultIQRMultiplier = 1.5
	DefaultHedonicBlend  = 0.55
)

// Range spread and confidence terms.
const (
	baseSpread          = 0.05
	minSpread           = 0.06
	maxSpread           = 0.20
	countSaturation     = 12.0
	dispersionCeiling   = 0.20
	confidenceCount     = 0.30
	confidenceSimilar   = 0.35
	confidenceDispersed = 0.20
	confidenceRecency   = 0.15
)

// NoPricesRationale is the single rationale of a degenerate valuation.
const NoPricesRationale = "No adjusted prices available"

// Aggregator turns ranked, adjusted candidates into a valuation.
type Aggregator struct {
	IQRMultiplier float64
	HedonicBlend  float64
}

// NewAggregator creates an Aggregator. Non-positive arguments select the
// defaults.
func NewAggregator(iqrMultiplier, hedonicBlend float64) *Aggregator {
	if iqrMultiplier <= 0 {
		iqrMultiplier = DefaultIQRMultiplier
	}
	if hedonicBlend <= 0 || hedonicBlend > 1 {
		hedonicBlend = DefaultHedonicBlend
	}
	return &Aggregator{IQRMultiplier: iqrMultiplier, HedonicBlend: hedonicBlend}
}

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s string) bool {
	switch s {
	case models.StrategyMean, models.StrategyWeightedMean, models.StrategyHedonic:
		return true
	}
	return false
}

// Aggregate filters IQR outliers and computes range, confidence and
// rationale with the given strategy. An empty price list yields a zeroed,
// flagged result rather than an error.
func (a *Aggregator) Aggregate(candidates []models.ComparableCandidate, strategy string) (models.ValuationResult, error) {
	if strategy == "" {
		strategy = models.StrategyWeightedMean
	}
	if !ValidStrategy(strategy) {
		return models.ValuationResult{}, apperrors.Validation("valuation.Aggregate", "unknown strategy %q", strategy)
	}

	priced := make([]models.ComparableCandidate, 0, len(candidates))
	for _, c := range candidates {
		p := float64(c.AdjustedPrice)
		if !math.IsNaN(p) && !math.IsInf(p, 0) && c.AdjustedPrice > 0 {
			priced = append(priced, c)
		}
	}
	if len(priced) == 0 {
		return models.ValuationResult{
			Strategy:         strategy,
			RejectedOutliers: []string{},
			Rationale:        []string{NoPricesRationale},
			Degenerate:       true,
		}, nil
	}

	prices := make([]float64, len(priced))
	for i, c := range priced {
		prices[i] = float64(c.AdjustedPrice)
	}
	lower, upper := a.OutlierBounds(prices)

	filtered := make([]models.ComparableCandidate, 0, len(priced))
	rejected := make([]string, 0)
	for _, c := range priced {
		p := float64(c.AdjustedPrice)
		if p < lower || p > upper {
			rejected = append(rejected, c.CandidateID)
			continue
		}
		filtered = append(filtered, c)
	}

	filteredPrices := make([]float64, len(filtered))
	for i, c := range filtered {
		filteredPrices[i] = float64(c.AdjustedPrice)
	}

	mid := math.Round(a.midpoint(filtered, filteredPrices, strategy))
	dispersion := StdDev(filteredPrices) / math.Max(1, mid)
	spread := clamp(baseSpread+dispersion, minSpread, maxSpread)

	var simSum, recencyPenalty float64
	for _, c := range filtered {
		simSum += c.Similarity
		recencyPenalty += clamp(c.MonthsSinceSale/recencyDecayMonths, 0, 1)
	}
	n := float64(len(filtered))
	confidence := 100 * (confidenceCount*clamp(n/countSaturation, 0, 1) +
		confidenceSimilar*(simSum/n) +
		confidenceDispersed*(1-clamp(dispersion/dispersionCeiling, 0, 1)) +
		confidenceRecency*(1-recencyPenalty/n))

	return models.ValuationResult{
		Range: models.ValueRange{
			Low:  int64(math.Round(mid * (1 - spread))),
			Mid:  int64(mid),
			High: int64(math.Round(mid * (1 + spread))),
		},
		ConfidenceScore:  round2(clamp(confidence, 0, 100)),
		ComparablesUsed:  len(filtered),
		RejectedOutliers: rejected,
		Rationale: []string{
			fmt.Sprintf("Used %d comparables after IQR filtering (%d rejected as outliers)", len(filtered), len(rejected)),
			fmt.Sprintf("Price dispersion %.1f%%", dispersion*100),
			fmt.Sprintf("Strategy: %s", strategy),
		},
		Strategy: strategy,
	}, nil
}

// OutlierBounds returns [Q1 − k·IQR, Q3 + k·IQR].
func (a *Aggregator) OutlierBounds(prices []float64) (lower, upper float64) {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	q1 := Percentile(sorted, 0.25)
	q3 := Percentile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - a.IQRMultiplier*iqr, q3 + a.IQRMultiplier*iqr
}

func (a *Aggregator) midpoint(filtered []models.ComparableCandidate, prices []float64, strategy string) float64 {
	switch strategy {
	case models.StrategyMean:
		return Mean(prices)
	case models.StrategyHedonic:
		sorted := append([]float64(nil), prices...)
		sort.Float64s(sorted)
		return a.HedonicBlend*weightedMean(filtered) + (1-a.HedonicBlend)*Percentile(sorted, 0.5)
	default:
		return weightedMean(filtered)
	}
}

// weightedMean falls back to the plain mean when the weights sum to zero.
func weightedMean(cands []models.ComparableCandidate) float64 {
	var num, den float64
	prices := make([]float64, len(cands))
	for i, c := range cands {
		p := float64(c.AdjustedPrice)
		prices[i] = p
		num += c.Weight * p
		den += c.Weight
	}
	if den <= 0 {
		return Mean(prices)
	}
	return num / den
}

// Percentile interpolates linearly between closest ranks of an ascending
// slice. p is in [0,1].
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := clamp(p, 0, 1) * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Mean is the arithmetic mean; 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation; 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}
