package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"property-valuation/models"
	"property-valuation/utils"
)

// Ranking limits.
const (
	MinTopK     = 1
	MaxTopK     = 100
	DefaultTopK = 10
)

// Candidate weight terms.
const (
	weightSimilarity    = 0.65
	weightDistanceDecay = 0.20
	weightRecencyDecay  = 0.15
	distanceDecayMeters = 4000.0
	recencyDecayMonths  = 36.0
	minCandidateWeight  = 0.01
	closeLocationMeters = 700.0
	similarSizeUnits    = 15.0
	similarFloorLevels  = 2.0
)

// Ranker scores a pool against a subject and keeps the top K by similarity.
type Ranker struct {
	scorer  *Scorer
	workers int
	now     func() time.Time
}

// NewRanker creates a Ranker that fans scoring out over workers goroutines.
func NewRanker(scorer *Scorer, workers int) *Ranker {
	return &Ranker{scorer: scorer, workers: workers, now: time.Now}
}

// WithClock replaces the clock used for months-since-sale.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// ClampTopK bounds topK to [1,100]; zero or negative means the default.
func ClampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// CandidateWeight combines similarity, distance decay and recency decay.
// Unknown distance or sale date contributes nothing to its decay term.
func CandidateWeight(similarity, distance float64, distanceKnown bool, months float64, hasSale bool) float64 {
	w := weightSimilarity * similarity
	if distanceKnown {
		w += weightDistanceDecay * (1 - clamp(distance/distanceDecayMeters, 0, 1))
	}
	if hasSale {
		w += weightRecencyDecay * (1 - clamp(months/recencyDecayMonths, 0, 1))
	}
	return clamp(w, minCandidateWeight, 1)
}

// Rank scores every pool member, sorts by similarity descending (ties keep
// input order) and truncates to topK.
func (r *Ranker) Rank(subject models.Property, pool []models.Property, topK int) []models.ComparableCandidate {
	topK = ClampTopK(topK)
	now := r.now()

	candidates := make([]models.ComparableCandidate, len(pool))
	utils.ForEachIndex(len(pool), r.workers, func(i int) {
		candidates[i] = r.buildCandidate(subject, pool[i], i, now)
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

func (r *Ranker) buildCandidate(subject, comp models.Property, index int, now time.Time) models.ComparableCandidate {
	score := r.scorer.Score(subject, comp)
	months, hasSale := MonthsSinceSale(comp, now)

	id := comp.ID
	if id == "" {
		id = fmt.Sprintf("candidate-%d", index+1)
	}
	if !hasSale {
		months = recencyDecayMonths
	}

	return models.ComparableCandidate{
		CandidateID:     id,
		Similarity:      round4(score.Similarity),
		DistanceMeters:  math.Round(score.DistanceMeters),
		DistanceKnown:   score.DistanceKnown,
		Adjustment:      score.Adjustment,
		BasePrice:       comp.Price,
		AdjustedPrice:   AdjustedPrice(comp.Price, score.Adjustment.TotalPercent),
		Weight:          round4(CandidateWeight(score.Similarity, score.DistanceMeters, score.DistanceKnown, months, hasSale)),
		MonthsSinceSale: months,
		Explanation:     explain(subject, comp, score),
	}
}

// explain lists plain-language reasons. They do not feed the scores.
func explain(subject, comp models.Property, score Score) []string {
	var reasons []string
	switch {
	case !score.DistanceKnown:
		reasons = append(reasons, "Location unknown: distance not scored")
	case score.DistanceMeters <= closeLocationMeters:
		reasons = append(reasons, fmt.Sprintf("Close location (%.0f m)", score.DistanceMeters))
	}
	if samePropertyType(subject, comp) {
		reasons = append(reasons, "Same property type")
	}
	if math.Abs(subject.Area-comp.Area) <= similarSizeUnits {
		reasons = append(reasons, fmt.Sprintf("Similar size (%.0f vs %.0f)", comp.Area, subject.Area))
	}
	if math.Abs(subject.Floor-comp.Floor) <= similarFloorLevels {
		reasons = append(reasons, fmt.Sprintf("Similar floor (%.0f vs %.0f)", comp.Floor, subject.Floor))
	}
	reasons = append(reasons, fmt.Sprintf("Similarity %.2f", score.Similarity))
	return reasons
}
