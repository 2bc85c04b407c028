package services

import (
	"math"
	"strings"
	"time"

	"property-valuation/models"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6_371_000.0

// Similarity term scales and weights.
const (
	geoScale       = 5000.0
	sizeScale      = 200.0
	floorScale     = 30.0
	ageScale       = 100.0
	conditionScale = 10.0

	geoWeight       = 0.35
	sizeWeight      = 0.15
	floorWeight     = 0.10
	ageWeight       = 0.10
	conditionWeight = 0.15
	typeWeight      = 0.15

	typeMismatchScore = 0.7
)

// Score is the outcome of comparing one candidate with the subject.
type Score struct {
	DistanceMeters float64
	DistanceKnown  bool
	Similarity     float64
	Adjustment     models.Adjustment
}

// Scorer compares candidate comparables with a subject property.
type Scorer struct {
	// LegacyOriginDistance treats missing coordinates as (0,0) instead of
	// reporting the distance as unknown.
	LegacyOriginDistance bool
}

// NewScorer creates a Scorer.
func NewScorer(legacyOriginDistance bool) *Scorer {
	return &Scorer{LegacyOriginDistance: legacyOriginDistance}
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Distance returns the distance between two properties. known is false when
// either side lacks coordinates, unless LegacyOriginDistance is set.
func (s *Scorer) Distance(a, b models.Property) (meters float64, known bool) {
	if a.HasCoordinates() && b.HasCoordinates() {
		return Haversine(*a.Lat, *a.Lon, *b.Lat, *b.Lon), true
	}
	if !s.LegacyOriginDistance {
		return 0, false
	}
	return Haversine(deref(a.Lat), deref(a.Lon), deref(b.Lat), deref(b.Lon)), true
}

// Similarity combines the closeness terms into a score in [0,1]. An unknown
// distance contributes nothing to the geographic term.
func (s *Scorer) Similarity(subject, comp models.Property, distance float64, known bool) float64 {
	geo := 0.0
	if known {
		geo = closeness(distance, geoScale)
	}
	typeScore := typeMismatchScore
	if samePropertyType(subject, comp) {
		typeScore = 1.0
	}
	sim := geoWeight*geo +
		sizeWeight*closeness(subject.Area-comp.Area, sizeScale) +
		floorWeight*closeness(subject.Floor-comp.Floor, floorScale) +
		ageWeight*closeness(float64(subject.BuildingYear-comp.BuildingYear), ageScale) +
		conditionWeight*closeness(subject.ConditionScore-comp.ConditionScore, conditionScale) +
		typeWeight*typeScore
	return clamp(sim, 0, 1)
}

// Score computes distance, similarity and adjustment for one candidate.
func (s *Scorer) Score(subject, comp models.Property) Score {
	dist, known := s.Distance(subject, comp)
	return Score{
		DistanceMeters: dist,
		DistanceKnown:  known,
		Similarity:     s.Similarity(subject, comp, dist, known),
		Adjustment:     ComputeAdjustment(subject, comp),
	}
}

// MonthsSinceSale returns months between comp's sale and now. ok is false
// without a sale date.
func MonthsSinceSale(comp models.Property, now time.Time) (float64, bool) {
	if comp.SaleDate == nil || comp.SaleDate.IsZero() {
		return 0, false
	}
	return MonthsBetween(*comp.SaleDate, now), true
}

// closeness maps a difference to 1 − clamp(|Δ|/scale, 0, 1).
func closeness(delta, scale float64) float64 {
	return 1 - clamp(math.Abs(delta)/scale, 0, 1)
}

func samePropertyType(a, b models.Property) bool {
	return strings.EqualFold(strings.TrimSpace(a.PropertyType), strings.TrimSpace(b.PropertyType))
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
