package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation/models"
)

func ptr(f float64) *float64 { return &f }

func subjectProperty() models.Property {
	return models.Property{
		ID: "subject", Lat: ptr(32.0853), Lon: ptr(34.7818),
		Area: 100, Floor: 4, BuildingYear: 1990, ConditionScore: 7,
		PropertyType: "apartment", HasElevator: true, HasBalcony: true,
		NoiseLevel: 4, PlanningPotential: 0.3,
	}
}

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(32, 34, 32, 34))
	// one degree of latitude is ~111.2 km
	assert.InDelta(t, 111195, Haversine(0, 0, 1, 0), 50)
	// Tel Aviv to Jerusalem is ~54 km
	assert.InDelta(t, 54000, Haversine(32.0853, 34.7818, 31.7683, 35.2137), 2000)
}

func TestDistanceUnknownWithoutCoordinates(t *testing.T) {
	subject := subjectProperty()
	comp := models.Property{Area: 100}

	d, known := NewScorer(false).Distance(subject, comp)
	assert.False(t, known)
	assert.Equal(t, 0.0, d)

	legacy, known := NewScorer(true).Distance(subject, comp)
	assert.True(t, known)
	assert.Greater(t, legacy, 3_000_000.0)
}

func TestSimilarityIdenticalIsOne(t *testing.T) {
	s := NewScorer(false)
	subject := subjectProperty()
	score := s.Score(subject, subject)
	assert.InDelta(t, 1.0, score.Similarity, 1e-9)
	assert.Equal(t, 0.0, score.Adjustment.TotalPercent)
}

func TestSimilarityTerms(t *testing.T) {
	s := NewScorer(false)
	subject := subjectProperty()

	comp := subject
	comp.PropertyType = "House"
	assert.InDelta(t, 1-typeWeight*(1-typeMismatchScore), s.Score(subject, comp).Similarity, 1e-9)

	comp = subject
	comp.PropertyType = " APARTMENT "
	assert.InDelta(t, 1.0, s.Score(subject, comp).Similarity, 1e-9)

	comp = subject
	comp.Lat, comp.Lon = nil, nil
	score := s.Score(subject, comp)
	assert.False(t, score.DistanceKnown)
	assert.InDelta(t, 1-geoWeight, score.Similarity, 1e-9)

	comp = subject
	comp.Area = 200
	assert.InDelta(t, 1-sizeWeight*0.5, s.Score(subject, comp).Similarity, 1e-9)
}

func TestScoresStayInBounds(t *testing.T) {
	s := NewScorer(true)
	subject := subjectProperty()
	extremes := []models.Property{
		{},
		{Lat: ptr(-80), Lon: ptr(170), Area: 1e6, Floor: 300, BuildingYear: 1500, ConditionScore: -50, NoiseLevel: 100, PlanningPotential: 50},
		{Area: -10, Floor: -3, HasElevator: true, HasBalcony: true, HasParking: true, HasView: true},
		{Area: math.NaN()},
	}
	for i, comp := range extremes {
		score := s.Score(subject, comp)
		assert.GreaterOrEqual(t, score.Similarity, 0.0, "case %d", i)
		assert.LessOrEqual(t, score.Similarity, 1.0, "case %d", i)
		assert.GreaterOrEqual(t, score.Adjustment.TotalPercent, -MaxTotalAdjustment, "case %d", i)
		assert.LessOrEqual(t, score.Adjustment.TotalPercent, MaxTotalAdjustment, "case %d", i)
	}
}

func TestComputeAdjustmentComponents(t *testing.T) {
	subject := subjectProperty()
	comp := subject
	comp.Floor = 2
	comp.HasElevator = false
	comp.HasBalcony = false
	comp.HasParking = true
	comp.ConditionScore = 5
	comp.NoiseLevel = 6
	comp.Area = 80
	comp.PlanningPotential = 0.1

	adj := ComputeAdjustment(subject, comp)
	assert.InDelta(t, 0.02, adj.Floor, 1e-9)
	assert.InDelta(t, bandElevator, adj.Elevator, 1e-9)
	assert.InDelta(t, bandBalcony, adj.Balcony, 1e-9)
	assert.InDelta(t, -bandParking, adj.Parking, 1e-9)
	assert.InDelta(t, 0.04, adj.Renovation, 1e-9)
	assert.InDelta(t, 0.02, adj.Noise, 1e-9)
	assert.InDelta(t, 0.08, adj.Size, 1e-9) // 0.5·20/80 = 0.125, clamped
	assert.InDelta(t, 0.02, adj.Planning, 1e-9)
	// subject has an elevator; comp walks up nothing at floor 2
	assert.InDelta(t, 0.0, adj.Interaction, 1e-9)
	assert.InDelta(t, math.Min(adj.Sum(), MaxTotalAdjustment), adj.TotalPercent, 1e-9)
}

func TestComputeAdjustmentWalkUp(t *testing.T) {
	subject := models.Property{Floor: 2, HasElevator: true, Area: 70}
	comp := models.Property{Floor: 7, Area: 70}
	adj := ComputeAdjustment(subject, comp)
	assert.InDelta(t, 0.02, adj.Interaction, 1e-9)
}

func TestMergeAdjustmentClampsTotalOnly(t *testing.T) {
	base := models.Adjustment{Renovation: 0.1, Size: 0.08}
	base.TotalPercent = TotalAdjustment(base)

	merged := MergeAdjustment(base, &models.AdjustmentPatch{Floor: ptr(0.5)})
	assert.Equal(t, 0.5, merged.Floor)
	assert.Equal(t, MaxTotalAdjustment, merged.TotalPercent)

	negative := MergeAdjustment(base, &models.AdjustmentPatch{Renovation: ptr(-1), Size: ptr(0)})
	assert.Equal(t, -MaxTotalAdjustment, negative.TotalPercent)

	unchanged := MergeAdjustment(base, &models.AdjustmentPatch{Floor: ptr(math.NaN())})
	assert.Equal(t, base, unchanged)
}

func TestAdjustedPriceRounds(t *testing.T) {
	assert.Equal(t, int64(1100000), AdjustedPrice(1000000, 0.1))
	assert.Equal(t, int64(750000), AdjustedPrice(1000000, -0.25))
	assert.Equal(t, int64(2), AdjustedPrice(1.5, 0.1))
}

func TestMonthsSinceSale(t *testing.T) {
	_, ok := MonthsSinceSale(models.Property{}, fixedNow)
	assert.False(t, ok)

	sold := fixedNow.AddDate(0, 0, -365)
	months, ok := MonthsSinceSale(models.Property{SaleDate: &sold}, fixedNow)
	require.True(t, ok)
	assert.InDelta(t, 12, months, 0.05)

	zero := time.Time{}
	_, ok = MonthsSinceSale(models.Property{SaleDate: &zero}, fixedNow)
	assert.False(t, ok)
}
