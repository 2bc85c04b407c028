package services

import (
	"math"

	"property-valuation/models"
)

// Per-factor adjustment bands. Each component is clamped to ±band so that no
// single heuristic dominates; the sum is clamped to ±MaxTotalAdjustment.
const (
	bandFloor       = 0.08
	bandElevator    = 0.025
	bandRenovation  = 0.12
	bandBalcony     = 0.012
	bandParking     = 0.03
	bandView        = 0.018
	bandNoise       = 0.05
	bandSize        = 0.08
	bandPlanning    = 0.06
	bandInteraction = 0.03

	MaxTotalAdjustment = 0.25
)

// Per-unit slopes of the graded components.
const (
	floorPerLevel      = 0.01
	renovationPerPoint = 0.02
	noisePerPoint      = 0.01
	sizeElasticity     = 0.5
	planningPerUnit    = 0.1
	walkUpPerFloor     = 0.005
	walkUpFreeFloors   = 3.0
)

// ComputeAdjustment derives the ten components for pricing comp as if it
// were subject. Positive values mean the subject is worth more.
func ComputeAdjustment(subject, comp models.Property) models.Adjustment {
	adj := models.Adjustment{
		Floor:       clamp(floorPerLevel*(subject.Floor-comp.Floor), -bandFloor, bandFloor),
		Elevator:    binaryAdjustment(subject.HasElevator, comp.HasElevator, bandElevator),
		Renovation:  clamp(renovationPerPoint*(subject.ConditionScore-comp.ConditionScore), -bandRenovation, bandRenovation),
		Balcony:     binaryAdjustment(subject.HasBalcony, comp.HasBalcony, bandBalcony),
		Parking:     binaryAdjustment(subject.HasParking, comp.HasParking, bandParking),
		View:        binaryAdjustment(subject.HasView, comp.HasView, bandView),
		Noise:       clamp(noisePerPoint*(comp.NoiseLevel-subject.NoiseLevel), -bandNoise, bandNoise),
		Planning:    clamp(planningPerUnit*(subject.PlanningPotential-comp.PlanningPotential), -bandPlanning, bandPlanning),
		Interaction: clamp(walkUpPerFloor*(walkUpFloors(comp)-walkUpFloors(subject)), -bandInteraction, bandInteraction),
	}
	if comp.Area > 0 {
		adj.Size = clamp(sizeElasticity*(subject.Area-comp.Area)/comp.Area, -bandSize, bandSize)
	}
	adj.TotalPercent = TotalAdjustment(adj)
	return adj
}

// TotalAdjustment re-sums all ten components and clamps the result.
func TotalAdjustment(a models.Adjustment) float64 {
	return clamp(a.Sum(), -MaxTotalAdjustment, MaxTotalAdjustment)
}

// MergeAdjustment applies patch on top of a and recomputes the total.
// Patched values replace the component as given; only the total is clamped.
func MergeAdjustment(a models.Adjustment, patch *models.AdjustmentPatch) models.Adjustment {
	if patch != nil {
		set := func(dst *float64, v *float64) {
			if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
				*dst = *v
			}
		}
		set(&a.Floor, patch.Floor)
		set(&a.Elevator, patch.Elevator)
		set(&a.Renovation, patch.Renovation)
		set(&a.Balcony, patch.Balcony)
		set(&a.Parking, patch.Parking)
		set(&a.View, patch.View)
		set(&a.Noise, patch.Noise)
		set(&a.Size, patch.Size)
		set(&a.Planning, patch.Planning)
		set(&a.Interaction, patch.Interaction)
	}
	a.TotalPercent = TotalAdjustment(a)
	return a
}

// AdjustedPrice is round(base × (1 + total)).
func AdjustedPrice(base, totalPercent float64) int64 {
	return int64(math.Round(base * (1 + totalPercent)))
}

func binaryAdjustment(subjectHas, compHas bool, band float64) float64 {
	switch {
	case subjectHas && !compHas:
		return band
	case !subjectHas && compHas:
		return -band
	default:
		return 0
	}
}

// walkUpFloors counts floors above the free threshold climbed without an
// elevator.
func walkUpFloors(p models.Property) float64 {
	if p.HasElevator {
		return 0
	}
	return math.Max(0, p.Floor-walkUpFreeFloors)
}
