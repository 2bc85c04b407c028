package services

import (
	"math"
	"strings"
	"time"

	"property-valuation/models"
)

// Source reliability tiers. A fixed heuristic on the source label.
const (
	reliabilityOfficial = 0.95
	reliabilityListing  = 0.65
	reliabilityDefault  = 0.75
)

// Record confidence weights.
const (
	weightSource       = 0.35
	weightRecency      = 0.25
	weightAddress      = 0.25
	weightCompleteness = 0.15

	recencyHorizonMonths = 48.0
	daysPerMonth         = 30.4375
)

var officialSourceMarkers = []string{"gov", "tax", "official", "registry", "land registry", "רשות", "מיסוי", "מסים"}
var listingSourceMarkers = []string{"listing", "market", "portal", "yad2", "madlan", "broker", "agent"}

// SourceReliability scores a source label by case-insensitive substring
// match: official sources first, then listing sites, then everything else.
func SourceReliability(source string) float64 {
	s := strings.ToLower(source)
	for _, m := range officialSourceMarkers {
		if strings.Contains(s, m) {
			return reliabilityOfficial
		}
	}
	for _, m := range listingSourceMarkers {
		if strings.Contains(s, m) {
			return reliabilityListing
		}
	}
	return reliabilityDefault
}

// MonthsBetween returns the months elapsed from a to b. A b before a
// yields 0.
func MonthsBetween(a, b time.Time) float64 {
	return math.Max(0, b.Sub(a).Hours()/24) / daysPerMonth
}

// Recency is 1 − months/48 clamped to [0,1]. Unparseable dates score 0.
func Recency(eventDate time.Time, ok bool, now time.Time) float64 {
	if !ok {
		return 0
	}
	return clamp(1-MonthsBetween(eventDate, now)/recencyHorizonMonths, 0, 1)
}

// Completeness scores how many optional attributes a record carries.
func Completeness(raw models.RawRecord, kind string) float64 {
	score := 0.4
	if raw.Has("area") {
		score += 0.2
	}
	if raw.Has("floor") {
		score += 0.1
	}
	if raw.Has("rooms") {
		score += 0.1
	}
	if raw.Has("lat") && raw.Has("lon") {
		score += 0.2
	}
	if kind == models.KindListing && raw.Has("status") {
		score += 0.05
	}
	return clamp(score, 0, 1)
}

// RecordConfidence combines the four sub-scores.
func RecordConfidence(source, recency, address, completeness float64) float64 {
	return clamp(weightSource*source+weightRecency*recency+
		weightAddress*address+weightCompleteness*completeness, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
