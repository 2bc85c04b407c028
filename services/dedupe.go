package services

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Sentinel for a missing dedupe key component.
const dedupeMissing = "na"

// Binning granularity for the dedupe fingerprint.
const (
	coordBinDecimals = 3 // ~110 m
	areaBin          = 5.0
	priceBin         = 1000.0
)

// DedupeInput holds the fields that identify one real-world event.
type DedupeInput struct {
	NormalizedAddress string
	City              string
	Lat               *float64
	Lon               *float64
	Area              *float64
	EventDate         time.Time
	HasEventDate      bool
	Price             *float64
}

// DedupeKey builds the pipe-joined fingerprint. Binning forgives small
// measurement noise; missing components become "na".
func DedupeKey(in DedupeInput) string {
	parts := []string{
		lowerOrMissing(in.NormalizedAddress),
		lowerOrMissing(in.City),
		coordBin(in.Lat),
		coordBin(in.Lon),
		bin(in.Area, areaBin),
		dayOrMissing(in.EventDate, in.HasEventDate),
		bin(in.Price, priceBin),
	}
	return strings.Join(parts, "|")
}

func lowerOrMissing(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return dedupeMissing
	}
	return s
}

func coordBin(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return dedupeMissing
	}
	scale := math.Pow(10, coordBinDecimals)
	binned := math.Round(*v*scale) / scale
	if binned == 0 {
		binned = 0 // normalise -0
	}
	return strconv.FormatFloat(binned, 'f', coordBinDecimals, 64)
}

func bin(v *float64, step float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return dedupeMissing
	}
	return strconv.FormatInt(int64(math.Round(*v/step)*step), 10)
}

func dayOrMissing(t time.Time, ok bool) string {
	if !ok {
		return dedupeMissing
	}
	return t.Format("2006-01-02")
}
