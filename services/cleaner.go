package services

import (
	"time"

	"github.com/google/uuid"

	"property-valuation/address"
	"property-valuation/models"
	"property-valuation/utils"
)

// Cleaner validates, normalizes, scores and de-duplicates raw records.
type Cleaner struct {
	logger     *utils.Logger
	normalizer *address.Normalizer
	now        func() time.Time
	newID      func() string
}

// NewCleaner creates a Cleaner with the given logger and the default gazetteer.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{
		logger:     logger,
		normalizer: address.NewNormalizer(nil),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// WithClock replaces the clock used for recency scoring.
func (c *Cleaner) WithClock(now func() time.Time) *Cleaner {
	c.now = now
	return c
}

// WithNormalizer replaces the address normalizer.
func (c *Cleaner) WithNormalizer(n *address.Normalizer) *Cleaner {
	c.normalizer = n
	return c
}

// Clean partitions records of one kind into cleaned, duplicate and error
// sets, in input order. Validation failures are collected, never fatal.
// The first record with a given dedupe key is kept; later ones are listed as
// duplicates of it.
func (c *Cleaner) Clean(records []any, kind string) models.KindResult {
	result := models.KindResult{
		Kind:       kind,
		Total:      len(records),
		Cleaned:    make([]models.CleanedRecord, 0, len(records)),
		Duplicates: make([]models.DuplicateRecord, 0),
		Errors:     make([]models.RecordError, 0),
	}

	seen := utils.NewKeySet()
	now := c.now()

	for i, rec := range records {
		if reason := ValidateRecord(rec, kind); reason != "" {
			c.logger.Debug("[cleaner] %s #%d rejected: %s", kind, i, reason)
			result.Errors = append(result.Errors, models.RecordError{Index: i, Reason: reason})
			continue
		}

		raw, _ := asRawRecord(rec)
		cleaned := c.buildRecord(raw, kind, now)

		if !seen.Add(cleaned.DedupeKey) {
			first := result.Cleaned[seen.Position(cleaned.DedupeKey)]
			c.logger.Debug("[cleaner] %s #%d duplicates %s", kind, i, first.ID)
			result.Duplicates = append(result.Duplicates, models.DuplicateRecord{
				CleanedRecord: cleaned,
				Index:         i,
				DuplicateOf:   first.ID,
			})
			continue
		}
		result.Cleaned = append(result.Cleaned, cleaned)
	}

	var total float64
	for _, r := range result.Cleaned {
		total += r.ConfidenceScore
	}
	result.Stats = models.KindStats{
		CleanCount:     len(result.Cleaned),
		DuplicateCount: len(result.Duplicates),
		ErrorCount:     len(result.Errors),
	}
	if len(result.Cleaned) > 0 {
		result.Stats.AvgConfidence = round4(total / float64(len(result.Cleaned)))
	}

	c.logger.Info("[cleaner] %s: %d in → %d clean, %d duplicate, %d rejected",
		kind, len(records), result.Stats.CleanCount, result.Stats.DuplicateCount, result.Stats.ErrorCount)
	return result
}

func (c *Cleaner) buildRecord(raw models.RawRecord, kind string, now time.Time) models.CleanedRecord {
	addr := c.normalizer.Normalize(raw.String("address"), raw.String("city"))

	city := addr.City
	if city == "" {
		city = raw.String("city")
	}

	eventDate, hasDate := raw.Date(models.DateField(kind))
	price, _ := raw.Float("price")

	rec := models.CleanedRecord{
		ID:             kind + "_" + c.newID(),
		Kind:           kind,
		Source:         raw.String("source"),
		SourceRecordID: raw.String("sourceRecordId"),
		Address:        addr,
		City:           city,
		Price:          price,
		Lat:            raw.FloatPtr("lat"),
		Lon:            raw.FloatPtr("lon"),
		Area:           raw.FloatPtr("area"),
		Floor:          raw.FloatPtr("floor"),
		Rooms:          raw.FloatPtr("rooms"),
		Status:         raw.String("status"),
	}
	if hasDate {
		rec.EventDate = eventDate.Format("2006-01-02")
	} else {
		rec.EventDate = raw.String(models.DateField(kind))
	}

	rec.CompletenessScore = Completeness(raw, kind)
	rec.ConfidenceScore = round4(RecordConfidence(
		SourceReliability(rec.Source),
		Recency(eventDate, hasDate, now),
		addr.Confidence,
		rec.CompletenessScore,
	))
	rec.DedupeKey = DedupeKey(DedupeInput{
		NormalizedAddress: addr.Normalized,
		City:              city,
		Lat:               rec.Lat,
		Lon:               rec.Lon,
		Area:              rec.Area,
		EventDate:         eventDate,
		HasEventDate:      hasDate,
		Price:             &price,
	})
	return rec
}
