package services

import (
	"math"

	"property-valuation/models"
)

// Validation reasons. They are surfaced verbatim in ingestion error lists.
const (
	ReasonNotObject       = "record is not an object"
	ReasonMissingSource   = "missing source"
	ReasonMissingSourceID = "missing sourceRecordId"
	ReasonMissingAddress  = "missing address"
	ReasonInvalidPrice    = "invalid price"
	ReasonUnknownKind     = "unknown kind"
)

// ValidateRecord checks one raw input against the rules for kind and
// returns a rejection reason, or "" when the record is acceptable.
func ValidateRecord(rec any, kind string) string {
	raw, ok := asRawRecord(rec)
	if !ok {
		return ReasonNotObject
	}
	if kind != models.KindTransaction && kind != models.KindListing {
		return ReasonUnknownKind
	}
	if !raw.Has("source") {
		return ReasonMissingSource
	}
	if !raw.Has("sourceRecordId") {
		return ReasonMissingSourceID
	}
	if !raw.Has("address") {
		return ReasonMissingAddress
	}
	price, ok := raw.Float("price")
	if !ok || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ReasonInvalidPrice
	}
	if field := models.DateField(kind); !raw.Has(field) {
		return "missing " + field
	}
	return ""
}

func asRawRecord(rec any) (models.RawRecord, bool) {
	switch t := rec.(type) {
	case models.RawRecord:
		return t, t != nil
	case map[string]any:
		return models.RawRecord(t), t != nil
	default:
		return nil, false
	}
}
