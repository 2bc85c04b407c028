package models

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record kinds. A CleanedRecord id is always prefixed by its kind.
const (
	KindTransaction = "transaction"
	KindListing     = "listing"
)

// RawRecord is one untyped input row as decoded from JSON. It is never
// persisted as-is.
type RawRecord map[string]any

// numericRegexp captures the first number, thousands separators allowed.
var numericRegexp = regexp.MustCompile(`-?[\d,]+(?:\.\d+)?`)

// Has reports whether key is present with a non-empty value.
func (r RawRecord) Has(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the trimmed string form of key, or "".
func (r RawRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns the numeric value of key. Strings such as "1,250,000" or
// "₪ 2,100,000" are accepted. ok is false when the value is missing or not
// numeric.
func (r RawRecord) Float(key string) (float64, bool) {
	v, present := r[key]
	if !present || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		match := numericRegexp.FindString(t)
		if match == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatPtr is Float returning nil for missing or non-finite values.
func (r RawRecord) FloatPtr(key string) *float64 {
	f, ok := r.Float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// dateLayouts are tried in order when parsing event dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
}

// Date parses key with the supported layouts. The offset is kept so the
// calendar day stays as written.
func (r RawRecord) Date(key string) (time.Time, bool) {
	s := r.String(key)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateField returns the date key a record of kind must carry.
func DateField(kind string) string {
	if kind == KindListing {
		return "listingDate"
	}
	return "transactionDate"
}

// NormalizedAddress is the structured form of a free-text address.
type NormalizedAddress struct {
	Raw             string  `json:"raw"`
	Cleaned         string  `json:"cleaned"`
	Normalized      string  `json:"normalized"`
	City            string  `json:"city"`
	Street          string  `json:"street"`
	CanonicalStreet string  `json:"canonicalStreet"`
	HouseNumber     string  `json:"houseNumber"`
	Confidence      float64 `json:"confidence"`
}

// CleanedRecord is an accepted input record enriched with scores and a
// dedupe fingerprint. It is never mutated after creation.
type CleanedRecord struct {
	ID                string            `json:"id"`
	Kind              string            `json:"kind"`
	Source            string            `json:"source"`
	SourceRecordID    string            `json:"sourceRecordId"`
	Address           NormalizedAddress `json:"normalizedAddress"`
	City              string            `json:"city"`
	Price             float64           `json:"price"`
	EventDate         string            `json:"eventDate"`
	Lat               *float64          `json:"lat,omitempty"`
	Lon               *float64          `json:"lon,omitempty"`
	Area              *float64          `json:"area,omitempty"`
	Floor             *float64          `json:"floor,omitempty"`
	Rooms             *float64          `json:"rooms,omitempty"`
	Status            string            `json:"status,omitempty"`
	CompletenessScore float64           `json:"completenessScore"`
	ConfidenceScore   float64           `json:"confidenceScore"`
	DedupeKey         string            `json:"dedupeKey"`
}

// DuplicateRecord is a cleaned record whose dedupe key was already seen.
type DuplicateRecord struct {
	CleanedRecord
	Index       int    `json:"index"`
	DuplicateOf string `json:"duplicateOf"`
}

// RecordError is a per-record validation failure.
type RecordError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// KindStats aggregates one kind's ingestion outcome.
type KindStats struct {
	CleanCount     int     `json:"cleanCount"`
	DuplicateCount int     `json:"duplicateCount"`
	ErrorCount     int     `json:"errorCount"`
	AvgConfidence  float64 `json:"avgConfidence"`
}

// KindResult is the partition of one kind's input.
type KindResult struct {
	Kind       string            `json:"kind"`
	Total      int               `json:"total"`
	Cleaned    []CleanedRecord   `json:"cleaned"`
	Duplicates []DuplicateRecord `json:"duplicates"`
	Errors     []RecordError     `json:"errors"`
	Stats      KindStats         `json:"stats"`
}

// RunSummary totals both kinds of an ingestion run.
type RunSummary struct {
	TotalInput    int     `json:"totalInput"`
	Cleaned       int     `json:"cleaned"`
	Duplicates    int     `json:"duplicates"`
	Errors        int     `json:"errors"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// IngestionRun is one immutable ingestion outcome.
type IngestionRun struct {
	RunID        string     `json:"runId"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	Transactions KindResult `json:"transactions"`
	Listings     KindResult `json:"listings"`
	Summary      RunSummary `json:"summary"`
}

// IngestionRunSummary is the listing projection of an IngestionRun.
type IngestionRunSummary struct {
	RunID     string     `json:"runId"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	Summary   RunSummary `json:"summary"`
}

// SummaryView projects the run for listings.
func (r *IngestionRun) SummaryView() IngestionRunSummary {
	return IngestionRunSummary{
		RunID:     r.RunID,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		Summary:   r.Summary,
	}
}
