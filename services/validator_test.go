package services

import (
	"math"
	"testing"

	"property-valuation/models"
)

func validTransaction() map[string]any {
	return map[string]any{
		"source":          "Tax Authority",
		"sourceRecordId":  "tx-1",
		"address":         "Dizengoff St 50, Tel Aviv",
		"price":           2500000.0,
		"transactionDate": "2025-01-15",
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		kind   string
		want   string
	}{
		{"valid", func(map[string]any) {}, models.KindTransaction, ""},
		{"missing source", func(m map[string]any) { delete(m, "source") }, models.KindTransaction, ReasonMissingSource},
		{"blank source", func(m map[string]any) { m["source"] = "  " }, models.KindTransaction, ReasonMissingSource},
		{"missing id", func(m map[string]any) { delete(m, "sourceRecordId") }, models.KindTransaction, ReasonMissingSourceID},
		{"missing address", func(m map[string]any) { delete(m, "address") }, models.KindTransaction, ReasonMissingAddress},
		{"missing price", func(m map[string]any) { delete(m, "price") }, models.KindTransaction, ReasonInvalidPrice},
		{"zero price", func(m map[string]any) { m["price"] = 0.0 }, models.KindTransaction, ReasonInvalidPrice},
		{"negative price", func(m map[string]any) { m["price"] = -5.0 }, models.KindTransaction, ReasonInvalidPrice},
		{"NaN price", func(m map[string]any) { m["price"] = math.NaN() }, models.KindTransaction, ReasonInvalidPrice},
		{"text price", func(m map[string]any) { m["price"] = "call us" }, models.KindTransaction, ReasonInvalidPrice},
		{"formatted price", func(m map[string]any) { m["price"] = "2,500,000" }, models.KindTransaction, ""},
		{"missing transaction date", func(m map[string]any) { delete(m, "transactionDate") }, models.KindTransaction, "missing transactionDate"},
		{"listing needs listingDate", func(map[string]any) {}, models.KindListing, "missing listingDate"},
		{"unknown kind", func(map[string]any) {}, "auction", ReasonUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validTransaction()
			tt.mutate(rec)
			if got := ValidateRecord(rec, tt.kind); got != tt.want {
				t.Errorf("ValidateRecord() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRecordNotAnObject(t *testing.T) {
	for _, rec := range []any{nil, "text", 42, []any{1}, map[string]any(nil)} {
		if got := ValidateRecord(rec, models.KindTransaction); got != ReasonNotObject {
			t.Errorf("ValidateRecord(%#v) = %q, want %q", rec, got, ReasonNotObject)
		}
	}
}
