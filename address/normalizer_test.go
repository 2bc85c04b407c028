package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`  Herzl St. 12,  Tel-Aviv `, "herzl st 12 tel-aviv"},
		{"Be'er Sheva", "beer sheva"},
		{"\u200fרח' הרצל 5\u200e", "רח הרצל 5"},
		{"Café Röntgen 3", "cafe rontgen 3"},
		{"Line\tone\nline two", "line one line two"},
		{"a - b", "a b"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Clean(tt.raw); got != tt.want {
			t.Errorf("Clean(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeFullAddress(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("Herzl St. 12, Apt 4, Tel Aviv", "")

	assert.Equal(t, "herzl street 12 tel aviv", got.Cleaned)
	assert.Equal(t, "tel aviv-yafo", got.City)
	assert.Equal(t, "herzl", got.Street)
	assert.Equal(t, "herzl", got.CanonicalStreet)
	assert.Equal(t, "12", got.HouseNumber)
	assert.Equal(t, "tel aviv-yafo | herzl | 12", got.Normalized)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestNormalizeStreetAliasesCollapse(t *testing.T) {
	n := NewNormalizer(nil)

	a := n.Normalize("Ben-Yehuda 40 Tel Aviv", "")
	b := n.Normalize("rehov ben yehudah 40, tel-aviv", "")

	assert.Equal(t, "ben yehuda", a.CanonicalStreet)
	assert.Equal(t, "ben yehuda", b.CanonicalStreet)
	assert.Equal(t, a.Normalized, b.Normalized)
}

func TestNormalizeHebrewAddress(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("רח' אבן גבירול 30, קומה 3, תל אביב", "")

	assert.Equal(t, "tel aviv-yafo", got.City)
	assert.Equal(t, "אבן גבירול", got.Street)
	assert.Equal(t, "ibn gabirol", got.CanonicalStreet)
	assert.Equal(t, "30", got.HouseNumber)
	assert.Equal(t, "tel aviv-yafo | ibn gabirol | 30", got.Normalized)
}

func TestNormalizeLongestCityWins(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("Sokolov 7 Ramat Hasharon", "")

	assert.Equal(t, "ramat hasharon", got.City)
	assert.Equal(t, "sokolov", got.CanonicalStreet)
}

func TestNormalizeUnknownStreetPassesThrough(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("Hashaked 3B Haifa", "")

	assert.Equal(t, "haifa", got.City)
	assert.Equal(t, "hashaked", got.CanonicalStreet)
	assert.Equal(t, "3b", got.HouseNumber)
}

func TestNormalizeCityHint(t *testing.T) {
	n := NewNormalizer(nil)

	withHint := n.Normalize("Weizman 10", "Kfar-Saba")
	assert.Equal(t, "kfar saba", withHint.City)
	assert.Equal(t, "weizmann", withHint.CanonicalStreet)

	unknownHint := n.Normalize("Weizman 10", "Springfield")
	assert.Equal(t, "", unknownHint.City)
	assert.Equal(t, "weizmann | 10", unknownHint.Normalized)
}

func TestNormalizeConfidenceIsAdditive(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"empty", "", 0},
		{"house number only", "12", 0.20},
		{"street only, short", "Herzl", 0.35},
		{"street and number", "Herzl 12", 0.35 + 0.20 + 0.05},
		{"unknown city text, long", "Somewhere far 12", 0.35 + 0.20 + 0.05 + 0.05},
		{"everything", "Dizengoff 100 Tel Aviv", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw, "")
			assert.InDelta(t, tt.want, got.Confidence, 1e-9)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestNormalizeGarbledInput(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Normalize("!!! ??? ***", "")

	assert.Equal(t, "", got.Cleaned)
	assert.Equal(t, "", got.Normalized)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestCustomGazetteer(t *testing.T) {
	g := NewGazetteer(
		[]CityEntry{{Name: "springfield", Aliases: []string{"springfield", "spfld"}}},
		[]StreetAlias{{Canonical: "evergreen terrace", Variants: []string{"evergreen ter"}}},
	)
	got := NewNormalizer(g).Normalize("742 Evergreen Ter, Spfld", "")

	assert.Equal(t, "springfield", got.City)
	assert.Equal(t, "evergreen terrace", got.CanonicalStreet)
	assert.Equal(t, "springfield | evergreen terrace | 742", got.Normalized)
}

func TestNormalizeDropsApartmentAfterSlash(t *testing.T) {
	n := NewNormalizer(nil)
	plain := n.Normalize("Herzl 12, Tel Aviv", "")

	for _, raw := range []string{"Herzl 12/4, Tel Aviv", "Herzl 12 / 4, Tel Aviv"} {
		got := n.Normalize(raw, "")
		assert.Equal(t, "12", got.HouseNumber, raw)
		assert.Equal(t, "herzl", got.Street, raw)
		assert.Equal(t, plain.Normalized, got.Normalized, raw)
	}
}
