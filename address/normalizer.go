// Package address turns free-text property addresses into a structured
// (city, street, house number) tuple with a confidence score. Matching is
// table driven and exact: unknown cities or streets lower the confidence,
// they never produce an error.
package address

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"property-valuation/models"
)

// KeySeparator joins the components of a normalized address key.
const KeySeparator = " | "

// Confidence contributions.
const (
	cityWeight        = 0.35
	streetWeight      = 0.35
	houseNumberWeight = 0.20
	lengthBonus       = 0.05
	componentsBonus   = 0.05
	minCleanedLength  = 10
)

// houseNumberRegexp matches 1–5 digits optionally followed by one letter.
var houseNumberRegexp = regexp.MustCompile(`^\d{1,5}[a-zא-ת]?$`)

// apartmentRegexp matches "house/apartment" notation such as 12/4.
var apartmentRegexp = regexp.MustCompile(`(\d+[a-zA-Zא-ת]?)\s*/\s*\d+[a-zA-Zא-ת]?`)

// quoteMarks are deleted outright so that "be'er" and "beer" agree.
var quoteMarks = map[rune]bool{
	'"': true, '\'': true, '`': true, '´': true,
	'‘': true, '’': true, '“': true, '”': true, '„': true,
	'״': true, '׳': true,
}

// Normalizer canonicalizes addresses against a gazetteer.
type Normalizer struct {
	gazetteer *Gazetteer
}

// NewNormalizer creates a Normalizer. A nil gazetteer means the defaults.
func NewNormalizer(g *Gazetteer) *Normalizer {
	if g == nil {
		g = DefaultGazetteer()
	}
	return &Normalizer{gazetteer: g}
}

// Normalize cleans raw and splits it into its components. cityHint is the
// record's separate city field, consulted only when the address itself names
// no known city.
func (n *Normalizer) Normalize(raw, cityHint string) models.NormalizedAddress {
	out := models.NormalizedAddress{Raw: raw}

	tokens := strings.Fields(Clean(apartmentRegexp.ReplaceAllString(raw, "$1")))
	tokens = expandAbbreviations(tokens)
	tokens = dropUnitTokens(tokens)
	out.Cleaned = strings.Join(tokens, " ")

	houseIdx := -1
	for i, tok := range tokens {
		if houseNumberRegexp.MatchString(tok) {
			houseIdx = i
			out.HouseNumber = tok
			break
		}
	}

	drop := make([]bool, len(tokens))
	if houseIdx >= 0 {
		drop[houseIdx] = true
	}

	if city, start, length := n.gazetteer.MatchCity(tokens); city != "" {
		out.City = city
		for i := start; i < start+length; i++ {
			drop[i] = true
		}
	} else if cityHint != "" {
		out.City = n.gazetteer.LookupCity(Clean(cityHint))
	}

	rest := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if !drop[i] {
			rest = append(rest, tok)
		}
	}
	out.Street = strings.Join(stripStreetType(rest), " ")
	out.CanonicalStreet = n.gazetteer.CanonicalStreet(out.Street)

	parts := make([]string, 0, 3)
	for _, p := range []string{out.City, out.CanonicalStreet, out.HouseNumber} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out.Normalized = strings.ToLower(strings.Join(parts, KeySeparator))

	var conf float64
	if out.City != "" {
		conf += cityWeight
	}
	if out.CanonicalStreet != "" {
		conf += streetWeight
	}
	if out.HouseNumber != "" {
		conf += houseNumberWeight
	}
	if utf8.RuneCountInString(out.Cleaned) >= minCleanedLength {
		conf += lengthBonus
	}
	if len(parts) >= 2 {
		conf += componentsBonus
	}
	out.Confidence = clamp01(conf)
	return out
}

// diacritics removes combining marks, including Hebrew points.
var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Clean lower-cases s, deletes quote marks, directional and format
// characters and diacritics, turns remaining punctuation except '-' into
// spaces and collapses whitespace.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	if stripped, _, err := transform.String(diacritics, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case quoteMarks[r]:
		case unicode.Is(unicode.Cf, r):
			// bidi marks, zero-width joiners
		case unicode.IsControl(r):
			b.WriteRune(' ')
		case r == '-':
			b.WriteRune(r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}

	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

func expandAbbreviations(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if full, ok := abbreviations[tok]; ok {
			out[i] = full
		} else {
			out[i] = tok
		}
	}
	return out
}

func dropUnitTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if unitMarkers[tokens[i]] {
			i++
			continue
		}
		out = append(out, tokens[i])
	}
	return out
}

func stripStreetType(tokens []string) []string {
	for len(tokens) > 0 && streetPrefixes[tokens[0]] {
		tokens = tokens[1:]
	}
	if len(tokens) > 1 && streetSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
