package address

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// CityEntry is one gazetteer city: its canonical name and every spelling
// that should resolve to it. Spellings are matched after cleaning, so they
// are lower-case and free of quote marks.
type CityEntry struct {
	Name    string
	Aliases []string
}

// StreetAlias collapses spelling variants of one street name.
type StreetAlias struct {
	Canonical string
	Variants  []string
}

// defaultCities is the fixed city table. Matching is exact on whole words.
var defaultCities = []CityEntry{
	{"tel aviv-yafo", []string{"tel aviv-yafo", "tel aviv yafo", "tel aviv jaffa", "tel-aviv", "tel aviv", "תל אביב-יפו", "תל אביב יפו", "תל אביב"}},
	{"jerusalem", []string{"jerusalem", "yerushalayim", "ירושלים"}},
	{"haifa", []string{"haifa", "חיפה"}},
	{"ramat gan", []string{"ramat gan", "ramat-gan", "רמת גן", "רמת-גן"}},
	{"ramat hasharon", []string{"ramat hasharon", "ramat ha-sharon", "רמת השרון"}},
	{"givatayim", []string{"givatayim", "givataim", "גבעתיים"}},
	{"petah tikva", []string{"petah tikva", "petach tikva", "petah-tikva", "petah tiqwa", "פתח תקווה", "פתח תקוה"}},
	{"rishon lezion", []string{"rishon lezion", "rishon le zion", "rishon letzion", "ראשון לציון"}},
	{"herzliya", []string{"herzliya", "herzliyya", "herzlia", "הרצליה"}},
	{"raanana", []string{"raanana", "רעננה"}},
	{"kfar saba", []string{"kfar saba", "kfar-saba", "כפר סבא"}},
	{"netanya", []string{"netanya", "natanya", "נתניה"}},
	{"holon", []string{"holon", "חולון"}},
	{"bat yam", []string{"bat yam", "bat-yam", "בת ים"}},
	{"rehovot", []string{"rehovot", "rechovot", "רחובות"}},
	{"ashdod", []string{"ashdod", "אשדוד"}},
	{"ashkelon", []string{"ashkelon", "אשקלון"}},
	{"beer sheva", []string{"beer sheva", "beersheba", "beer-sheva", "באר שבע"}},
	{"modiin", []string{"modiin", "מודיעין"}},
	{"hod hasharon", []string{"hod hasharon", "hod ha-sharon", "הוד השרון"}},
}

// defaultStreetAliases collapses common spelling variants. Streets not listed
// pass through unchanged.
var defaultStreetAliases = []StreetAlias{
	{"ben yehuda", []string{"ben-yehuda", "ben yehudah", "ben-yehudah", "בן-יהודה", "בן יהודה"}},
	{"ibn gabirol", []string{"ibn-gabirol", "ibn gvirol", "ibn-gvirol", "even gvirol", "אבן גבירול", "אבן-גבירול"}},
	{"rothschild", []string{"rotshild", "rotschild", "rothschild", "רוטשילד"}},
	{"herzl", []string{"hertzl", "herzel", "hertzel", "הרצל"}},
	{"dizengoff", []string{"dizengof", "dizengoff", "דיזנגוף"}},
	{"allenby", []string{"alenby", "alenbi", "allenbi", "אלנבי"}},
	{"king george", []string{"king-george", "hamelech george", "המלך גורג", "קינג גורג"}},
	{"weizmann", []string{"weizman", "weitzman", "weitzmann", "ויצמן"}},
	{"jabotinsky", []string{"zhabotinsky", "zabotinsky", "jabotinski", "זבוטינסקי"}},
	{"hayarkon", []string{"ha-yarkon", "ha yarkon", "הירקון"}},
	{"bialik", []string{"byalik", "ביאליק"}},
	{"sokolov", []string{"sokolow", "סוקולוב"}},
}

// abbreviations expand single cleaned tokens to canonical words.
var abbreviations = map[string]string{
	"st":   "street",
	"str":  "street",
	"rd":   "road",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"bvd":  "boulevard",
	"sq":   "square",
	"ln":   "lane",
	"sdr":  "sderot",
	"רח":   "רחוב",
	"שד":   "שדרות",
}

// unitMarkers introduce apartment/floor/entrance sub-tokens. The marker and
// the token after it are dropped.
var unitMarkers = map[string]bool{
	"apt": true, "apartment": true, "flat": true, "unit": true,
	"floor": true, "fl": true, "entrance": true, "ent": true,
	"dira": true, "koma": true, "knisa": true,
	"דירה": true, "קומה": true, "כניסה": true, "ד": true, "ק": true,
}

// streetPrefixes are street-type words stripped from the front of the
// isolated street name.
var streetPrefixes = map[string]bool{
	"street": true, "road": true, "avenue": true, "boulevard": true,
	"square": true, "lane": true, "rehov": true, "rechov": true,
	"sderot": true, "derech": true, "kikar": true, "simta": true,
	"רחוב": true, "שדרות": true, "דרך": true, "כיכר": true, "סמטת": true, "סמטה": true,
}

// streetSuffixes are English street-type words stripped once from the end.
var streetSuffixes = map[string]bool{
	"street": true, "road": true, "avenue": true, "boulevard": true,
	"square": true, "lane": true,
}

type cityAlias struct {
	alias string
	city  string
}

// Gazetteer holds the lookup tables used by the normalizer.
type Gazetteer struct {
	cities  []cityAlias
	streets map[string]string
}

// NewGazetteer builds a gazetteer. City aliases are tried longest first;
// equal lengths keep table order.
func NewGazetteer(cities []CityEntry, streets []StreetAlias) *Gazetteer {
	g := &Gazetteer{streets: make(map[string]string)}
	for _, c := range cities {
		for _, a := range c.Aliases {
			g.cities = append(g.cities, cityAlias{alias: strings.ToLower(a), city: c.Name})
		}
	}
	sort.SliceStable(g.cities, func(i, j int) bool {
		return utf8.RuneCountInString(g.cities[i].alias) > utf8.RuneCountInString(g.cities[j].alias)
	})
	for _, s := range streets {
		g.streets[s.Canonical] = s.Canonical
		for _, v := range s.Variants {
			g.streets[strings.ToLower(v)] = s.Canonical
		}
	}
	return g
}

// DefaultGazetteer returns the built-in tables.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(defaultCities, defaultStreetAliases)
}

// MatchCity returns the canonical city and the alias that matched as a run
// of whole tokens inside tokens, or empty strings.
func (g *Gazetteer) MatchCity(tokens []string) (city string, start, length int) {
	for _, ca := range g.cities {
		aliasTokens := strings.Fields(ca.alias)
		if i := indexTokens(tokens, aliasTokens); i >= 0 {
			return ca.city, i, len(aliasTokens)
		}
	}
	return "", -1, 0
}

// LookupCity resolves a free-standing city field through the same table.
func (g *Gazetteer) LookupCity(text string) string {
	city, _, _ := g.MatchCity(strings.Fields(text))
	return city
}

// CanonicalStreet maps a street through the alias table. Unknown streets are
// returned unchanged.
func (g *Gazetteer) CanonicalStreet(street string) string {
	if c, ok := g.streets[street]; ok {
		return c
	}
	return street
}

func indexTokens(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
