// Package country normalizes free-text country names into canonical English names.
//
// Providers describe the geographic breakdown of their funds in their own
// language and spelling ("США", "Германия", "USA", "United States of America").
// A Normalizer maps all of them to the ISO 3166 region, and then to the CLDR
// English name of that region ("United States", "Germany"), so that shares
// from different providers can be added together.
package country

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languages in which country names are recognized.
var languages = []language.Tag{
	language.English,
	language.Russian,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
}

// aliases are common names CLDR does not know about.
var aliases = map[string]string{
	"uk":                        "GB",
	"england":                   "GB",
	"great britain":             "GB",
	"англия":                    "GB",
	"великобритания":            "GB",
	"сша":                       "US",
	"соединенные штаты америки": "US",
	"united states of america":  "US",
	"korea":                     "KR",
	"south korea":               "KR",
	"корея":                     "KR",
	"южная корея":               "KR",
	"hong kong":                 "HK",
	"гонконг":                   "HK",
	"taiwan":                    "TW",
	"тайвань":                   "TW",
	"оаэ":                       "AE",
	"чехия":                     "CZ",
	"russian federation":        "RU",
	"korea, republic of":        "KR",
	"taiwan, province of china": "TW",
	"viet nam":                  "VN",
}

var (
	indexOnce sync.Once
	index     map[string]language.Region
)

// buildIndex maps every known (folded) country name to its region.
func buildIndex() map[string]language.Region {
	idx := make(map[string]language.Region)
	namers := make([]display.Namer, len(languages))
	for i, t := range languages {
		namers[i] = display.Regions(t)
	}
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			r, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !r.IsCountry() {
				continue
			}
			for _, n := range namers {
				if name := fold(n.Name(r)); name != "" {
					if _, exists := idx[name]; !exists {
						idx[name] = r
					}
				}
			}
		}
	}
	for name, code := range aliases {
		if r, err := language.ParseRegion(code); err == nil {
			idx[fold(name)] = r
		}
	}
	return idx
}

var folder = cases.Fold()

// fold returns the lookup key of a country name.
func fold(name string) string {
	name = folder.String(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "ё", "е")
	return strings.Join(strings.Fields(name), " ")
}

// Normalizer converts country names to canonical English names.
// It is safe for concurrent use.
type Normalizer struct {
	logger  zerolog.Logger
	english display.Namer
}

// NewNormalizer returns a Normalizer reporting unknown names to logger.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	indexOnce.Do(func() { index = buildIndex() })
	return &Normalizer{
		logger:  logger,
		english: display.Regions(language.English),
	}
}

// Region returns the region of a country name or code.
func (n *Normalizer) Region(raw string) (language.Region, bool) {
	key := fold(raw)
	if key == "" {
		return language.Region{}, false
	}
	if r, ok := index[key]; ok {
		return r, true
	}
	// alpha-2 and alpha-3 codes; numeric M.49 codes name areas too.
	if l := len(key); (l == 2 || l == 3) && asciiLetters(key) {
		if r, err := language.ParseRegion(key); err == nil && r.IsCountry() {
			return r, true
		}
	}
	return language.Region{}, false
}

// Name returns the canonical English name of raw.
//
// Unknown names are logged and returned unchanged.
func (n *Normalizer) Name(raw string) string {
	r, ok := n.Region(raw)
	if !ok {
		n.logger.Warn().Str("country", raw).Msg("unexpected country name")
		return raw
	}
	if name := n.english.Name(r); name != "" {
		return name
	}
	return r.String()
}

// Shares returns a copy of shares with all keys normalized. Shares of names
// resolving to the same country are added.
func (n *Normalizer) Shares(shares map[string]float64) map[string]float64 {
	res := make(map[string]float64, len(shares))
	for k, v := range shares {
		res[n.Name(k)] += v
	}
	return res
}

func asciiLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i] | 0x20; c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
