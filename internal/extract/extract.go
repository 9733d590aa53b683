// Package extract provides heuristic entity extraction from free-text chat
// input. Every extractor is total: it always returns a usable value and never
// fails. Determinism comes from fixed rule ordering, not scoring.
package extract

import (
	"regexp"
	"strings"

	"github.com/buildmart/buildmart-server/internal/domain"
)

// Intro phrase patterns tried in priority order; the first match wins.
// Covers English and romanized/Devanagari Hindi introductions.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bthis is\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bcall me\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bi am\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bi'?m\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bmera naam\s+([\p{L}]+)`),
	regexp.MustCompile(`मेरा नाम\s+([\p{L}]+)`),
	regexp.MustCompile(`(?i)\bnaam\s+([\p{L}]+)`),
}

// Name pulls a person's name out of an introduction. Falls back to the first
// whitespace-delimited token, then to the generic placeholder.
func Name(text string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return capitalize(m[1])
		}
	}
	if fields := strings.Fields(text); len(fields) > 0 {
		return capitalize(strings.Trim(fields[0], ".,!?"))
	}
	return domain.DefaultName
}

// Known city names checked by case-insensitive substring match.
var knownCities = []string{
	"mumbai", "delhi", "bangalore", "bengaluru", "hyderabad", "chennai",
	"kolkata", "pune", "ahmedabad", "jaipur", "surat", "lucknow", "kanpur",
	"nagpur", "indore", "bhopal", "patna", "vadodara", "ludhiana", "agra",
	"nashik", "faridabad", "meerut", "rajkot", "varanasi", "srinagar",
	"aurangabad", "amritsar", "ranchi", "coimbatore", "jodhpur", "raipur",
	"kochi", "chandigarh", "guwahati", "thane", "gurgaon", "gurugram",
	"noida", "ghaziabad", "visakhapatnam", "mysore", "trivandrum",
}

// Location matches the input against the known-city list, returning the city
// with its first letter capitalized. Unknown input passes through trimmed and
// verbatim; empty input degrades to the generic fallback.
func Location(text string) string {
	lower := strings.ToLower(text)
	for _, city := range knownCities {
		if strings.Contains(lower, city) {
			return capitalize(city)
		}
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return domain.DefaultLocation
}

type categoryRule struct {
	id       domain.CategoryID
	keywords []string
}

// Rule order matters: qualified steel checks ("stainless", "mild") must run
// before the bare "steel" keyword maps to TMT.
var categoryRules = []categoryRule{
	{domain.CategoryStainlessSteel, []string{"stainless", "ss 304", "ss 316", "ss304", "ss316"}},
	{domain.CategoryMildSteel, []string{"mild steel", "ms angle", "ms channel", "ms plate", "ms flat"}},
	{domain.CategoryTMTSteel, []string{"tmt", "rebar", "sariya", "saria", "fe 500", "fe 550", "steel"}},
	{domain.CategoryCement, []string{"cement", "opc", "ppc", "concrete"}},
	{domain.CategoryAggregates, []string{"aggregate", "sand", "gravel", "crushed stone", "bajri", "jelly stone"}},
	{domain.CategoryBricks, []string{"brick", "aac", "fly ash", "block"}},
	{domain.CategoryElectrical, []string{"electrical", "wire", "cable", "switch", "mcb", "conduit"}},
	{domain.CategoryPlumbing, []string{"plumbing", "pipe", "cpvc", "upvc", "fitting", "valve"}},
	{domain.CategoryPaints, []string{"paint", "primer", "putty", "emulsion", "distemper"}},
	{domain.CategoryHardware, []string{"hardware", "tool", "fastener", "nail", "screw", "hinge", "bolt"}},
}

// Category classifies free text into a material category by ordered keyword
// membership. Returns the generic category when nothing matches.
func Category(text string) domain.CategoryID {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.id
			}
		}
	}
	return domain.CategoryGeneral
}

// Language cue keywords mapped to supported language tags.
var languageCues = []struct {
	keyword string
	lang    string
}{
	{"हिंदी", "hi"},
	{"हिन्दी", "hi"},
	{"hindi", "hi"},
	{"english", "en"},
	{"angrezi", "en"},
}

// LanguageCue detects an explicit language switch request. The second return
// value reports whether a cue was found.
func LanguageCue(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, cue := range languageCues {
		if strings.Contains(lower, cue.keyword) {
			return cue.lang, true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
