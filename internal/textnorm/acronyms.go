package textnorm

import (
	"regexp"
	"sort"
	"strings"
)

// medicalAcronyms maps headache-relevant acronyms (lowercased) to
// their expansion. Expansion keeps the original token alongside the
// long form, "acronym (expansion)", so both surface forms stay
// visible to the pattern extractor and the semantic matcher.
var medicalAcronyms = map[string]string{
	"hsa":  "hémorragie sous-arachnoïdienne",
	"htic": "hypertension intracrânienne",
	"pl":   "ponction lombaire",
	"avc":  "accident vasculaire cérébral",
	"tvc":  "thrombose veineuse cérébrale",
	"avf":  "algie vasculaire de la face",
	"eva":  "échelle visuelle analogique",
	"avp":  "accident de la voie publique",
	"atcd": "antécédents",
	"tdm":  "scanner cérébral",
	"irm":  "imagerie par résonance magnétique",
	"tc":   "traumatisme crânien",
	"sep":  "sclérose en plaques",
	"vih":  "virus de l'immunodéficience humaine",
}

var acronymPattern = buildAcronymPattern()

func buildAcronymPattern() *regexp.Regexp {
	keys := make([]string, 0, len(medicalAcronyms))
	for k := range medicalAcronyms {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// Longest first so "htic" wins over "tc" inside the alternation.
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}

// ExpandAcronyms rewrites every known acronym in already-lowercased
// text to "acronym (expansion)". Unknown tokens pass through untouched.
func ExpandAcronyms(text string) string {
	return acronymPattern.ReplaceAllStringFunc(text, func(m string) string {
		expansion, ok := medicalAcronyms[m]
		if !ok {
			return m
		}
		return m + " (" + expansion + ")"
	})
}
