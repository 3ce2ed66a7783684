package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/plarroque/cephalo/internal/model"
)

// Numeric parsing policies:
//   - fever is decided by a parsed temperature against the 38.0°C
//     threshold, never by keyword presence;
//   - pain scale keeps the maximum of all parsed values when a message
//     mentions several ("fond 3/10, crises 8/10");
//   - durations normalize every unit to hours (day=24, week=168,
//     month=720), minute ranges take the mean of the endpoints;
//   - out-of-range values (age outside 1-120, scale outside 0-10) are
//     rejected as unknown, not surfaced as errors.

var (
	ageRe = regexp.MustCompile(`\b(\d{1,3})\s*ans\b`)

	sexFemaleRe = regexp.MustCompile(`\b(?:femme|patiente|madame|mme)\b`)
	sexMaleRe   = regexp.MustCompile(`\b(?:homme|monsieur)\b`)
	sexWeakRe   = regexp.MustCompile(`\bpatient\b`)

	temperatureRes = []*regexp.Regexp{
		regexp.MustCompile(`t°\s*:?\s*(\d{2}(?:[.,]\d+)?)`),
		regexp.MustCompile(`\bt\s*=\s*(\d{2}(?:[.,]\d+)?)`),
		regexp.MustCompile(`temperature\s*(?:a\s*)?:?\s*(\d{2}(?:[.,]\d+)?)`),
		regexp.MustCompile(`fievre\s*(?:a\s*)?:?\s*(\d{2}(?:[.,]\d+)?)`),
		regexp.MustCompile(`(\d{2}(?:[.,]\d+)?)\s*°c?\b`),
	}

	// "eva 10/10", "eva a 7", "échelle visuelle analogique ... 8/10"
	// (the acronym expansion may sit between "eva" and the number).
	intensityScaleRe = regexp.MustCompile(`(\d{1,2})\s*/\s*10\b`)
	intensityEvaRe   = regexp.MustCompile(`\beva\b[^0-9]{0,45}?(\d{1,2})\b`)

	// Episode duration: "depuis 3 jours", "dep 2 sem", "il y a 2h",
	// "ça fait 3 semaines que".
	durationSinceRe = regexp.MustCompile(`(?:depuis|\bdep\b|il y a|ca fait)\s*(\d+(?:[.,]\d+)?)\s*(min(?:utes?)?|h(?:eures?)?\b|j(?:ours?)?\b|sem(?:aines?)?\b|mois\b)`)

	// Attack duration in minutes: "crises de 45min", "épisodes 30-60min".
	durationAttackRe = regexp.MustCompile(`(?:crises?|episodes?|acces)\s*(?:de\s*)?(\d+)\s*(?:-\s*(\d+)\s*)?min`)
	durationRangeRe  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*min`)
)

func extractAge(text string) []model.Candidate {
	m := ageRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	age, err := strconv.Atoi(m[1])
	if err != nil || age < 1 || age > 120 {
		return nil // out of validated range: rejected, not raised
	}
	return []model.Candidate{{
		Field:      model.FieldAge,
		Value:      age,
		Confidence: 0.90,
		Term:       m[0],
		Source:     model.SourceRule,
	}}
}

func extractSex(text string) []model.Candidate {
	if m := sexFemaleRe.FindString(text); m != "" {
		return []model.Candidate{{Field: model.FieldSex, Value: string(model.SexFemale), Confidence: 0.90, Term: m, Source: model.SourceRule}}
	}
	if m := sexMaleRe.FindString(text); m != "" {
		return []model.Candidate{{Field: model.FieldSex, Value: string(model.SexMale), Confidence: 0.90, Term: m, Source: model.SourceRule}}
	}
	// "patient" alone is a weak masculine hint in French clinical notes.
	if m := sexWeakRe.FindString(text); m != "" {
		return []model.Candidate{{Field: model.FieldSex, Value: string(model.SexMale), Confidence: 0.50, Term: m, Source: model.SourceRule}}
	}
	return nil
}

// extractFeverFromTemperature parses every temperature mention and
// applies the 38.0°C threshold. "T° 37.5" therefore yields fever=false
// with high confidence, which lets the merger flag "fièvre" wording
// against a sub-febrile measurement as a contradiction.
func extractFeverFromTemperature(text string) []model.Candidate {
	best := -1.0
	term := ""
	for _, re := range temperatureRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, err := parseDecimal(m[1])
			if err != nil || v < 30 || v > 45 {
				continue // not a body temperature
			}
			if v > best {
				best = v
				term = strings.TrimSpace(m[0])
			}
		}
	}
	if best < 0 {
		return nil
	}
	return []model.Candidate{{
		Field:      model.FieldFever,
		Value:      best >= 38.0,
		Confidence: 0.95,
		Term:       term,
		Source:     model.SourceRule,
	}}
}

// extractIntensity parses pain-scale mentions. Policy: maximum of all
// parsed values in the message.
func extractIntensity(text string) []model.Candidate {
	best := -1
	term := ""
	record := func(raw, whole string) {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 10 {
			return
		}
		if v > best {
			best = v
			term = strings.TrimSpace(whole)
		}
	}
	for _, m := range intensityScaleRe.FindAllStringSubmatch(text, -1) {
		record(m[1], m[0])
	}
	for _, m := range intensityEvaRe.FindAllStringSubmatch(text, -1) {
		record(m[1], m[0])
	}
	if best < 0 {
		return nil
	}
	return []model.Candidate{{
		Field:      model.FieldIntensity,
		Value:      best,
		Confidence: 0.95,
		Term:       term,
		Source:     model.SourceRule,
	}}
}

// unitHours converts a French duration unit token to hours.
func unitHours(unit string) float64 {
	switch {
	case strings.HasPrefix(unit, "min"):
		return 1.0 / 60.0
	case strings.HasPrefix(unit, "h"):
		return 1
	case strings.HasPrefix(unit, "j"):
		return 24
	case strings.HasPrefix(unit, "sem"):
		return 168
	case unit == "mois":
		return 720
	}
	return 0
}

// extractDuration parses episode duration. Attack durations in minutes
// ("crises de 45min") take priority over "depuis"-style episode
// durations when both appear, matching how clinicians phrase cluster
// headache descriptions.
func extractDuration(text string) []model.Candidate {
	if m := durationAttackRe.FindStringSubmatch(text); m != nil {
		lo, err := strconv.Atoi(m[1])
		if err == nil {
			hours := float64(lo) / 60.0
			if m[2] != "" {
				if hi, err := strconv.Atoi(m[2]); err == nil {
					hours = (float64(lo) + float64(hi)) / 2.0 / 60.0
				}
			}
			return durationCandidate(hours, m[0])
		}
	}

	if m := durationRangeRe.FindStringSubmatch(text); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return durationCandidate((float64(lo)+float64(hi))/2.0/60.0, m[0])
		}
	}

	if m := durationSinceRe.FindStringSubmatch(text); m != nil {
		v, err := parseDecimal(m[1])
		if err != nil || v < 0 {
			return nil
		}
		factor := unitHours(m[2])
		if factor == 0 {
			return nil
		}
		return durationCandidate(v*factor, m[0])
	}

	return nil
}

func durationCandidate(hours float64, term string) []model.Candidate {
	if hours < 0 {
		return nil
	}
	return []model.Candidate{{
		Field:      model.FieldDurationHours,
		Value:      hours,
		Confidence: 0.90,
		Term:       strings.TrimSpace(term),
		Source:     model.SourceRule,
	}}
}

// inferProfileFromDuration derives the temporal profile from a parsed
// duration: <168h acute, <2160h subacute, otherwise chronic. The
// inferred candidate carries a deliberately lower confidence than any
// explicit textual profile so an explicit statement wins while the
// disagreement is still flagged as a contradiction.
func inferProfileFromDuration(durCands []model.Candidate) []model.Candidate {
	if len(durCands) == 0 {
		return nil
	}
	hours, ok := durCands[0].Value.(float64)
	if !ok {
		return nil
	}
	profile := model.ProfileChronic
	switch {
	case hours < 168:
		profile = model.ProfileAcute
	case hours < 2160:
		profile = model.ProfileSubacute
	}
	return []model.Candidate{{
		Field:      model.FieldProfile,
		Value:      string(profile),
		Confidence: 0.60,
		Term:       durCands[0].Term,
		Source:     model.SourceRule,
	}}
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
