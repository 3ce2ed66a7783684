// Package extract implements the deterministic pattern extractor: an
// ordered table of regex rules mapping normalized French clinical text
// to field candidates, with explicit numeric thresholds and negation
// handling. It is the high-precision half of the hybrid NLU; recall on
// synonyms and vernacular is the semantic matcher's job.
package extract

import (
	"regexp"
	"strings"

	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/textnorm"
)

// fieldPattern is one deterministic rule: if the regex matches the
// normalized text, emit Value for Field at Confidence.
type fieldPattern struct {
	re         *regexp.Regexp
	field      model.Field
	value      any
	confidence float64
}

// Extractor applies the pattern table plus the numeric parsers.
type Extractor struct {
	patterns []fieldPattern
}

// New compiles the pattern table once.
func New() *Extractor {
	return &Extractor{patterns: buildPatterns()}
}

// Extract normalizes the text and returns every candidate the pattern
// rules produce. Malformed input never raises: no match means no
// candidate for that field. Conflicting candidates for the same field
// (e.g. "brutale" and "progressive" in one message) are all returned;
// arbitrating them is the merger's job.
func (e *Extractor) Extract(text string) []model.Candidate {
	norm := textnorm.Normalize(text, false)
	if norm == "" {
		return nil
	}

	var cands []model.Candidate

	for _, p := range e.patterns {
		loc := p.re.FindString(norm)
		if loc == "" {
			continue
		}
		cands = append(cands, model.Candidate{
			Field:      p.field,
			Value:      p.value,
			Confidence: p.confidence,
			Term:       loc,
			Source:     model.SourceRule,
		})
	}

	cands = append(cands, extractAge(norm)...)
	cands = append(cands, extractSex(norm)...)
	cands = append(cands, extractFeverFromTemperature(norm)...)
	cands = append(cands, extractIntensity(norm)...)

	durCands := extractDuration(norm)
	cands = append(cands, durCands...)
	cands = append(cands, inferProfileFromDuration(durCands)...)

	return dedupeIdentical(suppressNegatedKeywords(cands))
}

// suppressNegatedKeywords drops a positive keyword candidate when a
// negation match for the same field contains the positive term: "sans
// convulsions" must not also assert convulsions. Genuine double
// mentions ("a convulsé ... pas de crise depuis") keep both candidates.
func suppressNegatedKeywords(cands []model.Candidate) []model.Candidate {
	out := cands[:0]
	for _, c := range cands {
		if c.Value == true {
			negated := false
			for _, n := range cands {
				if n.Field == c.Field && n.Value == false && strings.Contains(n.Term, c.Term) {
					negated = true
					break
				}
			}
			if negated {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// dedupeIdentical drops exact duplicates (same field, value and
// source), keeping the highest confidence occurrence. Candidates with
// different values for one field are deliberately kept.
func dedupeIdentical(cands []model.Candidate) []model.Candidate {
	type key struct {
		field model.Field
		value any
	}
	best := make(map[key]int)
	var out []model.Candidate
	for _, c := range cands {
		k := key{c.Field, c.Value}
		if i, seen := best[k]; seen {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		best[k] = len(out)
		out = append(out, c)
	}
	return out
}

// buildPatterns returns the ordered deterministic rule table. Negating
// patterns carry confidence at or above their positive counterpart so
// "fièvre ... mais apyrétique" surfaces as a contradiction instead of
// a single value.
func buildPatterns() []fieldPattern {
	mk := func(expr string, f model.Field, v any, conf float64) fieldPattern {
		return fieldPattern{regexp.MustCompile(expr), f, v, conf}
	}

	return []fieldPattern{
		// Onset.
		mk(`coup de tonnerre|thunderclap`, model.FieldOnset, string(model.OnsetThunderclap), 0.95),
		mk(`\bbrutale?s?\b|\bsoudaine?\b|\bexplosive?\b|\bfoudroyante?\b`, model.FieldOnset, string(model.OnsetThunderclap), 0.90),
		mk(`d'emblee maximale|maximale d'emblee|pire (?:douleur|mal de tete) de (?:sa|ma) vie`, model.FieldOnset, string(model.OnsetThunderclap), 0.95),
		mk(`\bprogressi(?:f|ve)(?:ment)?\b|\bgraduelle?\b|\binsidieuse?\b`, model.FieldOnset, string(model.OnsetProgressive), 0.85),
		mk(`depuis des (?:annees|mois)|de longue date|\bquotidiennes?\b|tous les jours`, model.FieldOnset, string(model.OnsetChronic), 0.85),

		// Explicit temporal profile; inference from duration is added
		// separately at lower confidence.
		mk(`\baigue?s?\b`, model.FieldProfile, string(model.ProfileAcute), 0.85),
		mk(`\bsubaigue?s?\b`, model.FieldProfile, string(model.ProfileSubacute), 0.88),
		mk(`\bchroniques?\b`, model.FieldProfile, string(model.ProfileChronic), 0.90),

		// Fever: keyword-only mentions defer to the semantic matcher;
		// only negations and numeric temperatures (numeric.go) are
		// deterministic.
		mk(`pas de fievre|sans fievre|\bapyretique\b|\bapyrexie\b|\bafebrile\b`, model.FieldFever, false, 0.95),

		// Meningeal signs.
		mk(`raideur (?:de )?(?:la )?nuque|nuque raide|syndrome meninge|signes? meninges?|\bkernig\b|\bbrudzinski\b|chien de fusil`, model.FieldMeningealSigns, true, 0.92),
		mk(`nuque souple|pas de raideur|sans raideur`, model.FieldMeningealSigns, false, 0.95),

		// Neurological deficit.
		mk(`deficit (?:neurologique|moteur|sensitif)|\bhemiplegie\b|\bhemiparesie\b|\baphasie\b|\bdysarthrie\b|\bparalysie\b|vision double|\bdiplopie\b`, model.FieldNeuroDeficit, true, 0.92),
		mk(`pas de deficit|sans deficit|examen neurologique normal|examen neuro normal`, model.FieldNeuroDeficit, false, 0.95),

		// Seizures.
		mk(`\bconvulsions?\b|a convulse|crise (?:comitiale|epileptique|tonico-clonique)`, model.FieldSeizure, true, 0.92),
		mk(`pas de (?:crise|convulsion)s?|sans convulsions?`, model.FieldSeizure, false, 0.92),

		// Raised intracranial pressure pattern. The normalizer expands
		// "htic" so the long form is always present too.
		mk(`hypertension intracranienne|vomissements? en jet|[oœ]edeme papillaire|papill[oœ]edeme|cephalee matutinale|pire (?:le matin|au reveil)|eclipses visuelles`, model.FieldHTICPattern, true, 0.90),

		// Trauma.
		mk(`traumatisme cranien|trauma cranien|coup sur la tete|choc a la tete|cogne la tete|accident de la voie publique`, model.FieldTrauma, true, 0.92),
		mk(`\bchute\b|\btombee?\b`, model.FieldTrauma, true, 0.70),
		mk(`pas de trauma(?:tisme)?|sans trauma(?:tisme)?`, model.FieldTrauma, false, 0.95),

		// Pregnancy / postpartum.
		mk(`\benceinte\b|\bgrossesse\b|post-?partum|vient d'accoucher|\baccouchement\b`, model.FieldPregnancyPostpartum, true, 0.92),
		mk(`pas enceinte|non enceinte`, model.FieldPregnancyPostpartum, false, 0.95),

		// Immunosuppression.
		mk(`immunodeprimee?|\bimmunosuppression\b|virus de l'immunodeficience humaine|\bsida\b|chimio(?:therapie)?\b|\bgreffee?\b`, model.FieldImmunosuppression, true, 0.90),

		// Cancer history.
		mk(`antecedents? (?:de |d')?(?:cancer|neoplasie)|cancer (?:connu|traite)|atcd[^.]{0,20}cancer|\bneoplasie\b`, model.FieldCancerHistory, true, 0.88),

		// Recent lumbar puncture or epidural. The acronym expansion
		// turns "pl" into "pl (ponction lombaire)".
		mk(`ponction lombaire|post-?pl\b|\brachianesthesie\b|\bperidurale?\b|\bepidurale?\b`, model.FieldRecentPL, true, 0.92),
		mk(`cephalee positionnelle|amelioration (?:complete )?en decubitus|soulagee? allongee?|pire debout`, model.FieldRecentPL, true, 0.78),

		// Recent pattern change on a chronic background.
		mk(`pas comme d'habitude|\binhabituelle?\b|nouveau type|a change recemment|plus fort que d'habitude`, model.FieldPatternChange, true, 0.85),

		// Descriptive headache profile.
		mk(`\bpulsatile\b|\bbattante?\b|\bhemicranie\b|\bmigraines?\b|\bmigraineuse?\b|\baura\b`, model.FieldHeadacheProfile, string(model.HeadacheMigraineLike), 0.85),
		mk(`en etau|en casque|comme un bandeau|\boppressive?\b|\bpesanteur\b`, model.FieldHeadacheProfile, string(model.HeadacheTensionLike), 0.85),
	}
}
