// Package semantic implements the embedding-based vocabulary matcher:
// the recall half of the hybrid NLU. A curated French medical
// vocabulary is embedded once; input tokens (words plus 2-4 word
// n-grams from both accent-stripped and accent-preserving text) are
// matched against it by cosine similarity, so synonyms and patient
// vernacular ("ça tape", "mal de crâne") reach the same fields as the
// canonical terms.
package semantic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plarroque/cephalo/internal/model"
)

// Entry maps one vocabulary term to a clinical field assignment.
// Weight is the base confidence; the final candidate confidence is
// weight multiplied by the embedding similarity of the matched token.
type Entry struct {
	Field    model.Field `yaml:"field"`
	Value    any         `yaml:"value"`
	Weight   float64     `yaml:"weight"`
	Category string      `yaml:"category"`
}

// Qualitative pain descriptors are mapped onto the 0-10 scale at match
// time so downstream code only ever sees integers.
const (
	intensityMild     = "mild"
	intensityModerate = "moderate"
	intensitySevere   = "severe"
	intensityMaximum  = "maximum"
)

var intensityScale = map[string]int{
	intensityMild:     2,
	intensityModerate: 5,
	intensitySevere:   8,
	intensityMaximum:  10,
}

// DefaultVocabulary returns the built-in term table. Terms keep their
// French accents; the tokenizer feeds both accented and folded tokens,
// and the embedding model is expected to place both near the term.
func DefaultVocabulary() map[string]Entry {
	onset := func(v model.Onset, w float64) Entry {
		return Entry{Field: model.FieldOnset, Value: string(v), Weight: w, Category: "onset"}
	}
	tri := func(f model.Field, v bool, w float64, cat string) Entry {
		return Entry{Field: f, Value: v, Weight: w, Category: cat}
	}
	profile := func(v model.HeadacheProfile, w float64) Entry {
		return Entry{Field: model.FieldHeadacheProfile, Value: string(v), Weight: w, Category: "profile"}
	}
	pain := func(level string, w float64) Entry {
		return Entry{Field: model.FieldIntensity, Value: level, Weight: w, Category: "intensity"}
	}

	return map[string]Entry{
		// Onset: thunderclap wording, decisive for aneurysmal bleed triage.
		"brutal":                 onset(model.OnsetThunderclap, 0.90),
		"brutale":                onset(model.OnsetThunderclap, 0.90),
		"soudain":                onset(model.OnsetThunderclap, 0.85),
		"soudaine":               onset(model.OnsetThunderclap, 0.85),
		"explosif":               onset(model.OnsetThunderclap, 0.90),
		"explosive":              onset(model.OnsetThunderclap, 0.90),
		"foudroyant":             onset(model.OnsetThunderclap, 0.92),
		"foudroyante":            onset(model.OnsetThunderclap, 0.92),
		"instantané":             onset(model.OnsetThunderclap, 0.88),
		"instantanée":            onset(model.OnsetThunderclap, 0.88),
		"subit":                  onset(model.OnsetThunderclap, 0.85),
		"subite":                 onset(model.OnsetThunderclap, 0.85),
		"coup de tonnerre":       onset(model.OnsetThunderclap, 0.95),
		"thunderclap":            onset(model.OnsetThunderclap, 0.95),
		"d'emblée maximale":      onset(model.OnsetThunderclap, 0.95),
		"maximale d'emblée":      onset(model.OnsetThunderclap, 0.95),
		"pire douleur de ma vie": onset(model.OnsetThunderclap, 0.95),
		"pire mal de tête":       onset(model.OnsetThunderclap, 0.90),
		"jamais eu aussi mal":    onset(model.OnsetThunderclap, 0.90),
		"d'un coup":              onset(model.OnsetThunderclap, 0.80),
		"tout d'un coup":         onset(model.OnsetThunderclap, 0.82),
		"comme une explosion":    onset(model.OnsetThunderclap, 0.88),
		"tête qui explose":       onset(model.OnsetThunderclap, 0.85),

		"progressif":           onset(model.OnsetProgressive, 0.85),
		"progressive":          onset(model.OnsetProgressive, 0.85),
		"progressivement":      onset(model.OnsetProgressive, 0.82),
		"graduel":              onset(model.OnsetProgressive, 0.80),
		"graduelle":            onset(model.OnsetProgressive, 0.80),
		"insidieux":            onset(model.OnsetProgressive, 0.78),
		"insidieuse":           onset(model.OnsetProgressive, 0.78),
		"qui augmente":         onset(model.OnsetProgressive, 0.75),
		"qui empire":           onset(model.OnsetProgressive, 0.75),
		"de plus en plus fort": onset(model.OnsetProgressive, 0.78),

		"chronique":         onset(model.OnsetChronic, 0.90),
		"permanent":         onset(model.OnsetChronic, 0.85),
		"permanente":        onset(model.OnsetChronic, 0.85),
		"quotidien":         onset(model.OnsetChronic, 0.85),
		"quotidienne":       onset(model.OnsetChronic, 0.85),
		"tous les jours":    onset(model.OnsetChronic, 0.82),
		"depuis des années": onset(model.OnsetChronic, 0.88),
		"depuis des mois":   onset(model.OnsetChronic, 0.85),
		"de longue date":    onset(model.OnsetChronic, 0.85),
		"habituel":          onset(model.OnsetChronic, 0.75),
		"habituelle":        onset(model.OnsetChronic, 0.75),

		// Fever.
		"fièvre":             tri(model.FieldFever, true, 0.95, "fever"),
		"fébrile":            tri(model.FieldFever, true, 0.95, "fever"),
		"fiévreux":           tri(model.FieldFever, true, 0.90, "fever"),
		"fiévreuse":          tri(model.FieldFever, true, 0.90, "fever"),
		"hyperthermie":       tri(model.FieldFever, true, 0.95, "fever"),
		"pyrexie":            tri(model.FieldFever, true, 0.95, "fever"),
		"température élevée": tri(model.FieldFever, true, 0.88, "fever"),
		"chaud":              tri(model.FieldFever, true, 0.60, "fever"),
		"frissons":           tri(model.FieldFever, true, 0.75, "fever"),
		"sueurs":             tri(model.FieldFever, true, 0.65, "fever"),
		"brûlant":            tri(model.FieldFever, true, 0.70, "fever"),
		"apyrétique":         tri(model.FieldFever, false, 0.95, "fever"),
		"apyrexie":           tri(model.FieldFever, false, 0.95, "fever"),
		"pas de fièvre":      tri(model.FieldFever, false, 0.92, "fever"),
		"sans fièvre":        tri(model.FieldFever, false, 0.92, "fever"),
		"afébrile":           tri(model.FieldFever, false, 0.90, "fever"),

		// Meningeal syndrome.
		"méningé":                     tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"méningée":                    tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"syndrome méningé":            tri(model.FieldMeningealSigns, true, 0.98, "meningeal"),
		"méningite":                   tri(model.FieldMeningealSigns, true, 0.90, "meningeal"),
		"raideur nuque":               tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"raideur de nuque":            tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"nuque raide":                 tri(model.FieldMeningealSigns, true, 0.92, "meningeal"),
		"cou raide":                   tri(model.FieldMeningealSigns, true, 0.85, "meningeal"),
		"kernig":                      tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"brudzinski":                  tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"chien de fusil":              tri(model.FieldMeningealSigns, true, 0.95, "meningeal"),
		"position fœtale":             tri(model.FieldMeningealSigns, true, 0.80, "meningeal"),
		"photophobie":                 tri(model.FieldMeningealSigns, true, 0.75, "meningeal"),
		"phonophobie":                 tri(model.FieldMeningealSigns, true, 0.70, "meningeal"),
		"lumière fait mal":            tri(model.FieldMeningealSigns, true, 0.72, "meningeal"),
		"bruit fait mal":              tri(model.FieldMeningealSigns, true, 0.68, "meningeal"),
		"ne peut pas tourner la tête": tri(model.FieldMeningealSigns, true, 0.80, "meningeal"),
		"cou bloqué":                  tri(model.FieldMeningealSigns, true, 0.82, "meningeal"),
		"nuque souple":                tri(model.FieldMeningealSigns, false, 0.95, "meningeal"),
		"pas de raideur":              tri(model.FieldMeningealSigns, false, 0.90, "meningeal"),

		// Raised intracranial pressure.
		"htic":                        tri(model.FieldHTICPattern, true, 0.95, "htic"),
		"hypertension intracrânienne": tri(model.FieldHTICPattern, true, 0.98, "htic"),
		"vomissements en jet":         tri(model.FieldHTICPattern, true, 0.95, "htic"),
		"vomissement en jet":          tri(model.FieldHTICPattern, true, 0.95, "htic"),
		"œdème papillaire":            tri(model.FieldHTICPattern, true, 0.95, "htic"),
		"papilloedème":                tri(model.FieldHTICPattern, true, 0.95, "htic"),
		"céphalée matutinale":         tri(model.FieldHTICPattern, true, 0.85, "htic"),
		"pire le matin":               tri(model.FieldHTICPattern, true, 0.75, "htic"),
		"pire au réveil":              tri(model.FieldHTICPattern, true, 0.75, "htic"),
		"aggravé par toux":            tri(model.FieldHTICPattern, true, 0.82, "htic"),
		"aggravé par effort":          tri(model.FieldHTICPattern, true, 0.80, "htic"),
		"éclipses visuelles":          tri(model.FieldHTICPattern, true, 0.88, "htic"),
		"je vois flou":                tri(model.FieldHTICPattern, true, 0.65, "htic"),
		"vision trouble":              tri(model.FieldHTICPattern, true, 0.68, "htic"),

		// Neurological deficit.
		"déficit":                    tri(model.FieldNeuroDeficit, true, 0.85, "deficit"),
		"déficit neurologique":       tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"déficit moteur":             tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"déficit sensitif":           tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"paralysie":                  tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"parésie":                    tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"hémiplégie":                 tri(model.FieldNeuroDeficit, true, 0.98, "deficit"),
		"hémiparésie":                tri(model.FieldNeuroDeficit, true, 0.98, "deficit"),
		"aphasie":                    tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"dysarthrie":                 tri(model.FieldNeuroDeficit, true, 0.92, "deficit"),
		"diplopie":                   tri(model.FieldNeuroDeficit, true, 0.90, "deficit"),
		"vision double":              tri(model.FieldNeuroDeficit, true, 0.88, "deficit"),
		"hémianopsie":                tri(model.FieldNeuroDeficit, true, 0.95, "deficit"),
		"ataxie":                     tri(model.FieldNeuroDeficit, true, 0.92, "deficit"),
		"confusion":                  tri(model.FieldNeuroDeficit, true, 0.80, "deficit"),
		"désorientation":             tri(model.FieldNeuroDeficit, true, 0.82, "deficit"),
		"perte de connaissance":      tri(model.FieldNeuroDeficit, true, 0.85, "deficit"),
		"faiblesse bras":             tri(model.FieldNeuroDeficit, true, 0.85, "deficit"),
		"faiblesse jambe":            tri(model.FieldNeuroDeficit, true, 0.85, "deficit"),
		"ne peut plus bouger":        tri(model.FieldNeuroDeficit, true, 0.82, "deficit"),
		"trouble parole":             tri(model.FieldNeuroDeficit, true, 0.88, "deficit"),
		"parle bizarrement":          tri(model.FieldNeuroDeficit, true, 0.75, "deficit"),
		"engourdissement":            tri(model.FieldNeuroDeficit, true, 0.70, "deficit"),
		"fourmillements":             tri(model.FieldNeuroDeficit, true, 0.65, "deficit"),
		"paresthésies":               tri(model.FieldNeuroDeficit, true, 0.75, "deficit"),
		"pas de déficit":             tri(model.FieldNeuroDeficit, false, 0.95, "deficit"),
		"sans déficit":               tri(model.FieldNeuroDeficit, false, 0.95, "deficit"),
		"examen neurologique normal": tri(model.FieldNeuroDeficit, false, 0.95, "deficit"),

		// Seizures.
		"convulsion":            tri(model.FieldSeizure, true, 0.95, "seizure"),
		"convulsions":           tri(model.FieldSeizure, true, 0.95, "seizure"),
		"crise épileptique":     tri(model.FieldSeizure, true, 0.95, "seizure"),
		"épilepsie":             tri(model.FieldSeizure, true, 0.90, "seizure"),
		"crise comitiale":       tri(model.FieldSeizure, true, 0.95, "seizure"),
		"crise tonico-clonique": tri(model.FieldSeizure, true, 0.98, "seizure"),
		"a convulsé":            tri(model.FieldSeizure, true, 0.95, "seizure"),
		"secousses":             tri(model.FieldSeizure, true, 0.75, "seizure"),
		"mouvements anormaux":   tri(model.FieldSeizure, true, 0.70, "seizure"),
		"tremblements":          tri(model.FieldSeizure, true, 0.60, "seizure"),

		// Pregnancy and postpartum.
		"enceinte":          tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"grossesse":         tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"gestante":          tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"parturiente":       tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"post-partum":       tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"postpartum":        tri(model.FieldPregnancyPostpartum, true, 0.95, "pregnancy"),
		"accouchement":      tri(model.FieldPregnancyPostpartum, true, 0.90, "pregnancy"),
		"vient d'accoucher": tri(model.FieldPregnancyPostpartum, true, 0.92, "pregnancy"),
		"péridurale":        tri(model.FieldRecentPL, true, 0.90, "pregnancy"),
		"épidurale":         tri(model.FieldRecentPL, true, 0.90, "pregnancy"),

		// Trauma.
		"traumatisme":         tri(model.FieldTrauma, true, 0.95, "trauma"),
		"trauma":              tri(model.FieldTrauma, true, 0.90, "trauma"),
		"traumatisme crânien": tri(model.FieldTrauma, true, 0.98, "trauma"),
		"chute":               tri(model.FieldTrauma, true, 0.75, "trauma"),
		"accident":            tri(model.FieldTrauma, true, 0.70, "trauma"),
		"coup sur la tête":    tri(model.FieldTrauma, true, 0.88, "trauma"),
		"choc à la tête":      tri(model.FieldTrauma, true, 0.88, "trauma"),
		"cogné la tête":       tri(model.FieldTrauma, true, 0.85, "trauma"),
		"tombé":               tri(model.FieldTrauma, true, 0.65, "trauma"),
		"avp":                 tri(model.FieldTrauma, true, 0.90, "trauma"),
		"pas de traumatisme":  tri(model.FieldTrauma, false, 0.92, "trauma"),
		"sans traumatisme":    tri(model.FieldTrauma, false, 0.92, "trauma"),

		// Immunosuppression.
		"immunodéprimé":     tri(model.FieldImmunosuppression, true, 0.95, "immunosup"),
		"immunodéprimée":    tri(model.FieldImmunosuppression, true, 0.95, "immunosup"),
		"immunosuppression": tri(model.FieldImmunosuppression, true, 0.95, "immunosup"),
		"vih":               tri(model.FieldImmunosuppression, true, 0.95, "immunosup"),
		"sida":              tri(model.FieldImmunosuppression, true, 0.95, "immunosup"),
		"chimiothérapie":    tri(model.FieldImmunosuppression, true, 0.90, "immunosup"),
		"chimio":            tri(model.FieldImmunosuppression, true, 0.88, "immunosup"),
		"greffe":            tri(model.FieldImmunosuppression, true, 0.85, "immunosup"),
		"greffé":            tri(model.FieldImmunosuppression, true, 0.88, "immunosup"),
		"corticothérapie":   tri(model.FieldImmunosuppression, true, 0.78, "immunosup"),

		// Cancer history.
		"cancer":            tri(model.FieldCancerHistory, true, 0.80, "cancer"),
		"néoplasie":         tri(model.FieldCancerHistory, true, 0.88, "cancer"),
		"cancer connu":      tri(model.FieldCancerHistory, true, 0.90, "cancer"),
		"antécédent cancer": tri(model.FieldCancerHistory, true, 0.88, "cancer"),
		"métastases":        tri(model.FieldCancerHistory, true, 0.90, "cancer"),

		// Headache profile.
		"pulsatile":        profile(model.HeadacheMigraineLike, 0.85),
		"pulsatilité":      profile(model.HeadacheMigraineLike, 0.85),
		"battant":          profile(model.HeadacheMigraineLike, 0.82),
		"battante":         profile(model.HeadacheMigraineLike, 0.82),
		"ça bat":           profile(model.HeadacheMigraineLike, 0.80),
		"ça tape":          profile(model.HeadacheMigraineLike, 0.78),
		"lancinant":        profile(model.HeadacheMigraineLike, 0.80),
		"lancinante":       profile(model.HeadacheMigraineLike, 0.80),
		"unilatéral":       profile(model.HeadacheMigraineLike, 0.75),
		"unilatérale":      profile(model.HeadacheMigraineLike, 0.75),
		"hémicrânie":       profile(model.HeadacheMigraineLike, 0.85),
		"migraine":         profile(model.HeadacheMigraineLike, 0.90),
		"migraineuse":      profile(model.HeadacheMigraineLike, 0.88),
		"migraineux":       profile(model.HeadacheMigraineLike, 0.88),
		"aura":             profile(model.HeadacheMigraineLike, 0.85),
		"scotome":          profile(model.HeadacheMigraineLike, 0.82),
		"nausées":          profile(model.HeadacheMigraineLike, 0.70),
		"vomissements":     profile(model.HeadacheMigraineLike, 0.72),
		"pesanteur":        profile(model.HeadacheTensionLike, 0.78),
		"en casque":        profile(model.HeadacheTensionLike, 0.85),
		"en étau":          profile(model.HeadacheTensionLike, 0.88),
		"serrement":        profile(model.HeadacheTensionLike, 0.82),
		"bilatéral":        profile(model.HeadacheTensionLike, 0.72),
		"bilatérale":       profile(model.HeadacheTensionLike, 0.72),
		"diffuse":          profile(model.HeadacheTensionLike, 0.70),
		"diffus":           profile(model.HeadacheTensionLike, 0.70),
		"comme un bandeau": profile(model.HeadacheTensionLike, 0.85),
		"oppressif":        profile(model.HeadacheTensionLike, 0.80),
		"oppressive":       profile(model.HeadacheTensionLike, 0.80),

		// Qualitative intensity.
		"intense":       pain(intensitySevere, 0.85),
		"sévère":        pain(intensitySevere, 0.88),
		"atroce":        pain(intensityMaximum, 0.92),
		"insupportable": pain(intensityMaximum, 0.95),
		"terrible":      pain(intensitySevere, 0.85),
		"horrible":      pain(intensitySevere, 0.85),
		"épouvantable":  pain(intensityMaximum, 0.92),
		"intolérable":   pain(intensityMaximum, 0.92),
		"super mal":     pain(intensitySevere, 0.78),
		"très mal":      pain(intensitySevere, 0.80),
		"modérée":       pain(intensityModerate, 0.85),
		"modéré":        pain(intensityModerate, 0.85),
		"gênante":       pain(intensityModerate, 0.75),
		"légère":        pain(intensityMild, 0.85),
		"léger":         pain(intensityMild, 0.85),
		"peu intense":   pain(intensityMild, 0.80),

		// Recent lumbar puncture.
		"ponction lombaire":      tri(model.FieldRecentPL, true, 0.95, "procedure"),
		"pl récente":             tri(model.FieldRecentPL, true, 0.92, "procedure"),
		"après pl":               tri(model.FieldRecentPL, true, 0.90, "procedure"),
		"rachianesthésie":        tri(model.FieldRecentPL, true, 0.92, "procedure"),
		"post-pl":                tri(model.FieldRecentPL, true, 0.92, "procedure"),
		"soulagé allongé":        tri(model.FieldRecentPL, true, 0.80, "procedure"),
		"pire debout":            tri(model.FieldRecentPL, true, 0.78, "procedure"),
		"céphalée positionnelle": tri(model.FieldRecentPL, true, 0.85, "procedure"),

		// Pattern change on a chronic background.
		"pas comme d'habitude":     tri(model.FieldPatternChange, true, 0.85, "pattern_change"),
		"inhabituel":               tri(model.FieldPatternChange, true, 0.80, "pattern_change"),
		"inhabituelle":             tri(model.FieldPatternChange, true, 0.80, "pattern_change"),
		"aggravation":              tri(model.FieldPatternChange, true, 0.82, "pattern_change"),
		"s'aggrave":                tri(model.FieldPatternChange, true, 0.80, "pattern_change"),
		"plus fort que d'habitude": tri(model.FieldPatternChange, true, 0.85, "pattern_change"),
		"nouveau type":             tri(model.FieldPatternChange, true, 0.88, "pattern_change"),
	}
}

// LoadVocabulary reads a YAML term table so deployments can tune the
// vocabulary without rebuilding. The file maps term to entry.
func LoadVocabulary(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	var vocab map[string]Entry
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	for term, e := range vocab {
		if e.Field == "" || e.Weight <= 0 || e.Weight > 1 {
			return nil, fmt.Errorf("vocabulary term %q: invalid field or weight", term)
		}
	}
	return vocab, nil
}
