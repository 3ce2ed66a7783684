package dialogue

import (
	"strings"

	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/textnorm"
)

// maxAsks is how many times one field is asked before the dialogue
// gives up on it. A patient who cannot answer twice will not answer a
// third time.
const maxAsks = 2

// questionOrder lists the askable fields in clinical-severity order:
// red flags first, then the temporal and severity descriptors.
var questionOrder = append(append([]model.Field{}, model.TriStateFields...),
	model.FieldOnset,
	model.FieldProfile,
	model.FieldIntensity,
	model.FieldDurationHours,
)

var questions = map[model.Field]string{
	model.FieldFever:               "Avez-vous de la fièvre ou une température supérieure à 38°C ?",
	model.FieldMeningealSigns:      "Avez-vous la nuque raide ou une gêne importante à la lumière ?",
	model.FieldNeuroDeficit:        "Avez-vous une faiblesse d'un côté, des troubles de la parole ou de la vision ?",
	model.FieldSeizure:             "Avez-vous eu des convulsions ou une perte de connaissance ?",
	model.FieldHTICPattern:         "Les maux de tête sont-ils pires le matin, avec des vomissements ?",
	model.FieldTrauma:              "Avez-vous reçu un choc ou eu un traumatisme crânien récemment ?",
	model.FieldRecentPL:            "Avez-vous eu une ponction lombaire ou une péridurale récemment ?",
	model.FieldPregnancyPostpartum: "Êtes-vous enceinte ou avez-vous accouché récemment ?",
	model.FieldImmunosuppression:   "Avez-vous un traitement ou une maladie qui affaiblit vos défenses immunitaires ?",
	model.FieldCancerHistory:       "Avez-vous un antécédent de cancer ?",
	model.FieldPatternChange:       "Vos maux de tête habituels ont-ils changé récemment ?",
	model.FieldOnset:               "La douleur est-elle apparue brutalement, d'un seul coup, ou progressivement ?",
	model.FieldProfile:             "Ce mal de tête est-il récent, ou ancien et habituel ?",
	model.FieldIntensity:           "Sur une échelle de 0 à 10, quelle est l'intensité de la douleur ?",
	model.FieldDurationHours:       "Depuis combien de temps (heures, jours) la douleur dure-t-elle ?",
}

// NextQuestion returns the first askable field still unknown on the
// session's case, with its natural-language question. ok is false when
// nothing remains to ask and the dialogue can complete.
func NextQuestion(s *Session) (model.Field, string, bool) {
	for _, f := range questionOrder {
		if s.Case.Known(f) {
			continue
		}
		if s.Asked[f] >= maxAsks {
			continue
		}
		if skipField(f, s.Case) {
			continue
		}
		return f, questions[f], true
	}
	return "", "", false
}

// skipField holds the contextual ask rules: pregnancy concerns female
// patients only; cancer history and pattern change are relevant once a
// subacute or chronic course is established.
func skipField(f model.Field, c *model.Case) bool {
	switch f {
	case model.FieldPregnancyPostpartum:
		return c.Sex != model.SexFemale
	case model.FieldCancerHistory, model.FieldPatternChange:
		return c.Profile != model.ProfileSubacute && c.Profile != model.ProfileChronic
	}
	return false
}

var yesWords = map[string]bool{
	"oui": true, "ouais": true, "si": true, "affirmatif": true,
	"exactement": true, "exact": true, "effectivement": true,
	"tout a fait": true, "plutot oui": true, "je crois": true,
}

var noWords = map[string]bool{
	"non": true, "nan": true, "aucun": true, "aucune": true,
	"jamais": true, "negatif": true, "pas du tout": true,
	"plutot non": true, "je ne crois pas": true,
}

// InterpretAnswer maps an affirmative/negative reply to a tri-state.
// It deliberately ignores everything the extractors might read into a
// short reply: when the system asked a yes/no question, "non" settles
// exactly the asked field. Replies that are neither return TriUnknown
// so the full extraction pipeline handles them.
func InterpretAnswer(text string) model.TriState {
	norm := strings.TrimRight(textnorm.Normalize(text, false), " .!?")
	if norm == "" {
		return model.TriUnknown
	}
	if yesWords[norm] || noWords[norm] {
		if yesWords[norm] {
			return model.TriTrue
		}
		return model.TriFalse
	}
	first, _, _ := strings.Cut(norm, " ")
	first = strings.TrimRight(first, ",;:.!?")
	switch {
	case yesWords[first]:
		return model.TriTrue
	case noWords[first]:
		return model.TriFalse
	}
	return model.TriUnknown
}
