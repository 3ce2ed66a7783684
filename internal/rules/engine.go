// Package rules implements the clinical decision table: an ordered set
// of predicate rules mapping an accumulated case to an imaging
// recommendation. Evaluation is strictly first-match-wins over rules
// pre-sorted by clinical priority, so a life-threatening rule can
// never lose to a benign one regardless of file order. Unknown fields
// never satisfy a predicate: a red flag that was not asked about is
// not absence of the red flag.
package rules

import (
	"fmt"
	"sort"

	"github.com/plarroque/cephalo/internal/model"
)

// Engine evaluates the rule table against cases. Immutable after
// construction.
type Engine struct {
	rules []model.Rule
	byID  map[string]model.Rule
}

// NewEngine validates and sorts the rule table.
func NewEngine(rules []model.Rule) (*Engine, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("empty rule table")
	}

	byID := make(map[string]model.Rule, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule with empty id")
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %s: unknown category %q", r.ID, r.Category)
		}
		if !r.Urgency.Valid() {
			return nil, fmt.Errorf("rule %s: unknown urgency %q", r.ID, r.Urgency)
		}
		if len(r.Predicates) == 0 {
			return nil, fmt.Errorf("rule %s: no predicates", r.ID)
		}
		for _, p := range r.Predicates {
			if err := validatePredicate(p); err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.ID, err)
			}
		}
		byID[r.ID] = r
	}

	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Category.Priority() != b.Category.Priority() {
			return a.Category.Priority() < b.Category.Priority()
		}
		if a.Urgency.Priority() != b.Urgency.Priority() {
			return a.Urgency.Priority() < b.Urgency.Priority()
		}
		return a.ID < b.ID
	})

	return &Engine{rules: sorted, byID: byID}, nil
}

// Decide evaluates the case against the sorted table. The first rule
// whose full predicate set is satisfied wins; if none matches, a
// default recommendation explains whether information is missing or
// genuinely reassuring.
func (e *Engine) Decide(c *model.Case) model.Recommendation {
	for _, r := range e.rules {
		if e.ruleMatches(r, c) {
			rec := model.Recommendation{
				Urgency:       r.Urgency,
				Imaging:       append([]string(nil), r.Imaging...),
				Comment:       r.Comment,
				AppliedRuleID: r.ID,
			}
			return applyPregnancyPrecautions(c, rec)
		}
	}
	return defaultRecommendation(c)
}

// Emergency reports whether the given applied rule belongs to the
// acute-emergency category. The dialogue controller uses this to stop
// asking questions once a life-threatening picture is established.
func (e *Engine) Emergency(ruleID string) bool {
	r, ok := e.byID[ruleID]
	return ok && r.Category == model.CategoryAcuteEmergency
}

// Rules returns the sorted table, for display and diagnostics.
func (e *Engine) Rules() []model.Rule {
	return append([]model.Rule(nil), e.rules...)
}

func (e *Engine) ruleMatches(r model.Rule, c *model.Case) bool {
	for _, p := range r.Predicates {
		if !predicateMatches(p, c) {
			return false
		}
	}
	return true
}

func predicateMatches(p model.Predicate, c *model.Case) bool {
	if !c.Known(p.Field) {
		return false
	}

	switch p.Kind {
	case model.PredIsKnown:
		return true

	case model.PredIsTrue:
		return c.TriState(p.Field) == model.TriTrue

	case model.PredIsFalse:
		return c.TriState(p.Field) == model.TriFalse

	case model.PredEquals:
		s, ok := enumValue(c, p.Field)
		return ok && s == p.Value

	case model.PredAtLeast:
		v, ok := numericValue(c, p.Field)
		return ok && v >= p.Threshold

	case model.PredAtMost:
		v, ok := numericValue(c, p.Field)
		return ok && v <= p.Threshold
	}
	return false
}

func enumValue(c *model.Case, f model.Field) (string, bool) {
	switch f {
	case model.FieldSex:
		return string(c.Sex), true
	case model.FieldOnset:
		return string(c.Onset), true
	case model.FieldProfile:
		return string(c.Profile), true
	case model.FieldHeadacheProfile:
		return string(c.HeadacheProfile), true
	}
	return "", false
}

func numericValue(c *model.Case, f model.Field) (float64, bool) {
	switch f {
	case model.FieldAge:
		return float64(c.Age), true
	case model.FieldDurationHours:
		return c.DurationHours, true
	case model.FieldIntensity:
		return float64(c.Intensity), true
	}
	return 0, false
}

func validatePredicate(p model.Predicate) error {
	switch p.Kind {
	case model.PredIsTrue, model.PredIsFalse:
		if !model.IsTriState(p.Field) {
			return fmt.Errorf("predicate %s on non tri-state field %s", p.Kind, p.Field)
		}
	case model.PredEquals:
		switch p.Field {
		case model.FieldSex, model.FieldOnset, model.FieldProfile, model.FieldHeadacheProfile:
		default:
			return fmt.Errorf("predicate equals on non-enum field %s", p.Field)
		}
		if p.Value == "" {
			return fmt.Errorf("predicate equals on %s without value", p.Field)
		}
	case model.PredAtLeast, model.PredAtMost:
		switch p.Field {
		case model.FieldAge, model.FieldDurationHours, model.FieldIntensity:
		default:
			return fmt.Errorf("predicate %s on non-numeric field %s", p.Kind, p.Field)
		}
	case model.PredIsKnown:
	default:
		return fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
	return nil
}

// applyPregnancyPrecautions adjusts the modality, never the urgency,
// when an immediate recommendation includes ionizing imaging for a
// pregnant or postpartum patient.
func applyPregnancyPrecautions(c *model.Case, rec model.Recommendation) model.Recommendation {
	if c.PregnancyPostpartum != model.TriTrue || rec.Urgency != model.UrgencyImmediate {
		return rec
	}

	ionizing := false
	hasMRI := false
	for _, exam := range rec.Imaging {
		if isScanner(exam) {
			ionizing = true
		}
		if exam == "irm_cerebrale" {
			hasMRI = true
		}
	}
	if !ionizing {
		return rec
	}

	if !hasMRI {
		rec.Imaging = append(rec.Imaging, "irm_cerebrale")
	}
	rec.Comment += " Grossesse/post-partum: urgence vitale, l'imagerie ne doit pas être retardée." +
		" Scanner avec protection abdominale et dose minimale, IRM en alternative si disponible sans délai." +
		" Rapport bénéfice/risque favorable à l'imagerie immédiate."
	return rec
}

func isScanner(exam string) bool {
	return len(exam) >= 7 && (exam[:7] == "scanner" || exam[:7] == "angiosc")
}

func defaultRecommendation(c *model.Case) model.Recommendation {
	for _, f := range model.TriStateFields {
		if !c.Known(f) {
			return model.Recommendation{
				Urgency:       model.UrgencyNone,
				Comment:       "Informations insuffisantes pour statuer: compléter l'interrogatoire sur les drapeaux rouges.",
				AppliedRuleID: "DEFAULT",
			}
		}
	}
	// A red flag settled true that no rule covers must never read as
	// reassuring. The table has a gap; the wording says so.
	for _, f := range model.TriStateFields {
		if c.TriState(f) == model.TriTrue {
			return model.Recommendation{
				Urgency:       model.UrgencyUrgent,
				Comment:       "Drapeau rouge présent sans règle applicable: avis clinique spécialisé recommandé.",
				AppliedRuleID: "DEFAULT",
			}
		}
	}
	return model.Recommendation{
		Urgency:       model.UrgencyNone,
		Comment:       "Aucun drapeau rouge identifié: pas d'imagerie en première intention, réévaluer si évolution.",
		AppliedRuleID: "DEFAULT",
	}
}
