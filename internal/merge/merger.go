// Package merge reconciles extraction candidates into the structured
// case. It arbitrates three kinds of disagreement: within one source
// (the text itself says both "brutale" and "progressive"), between
// sources (the pattern rules and the vocabulary disagree), and between
// a new turn and the accumulated case. Every disagreement is recorded
// as a contradiction on the field, which makes the field not-known
// until an explicit dialogue answer settles it. A known value is
// overwritten only by a strictly higher confidence; confidence on a
// field never decreases.
package merge

import (
	"sort"

	"github.com/plarroque/cephalo/internal/model"
)

// Merger applies one turn's candidates to a case.
type Merger struct {
	floor  float64
	margin float64
}

// New builds a merger from configuration, falling back to the tuned
// defaults for unset values.
func New(cfg model.MergerConfig) *Merger {
	floor := cfg.AcceptanceFloor
	if floor <= 0 {
		floor = 0.30
	}
	margin := cfg.ConflictMargin
	if margin <= 0 {
		margin = 0.15
	}
	return &Merger{floor: floor, margin: margin}
}

// Merge returns a new case: base with the turn's rule and semantic
// candidates applied. The input case is never mutated, so a caller can
// commit or discard the result atomically.
func (m *Merger) Merge(base *model.Case, ruleCands, semCands []model.Candidate) *model.Case {
	c := base.Clone()

	ruleBest := m.resolveIntraSource(c, ruleCands)
	semBest := m.resolveIntraSource(c, semCands)

	for _, f := range mergedFields(ruleBest, semBest) {
		r, hasRule := ruleBest[f]
		s, hasSem := semBest[f]

		var winner model.Candidate
		switch {
		case hasRule && hasSem && model.SameValue(r.Value, s.Value):
			// Agreement across sources: keep the rule provenance,
			// combine confidence.
			winner = r
			if s.Confidence > winner.Confidence {
				winner.Confidence = s.Confidence
			}
		case hasRule && hasSem:
			// Sources disagree. The deterministic rule wins ties, but
			// the field stays contradicted until an answer settles it.
			c.Contradictions[f] = true
			if r.Confidence >= s.Confidence {
				winner = r
			} else {
				winner = s
			}
		case hasRule:
			winner = r
		default:
			winner = s
		}

		if winner.Confidence < m.floor {
			continue
		}
		m.apply(c, winner)
	}

	return c
}

// ApplyAnswer writes an explicit dialogue answer: it bypasses the
// confidence ladder, clears any pending contradiction on the field and
// carries near-certain confidence.
func ApplyAnswer(c *model.Case, f model.Field, value any) {
	delete(c.Contradictions, f)
	setValue(c, model.Candidate{
		Field:      f,
		Value:      value,
		Confidence: 0.99,
		Source:     model.SourceAnswer,
	})
}

// resolveIntraSource picks at most one candidate per field from a
// single source. Two different values for one field are a conflict:
// within the margin neither is trustworthy and the field is only
// marked contradicted; beyond it the stronger one survives but the
// contradiction is still recorded.
func (m *Merger) resolveIntraSource(c *model.Case, cands []model.Candidate) map[model.Field]model.Candidate {
	byField := make(map[model.Field][]model.Candidate)
	for _, cand := range cands {
		byField[cand.Field] = append(byField[cand.Field], cand)
	}

	best := make(map[model.Field]model.Candidate, len(byField))
	for f, group := range byField {
		top := group[0]
		for _, cand := range group[1:] {
			if cand.Confidence > top.Confidence {
				top = cand
			}
		}

		rival := -1.0
		for _, cand := range group {
			if !model.SameValue(cand.Value, top.Value) && cand.Confidence > rival {
				rival = cand.Confidence
			}
		}
		if rival >= 0 {
			c.Contradictions[f] = true
			if top.Confidence-rival < m.margin {
				continue // too close to call
			}
		}
		best[f] = top
	}
	return best
}

// apply writes the winning candidate onto the case under the monotonic
// confidence invariant.
func (m *Merger) apply(c *model.Case, winner model.Candidate) {
	existing, known := currentValue(c, winner.Field)
	if !known {
		setValue(c, winner)
		return
	}

	if model.SameValue(existing, winner.Value) {
		// Re-confirmation: keep the stronger provenance.
		if winner.Confidence > c.Confidence(winner.Field) {
			setValue(c, winner)
		}
		return
	}

	// The turn disagrees with the accumulated case.
	c.Contradictions[winner.Field] = true
	if winner.Confidence > c.Confidence(winner.Field) {
		setValue(c, winner)
	}
}

// currentValue reads the case slot in candidate-value convention.
func currentValue(c *model.Case, f model.Field) (any, bool) {
	switch f {
	case model.FieldAge:
		if c.Age != model.AgeUnknown {
			return c.Age, true
		}
	case model.FieldSex:
		if c.Sex != model.SexUnknown {
			return string(c.Sex), true
		}
	case model.FieldOnset:
		if c.Onset != model.OnsetUnknown {
			return string(c.Onset), true
		}
	case model.FieldProfile:
		if c.Profile != model.ProfileUnknown {
			return string(c.Profile), true
		}
	case model.FieldDurationHours:
		if c.DurationHours >= 0 {
			return c.DurationHours, true
		}
	case model.FieldIntensity:
		if c.Intensity >= 0 {
			return c.Intensity, true
		}
	case model.FieldHeadacheProfile:
		if c.HeadacheProfile != model.HeadacheUnknown {
			return string(c.HeadacheProfile), true
		}
	default:
		if ts := c.TriState(f); ts.Known() {
			return ts == model.TriTrue, true
		}
	}
	return nil, false
}

// setValue writes the candidate's value and provenance. Candidates
// with a value of the wrong type are dropped silently; extraction
// stages own the value conventions.
func setValue(c *model.Case, cand model.Candidate) {
	switch cand.Field {
	case model.FieldAge:
		v, ok := cand.Value.(int)
		if !ok {
			return
		}
		c.Age = v
	case model.FieldSex:
		v, ok := cand.Value.(string)
		if !ok {
			return
		}
		c.Sex = model.Sex(v)
	case model.FieldOnset:
		v, ok := cand.Value.(string)
		if !ok {
			return
		}
		c.Onset = model.Onset(v)
	case model.FieldProfile:
		v, ok := cand.Value.(string)
		if !ok {
			return
		}
		c.Profile = model.Profile(v)
	case model.FieldDurationHours:
		v, ok := cand.Value.(float64)
		if !ok {
			return
		}
		c.DurationHours = v
	case model.FieldIntensity:
		v, ok := cand.Value.(int)
		if !ok {
			return
		}
		c.Intensity = v
	case model.FieldHeadacheProfile:
		v, ok := cand.Value.(string)
		if !ok {
			return
		}
		c.HeadacheProfile = model.HeadacheProfile(v)
	default:
		v, ok := cand.Value.(bool)
		if !ok {
			return
		}
		if v {
			c.SetTriState(cand.Field, model.TriTrue)
		} else {
			c.SetTriState(cand.Field, model.TriFalse)
		}
	}

	c.Provenance[cand.Field] = model.Provenance{
		Confidence: cand.Confidence,
		Term:       cand.Term,
		Source:     cand.Source,
	}
}

// mergedFields returns the union of both sources' fields in a stable
// order so merges are reproducible.
func mergedFields(a, b map[model.Field]model.Candidate) []model.Field {
	seen := make(map[model.Field]struct{}, len(a)+len(b))
	var fields []model.Field
	for f := range a {
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	for f := range b {
		if _, ok := seen[f]; !ok {
			fields = append(fields, f)
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}
