package merge

import (
	"testing"

	"github.com/plarroque/cephalo/internal/model"
)

func defaultMerger() *Merger {
	return New(model.DefaultConfig().Merger)
}

func ruleCand(f model.Field, v any, conf float64) model.Candidate {
	return model.Candidate{Field: f, Value: v, Confidence: conf, Term: "t", Source: model.SourceRule}
}

func semCand(f model.Field, v any, conf float64) model.Candidate {
	return model.Candidate{Field: f, Value: v, Confidence: conf, Term: "t", Source: model.SourceEmbedding}
}

func TestMergeSingleSource(t *testing.T) {
	m := defaultMerger()
	c := m.Merge(model.NewCase(), []model.Candidate{ruleCand(model.FieldFever, true, 0.95)}, nil)

	if c.Fever != model.TriTrue {
		t.Errorf("fever = %v, want true", c.Fever)
	}
	if !c.Known(model.FieldFever) {
		t.Error("fever should be known")
	}
	if got := c.Confidence(model.FieldFever); got != 0.95 {
		t.Errorf("confidence = %v, want 0.95", got)
	}
}

func TestMergeAcceptanceFloor(t *testing.T) {
	m := defaultMerger()
	c := m.Merge(model.NewCase(), nil, []model.Candidate{semCand(model.FieldFever, true, 0.25)})

	if c.Fever != model.TriUnknown {
		t.Errorf("fever = %v, want unknown below acceptance floor", c.Fever)
	}
}

func TestMergeAgreementCombinesConfidence(t *testing.T) {
	m := defaultMerger()
	c := m.Merge(model.NewCase(),
		[]model.Candidate{ruleCand(model.FieldFever, true, 0.70)},
		[]model.Candidate{semCand(model.FieldFever, true, 0.90)})

	if c.Fever != model.TriTrue {
		t.Fatalf("fever = %v, want true", c.Fever)
	}
	if got := c.Confidence(model.FieldFever); got != 0.90 {
		t.Errorf("confidence = %v, want max of agreeing sources", got)
	}
	if c.Contradictions[model.FieldFever] {
		t.Error("agreement must not record a contradiction")
	}
}

func TestMergeCrossSourceDisagreement(t *testing.T) {
	m := defaultMerger()
	// Measured temperature says no fever, wording says fever.
	c := m.Merge(model.NewCase(),
		[]model.Candidate{ruleCand(model.FieldFever, false, 0.95)},
		[]model.Candidate{semCand(model.FieldFever, true, 0.90)})

	if c.Fever != model.TriFalse {
		t.Errorf("fever = %v, want the rule value to win the tie", c.Fever)
	}
	if !c.Contradictions[model.FieldFever] {
		t.Error("disagreement must be recorded")
	}
	if c.Known(model.FieldFever) {
		t.Error("contradicted field must not count as known")
	}
}

func TestMergeIntraSourceConflictWithinMargin(t *testing.T) {
	m := defaultMerger()
	// "brutale" and "progressive" in the same message, confidences
	// within the conflict margin: too close to call.
	c := m.Merge(model.NewCase(), []model.Candidate{
		ruleCand(model.FieldOnset, string(model.OnsetThunderclap), 0.90),
		ruleCand(model.FieldOnset, string(model.OnsetProgressive), 0.85),
	}, nil)

	if c.Onset != model.OnsetUnknown {
		t.Errorf("onset = %v, want unknown", c.Onset)
	}
	if !c.Contradictions[model.FieldOnset] {
		t.Error("conflict must be recorded")
	}
}

func TestMergeIntraSourceConflictBeyondMargin(t *testing.T) {
	m := defaultMerger()
	// Explicit "chronique" against a profile inferred from a short
	// duration: the explicit wording wins but stays flagged.
	c := m.Merge(model.NewCase(), []model.Candidate{
		ruleCand(model.FieldProfile, string(model.ProfileChronic), 0.90),
		ruleCand(model.FieldProfile, string(model.ProfileAcute), 0.60),
	}, nil)

	if c.Profile != model.ProfileChronic {
		t.Errorf("profile = %v, want the dominant value applied", c.Profile)
	}
	if !c.Contradictions[model.FieldProfile] {
		t.Error("conflict must be recorded")
	}
	if c.Known(model.FieldProfile) {
		t.Error("flagged profile must not count as known until confirmed")
	}
}

func TestMergeMonotonicConfidence(t *testing.T) {
	m := defaultMerger()
	base := m.Merge(model.NewCase(), []model.Candidate{ruleCand(model.FieldFever, true, 0.95)}, nil)

	// A weaker re-mention must not lower the stored confidence.
	c := m.Merge(base, []model.Candidate{ruleCand(model.FieldFever, true, 0.60)}, nil)
	if got := c.Confidence(model.FieldFever); got != 0.95 {
		t.Errorf("confidence = %v, want 0.95 preserved", got)
	}

	// A weaker disagreement must not overwrite, only flag.
	c = m.Merge(base, []model.Candidate{ruleCand(model.FieldFever, false, 0.60)}, nil)
	if c.Fever != model.TriTrue {
		t.Errorf("fever = %v, want existing value kept", c.Fever)
	}
	if !c.Contradictions[model.FieldFever] {
		t.Error("turn-vs-case disagreement must be recorded")
	}

	// A stronger disagreement overwrites and still flags.
	weak := m.Merge(model.NewCase(), []model.Candidate{ruleCand(model.FieldOnset, string(model.OnsetProgressive), 0.50)}, nil)
	c = m.Merge(weak, []model.Candidate{ruleCand(model.FieldOnset, string(model.OnsetThunderclap), 0.95)}, nil)
	if c.Onset != model.OnsetThunderclap {
		t.Errorf("onset = %v, want stronger new value", c.Onset)
	}
	if !c.Contradictions[model.FieldOnset] {
		t.Error("overwrite must still record the disagreement")
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	m := defaultMerger()
	base := model.NewCase()
	_ = m.Merge(base, []model.Candidate{ruleCand(model.FieldFever, true, 0.95)}, nil)

	if base.Fever != model.TriUnknown || len(base.Provenance) != 0 {
		t.Error("Merge mutated its input case")
	}
}

func TestApplyAnswerSettlesContradiction(t *testing.T) {
	m := defaultMerger()
	c := m.Merge(model.NewCase(),
		[]model.Candidate{ruleCand(model.FieldFever, false, 0.95)},
		[]model.Candidate{semCand(model.FieldFever, true, 0.90)})
	if c.Known(model.FieldFever) {
		t.Fatal("precondition: fever should be contradicted")
	}

	ApplyAnswer(c, model.FieldFever, true)

	if c.Fever != model.TriTrue || !c.Known(model.FieldFever) {
		t.Errorf("fever = %v known=%v, want settled true", c.Fever, c.Known(model.FieldFever))
	}
	if got := c.Confidence(model.FieldFever); got != 0.99 {
		t.Errorf("confidence = %v, want 0.99", got)
	}
	if c.Provenance[model.FieldFever].Source != model.SourceAnswer {
		t.Errorf("source = %v, want answer", c.Provenance[model.FieldFever].Source)
	}
}

func TestMergeNumericFields(t *testing.T) {
	m := defaultMerger()
	c := m.Merge(model.NewCase(), []model.Candidate{
		ruleCand(model.FieldAge, 42, 0.90),
		ruleCand(model.FieldDurationHours, 72.0, 0.90),
		ruleCand(model.FieldIntensity, 8, 0.95),
	}, nil)

	if c.Age != 42 || c.DurationHours != 72.0 || c.Intensity != 8 {
		t.Errorf("case = age %d, duration %v, intensity %d", c.Age, c.DurationHours, c.Intensity)
	}

	// Duration re-extracted with rounding noise is the same value.
	c2 := m.Merge(c, []model.Candidate{ruleCand(model.FieldDurationHours, 72.0005, 0.92)}, nil)
	if c2.Contradictions[model.FieldDurationHours] {
		t.Error("rounding noise must not count as disagreement")
	}
	if got := c2.Confidence(model.FieldDurationHours); got != 0.92 {
		t.Errorf("confidence = %v, want raised to 0.92", got)
	}
}
