package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/plarroque/cephalo/internal/dialogue"
	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/rules"
	"github.com/plarroque/cephalo/internal/semantic"
)

func newEngine(t *testing.T, embedder semantic.Embedder) *Engine {
	t.Helper()
	re, err := rules.NewEngine(rules.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(model.DefaultConfig(), embedder, re, dialogue.NewMemoryStore(0), logger)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// failEmbedder simulates an unreachable similarity backend.
type failEmbedder struct{}

func (failEmbedder) Vectors(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("backend down")
}

func TestHandleTurnThunderclapScenario(t *testing.T) {
	e := newEngine(t, nil)

	res, err := e.HandleTurn(context.Background(),
		"", "Femme 45 ans, céphalée brutale coup de tonnerre il y a 2h, EVA 10/10, pire douleur de sa vie")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	c := res.Case
	if c.Onset != model.OnsetThunderclap {
		t.Errorf("onset = %s, want thunderclap", c.Onset)
	}
	if c.Intensity != 10 {
		t.Errorf("intensity = %d, want 10", c.Intensity)
	}
	if c.Profile != model.ProfileAcute {
		t.Errorf("profile = %s, want acute", c.Profile)
	}
	if c.Sex != model.SexFemale || c.Age != 45 {
		t.Errorf("demographics = %s/%d, want F/45", c.Sex, c.Age)
	}

	rec := res.Recommendation
	if rec.Urgency != model.UrgencyImmediate {
		t.Errorf("urgency = %s, want immediate", rec.Urgency)
	}
	found := false
	for _, exam := range rec.Imaging {
		if exam == "scanner_cerebral_sans_injection" {
			found = true
		}
	}
	if !found {
		t.Errorf("imaging = %v, missing non-injected cranial CT", rec.Imaging)
	}
	if !res.DialogueComplete {
		t.Error("emergency recommendation did not complete the dialogue")
	}
	if res.SessionID == "" {
		t.Error("no session id assigned")
	}
}

func TestHandleTurnSubfebrileTemperature(t *testing.T) {
	e := newEngine(t, nil)

	res, err := e.HandleTurn(context.Background(), "", "Patiente 55 ans, céphalée brutale, T° 37.8")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if res.Case.Fever != model.TriFalse {
		t.Errorf("fever = %s, want false at 37.8", res.Case.Fever)
	}
	if res.Case.Onset != model.OnsetThunderclap {
		t.Errorf("onset = %s, want thunderclap", res.Case.Onset)
	}
	if res.Recommendation.Urgency != model.UrgencyImmediate {
		t.Errorf("urgency = %s, want immediate", res.Recommendation.Urgency)
	}
}

func TestHandleTurnQuestionAnswerFlow(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	res, err := e.HandleTurn(ctx, "", "J'ai mal à la tête depuis 3 jours")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if res.DialogueComplete {
		t.Fatal("dialogue complete after one vague message")
	}
	if res.AskedField != model.FieldFever {
		t.Fatalf("asked field = %s, want fever first", res.AskedField)
	}
	if res.NextQuestion == "" {
		t.Fatal("no question text")
	}
	if res.Case.DurationHours != 72 {
		t.Errorf("duration = %v, want 72", res.Case.DurationHours)
	}

	res, err = e.HandleTurn(ctx, res.SessionID, "non")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if res.Case.Fever != model.TriFalse {
		t.Errorf("fever = %s after answering non, want false", res.Case.Fever)
	}
	if res.AskedField != model.FieldMeningealSigns {
		t.Errorf("asked field = %s, want meningeal_signs next", res.AskedField)
	}
}

func TestHandleTurnAnswerAppliesOnlyToAskedField(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	res, err := e.HandleTurn(ctx, "", "Homme 40 ans, céphalée depuis 2 jours")
	if err != nil {
		t.Fatal(err)
	}
	if res.AskedField != model.FieldFever {
		t.Fatalf("asked field = %s, want fever", res.AskedField)
	}

	// The reply settles fever and still feeds the extractors for the
	// extra finding.
	res, err = e.HandleTurn(ctx, res.SessionID, "non, mais j'ai la nuque raide")
	if err != nil {
		t.Fatal(err)
	}
	if res.Case.Fever != model.TriFalse {
		t.Errorf("fever = %s, want false", res.Case.Fever)
	}
	if res.Case.MeningealSigns != model.TriTrue {
		t.Errorf("meningeal signs = %s, want true from the same reply", res.Case.MeningealSigns)
	}
}

func TestHandleTurnPatternsSurviveLaterTurns(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	res, err := e.HandleTurn(ctx, "", "Douleur comme une décharge électrique dans le visage")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Patterns) != 1 || res.Patterns[0].Type != semantic.PatternTrigeminalNeuralgia {
		t.Fatalf("patterns after turn 1 = %v", res.Patterns)
	}

	res, err = e.HandleTurn(ctx, res.SessionID, "toujours aussi mal aujourd'hui")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Patterns) != 1 || res.Patterns[0].Type != semantic.PatternTrigeminalNeuralgia {
		t.Fatalf("patterns after turn 2 = %v, want the turn-1 detection kept", res.Patterns)
	}
}

func TestHandleTurnDegradedBackend(t *testing.T) {
	e := newEngine(t, failEmbedder{})

	res, err := e.HandleTurn(context.Background(), "", "Céphalée brutale en coup de tonnerre")
	if err != nil {
		t.Fatalf("HandleTurn failed instead of degrading: %v", err)
	}
	if !res.Degraded {
		t.Error("degraded flag not set with a failing backend")
	}
	// The deterministic rules still carry the turn.
	if res.Case.Onset != model.OnsetThunderclap {
		t.Errorf("onset = %s, want thunderclap from rule extraction", res.Case.Onset)
	}
}

func TestSessionSnapshotDuringConcurrentTurns(t *testing.T) {
	e := newEngine(t, nil)

	first, err := e.HandleTurn(context.Background(), "", "Homme de 70 ans, mal de tête depuis ce matin")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	id := first.SessionID

	// Snapshots must stay marshalable while turns rewrite the case's
	// provenance and contradiction maps.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if _, err := e.HandleTurn(context.Background(), id, "fièvre à 38.5 et nuque raide"); err != nil {
				t.Errorf("HandleTurn: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s, ok := e.Session(id)
			if !ok {
				t.Error("session disappeared")
				return
			}
			if _, err := json.Marshal(s); err != nil {
				t.Errorf("marshal snapshot: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestSessionSnapshotIsDetached(t *testing.T) {
	e := newEngine(t, nil)

	first, err := e.HandleTurn(context.Background(), "", "Femme enceinte, céphalée depuis hier")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	snap, ok := e.Session(first.SessionID)
	if !ok {
		t.Fatal("session not found")
	}
	turns := len(snap.Turns)

	if _, err := e.HandleTurn(context.Background(), first.SessionID, "oui"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if len(snap.Turns) != turns {
		t.Errorf("snapshot turn count changed from %d to %d after a later turn", turns, len(snap.Turns))
	}
}

func TestReset(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	res, err := e.HandleTurn(ctx, "", "Femme 30 ans, décharge électrique dans le visage, fièvre à 39")
	if err != nil {
		t.Fatal(err)
	}
	id := res.SessionID

	e.Reset(id)

	s, ok := e.Session(id)
	if !ok {
		t.Fatal("session gone after reset")
	}
	if s.ID != id {
		t.Errorf("session id changed to %s", s.ID)
	}
	if s.Case.Fever != model.TriUnknown || len(s.Patterns) != 0 {
		t.Error("case or patterns survived the reset")
	}
}

func TestHandleTurnContradictionSurfaces(t *testing.T) {
	e := newEngine(t, nil)

	res, err := e.HandleTurn(context.Background(),
		"", "Céphalée brutale mais d'installation progressive sur plusieurs semaines")
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, f := range res.Contradictions {
		if f == model.FieldOnset {
			found = true
		}
	}
	if !found {
		t.Errorf("contradictions = %v, want onset flagged", res.Contradictions)
	}
	if res.Case.Known(model.FieldOnset) {
		t.Error("conflicting onset silently settled")
	}
}
