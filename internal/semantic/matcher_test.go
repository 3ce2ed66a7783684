package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/plarroque/cephalo/internal/model"
)

const fakeDim = 256

// fakeEmbedder returns preset vectors for known texts and allocates a
// fresh basis vector for anything else, so unrelated tokens are
// orthogonal and deterministic.
type fakeEmbedder struct {
	preset    map[string][]float32
	auto      map[string][]float32
	next      int
	err       error
	requested []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		preset: make(map[string][]float32),
		auto:   make(map[string][]float32),
		next:   fakeDim / 2,
	}
}

func unit(i int) []float32 {
	v := make([]float32, fakeDim)
	v[i] = 1
	return v
}

// blend builds a vector whose cosine with unit(i) equals wi.
func blend(i, j int, wi, wj float32) []float32 {
	v := make([]float32, fakeDim)
	v[i] = wi
	v[j] = wj
	return v
}

func (f *fakeEmbedder) set(text string, vec []float32) {
	f.preset[text] = vec
}

func (f *fakeEmbedder) Vectors(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f.requested = append(f.requested, t)
		if v, ok := f.preset[t]; ok {
			out[i] = v
			continue
		}
		if v, ok := f.auto[t]; ok {
			out[i] = v
			continue
		}
		if f.next >= fakeDim {
			panic("fakeEmbedder: out of basis vectors")
		}
		v := unit(f.next)
		f.next++
		f.auto[t] = v
		out[i] = v
	}
	return out, nil
}

func TestMatcherExactTerm(t *testing.T) {
	vocab := map[string]Entry{
		"fièvre": {Field: model.FieldFever, Value: true, Weight: 0.95, Category: "fever"},
	}
	fe := newFakeEmbedder()
	fe.set("fièvre", unit(0))
	fe.set("fievre", unit(0)) // folded token lands on the same vector

	m := NewMatcher(vocab, fe, 0.78, 3)
	cands, err := m.Match(context.Background(), "fièvre depuis hier")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("candidates = %v, want one fever match", cands)
	}
	c := cands[0]
	if c.Field != model.FieldFever || c.Value != true || c.Source != model.SourceEmbedding {
		t.Errorf("candidate = %+v", c)
	}
	if c.Confidence < 0.94 || c.Confidence > 0.96 {
		t.Errorf("confidence = %v, want weight x similarity ~0.95", c.Confidence)
	}
}

func TestMatcherThreshold(t *testing.T) {
	vocab := map[string]Entry{
		"fièvre": {Field: model.FieldFever, Value: true, Weight: 0.95, Category: "fever"},
	}
	fe := newFakeEmbedder()
	fe.set("fièvre", unit(0))
	// cosine("frisson", "fièvre") = 0.70, below the 0.78 default.
	fe.set("frisson", blend(0, 1, 0.70, 0.714))

	m := NewMatcher(vocab, fe, 0.78, 3)
	cands, err := m.Match(context.Background(), "frisson")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("similarity 0.70 must not pass threshold 0.78, got %v", cands)
	}

	loose := NewMatcher(vocab, fe, 0.60, 3)
	cands, err = loose.Match(context.Background(), "frisson")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected match at threshold 0.60, got %v", cands)
	}
	want := 0.95 * 0.70
	if got := cands[0].Confidence; got < want-0.02 || got > want+0.02 {
		t.Errorf("confidence = %v, want ~%v", got, want)
	}
}

func TestMatcherDedupePerField(t *testing.T) {
	vocab := map[string]Entry{
		"brutal":  {Field: model.FieldOnset, Value: string(model.OnsetThunderclap), Weight: 0.90, Category: "onset"},
		"soudain": {Field: model.FieldOnset, Value: string(model.OnsetThunderclap), Weight: 0.85, Category: "onset"},
	}
	fe := newFakeEmbedder()
	fe.set("brutal", unit(0))
	fe.set("soudain", unit(1))

	m := NewMatcher(vocab, fe, 0.78, 3)
	cands, err := m.Match(context.Background(), "brutal soudain")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one onset candidate after dedupe, got %v", cands)
	}
	if cands[0].Term != "brutal" {
		t.Errorf("kept term %q, want the higher weight match", cands[0].Term)
	}
}

func TestMatcherQualitativeIntensity(t *testing.T) {
	vocab := map[string]Entry{
		"insupportable": {Field: model.FieldIntensity, Value: intensityMaximum, Weight: 0.95, Category: "intensity"},
		"légère":        {Field: model.FieldIntensity, Value: intensityMild, Weight: 0.85, Category: "intensity"},
	}
	fe := newFakeEmbedder()
	fe.set("insupportable", unit(0))

	m := NewMatcher(vocab, fe, 0.78, 3)
	cands, err := m.Match(context.Background(), "douleur insupportable")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(cands) != 1 || cands[0].Value != 10 {
		t.Errorf("candidates = %v, want intensity 10", cands)
	}
}

func TestMatcherEmbedderError(t *testing.T) {
	fe := newFakeEmbedder()
	fe.err = errors.New("backend down")

	m := NewMatcher(DefaultVocabulary(), fe, 0.78, 3)
	if _, err := m.Match(context.Background(), "céphalée brutale"); err == nil {
		t.Fatal("expected error when embedder is unavailable")
	}
}

func TestMatcherSkipsShortTokens(t *testing.T) {
	fe := newFakeEmbedder()
	m := NewMatcher(map[string]Entry{
		"fièvre": {Field: model.FieldFever, Value: true, Weight: 0.95, Category: "fever"},
	}, fe, 0.78, 3)

	if _, err := m.Match(context.Background(), "mal de tete"); err != nil {
		t.Fatalf("Match: %v", err)
	}
	for _, r := range fe.requested {
		if r == "de" {
			t.Error("single token below minimum length must not be embedded")
		}
	}
	// But n-grams still include short words.
	found := false
	for _, r := range fe.requested {
		if r == "mal de tete" {
			found = true
		}
	}
	if !found {
		t.Error("3-gram containing a short word should be embedded")
	}
}

func TestDefaultVocabularyConsistency(t *testing.T) {
	vocab := DefaultVocabulary()
	if len(vocab) < 150 {
		t.Fatalf("vocabulary unexpectedly small: %d terms", len(vocab))
	}
	for term, e := range vocab {
		if e.Field == "" || e.Category == "" {
			t.Errorf("%q: missing field or category", term)
		}
		if e.Weight <= 0 || e.Weight > 1 {
			t.Errorf("%q: weight %v out of range", term, e.Weight)
		}
		if e.Field == model.FieldIntensity {
			s, ok := e.Value.(string)
			if !ok {
				t.Errorf("%q: intensity value must be a qualitative level", term)
				continue
			}
			if _, known := intensityScale[s]; !known {
				t.Errorf("%q: unknown intensity level %q", term, s)
			}
		}
	}
}

func TestPatternDetectorLiteral(t *testing.T) {
	d := NewPatternDetector(nil, 0.80)
	pats, err := d.Detect(context.Background(), "Douleur faciale comme une décharge électrique quand il parle")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(pats) != 1 || pats[0].Type != PatternTrigeminalNeuralgia {
		t.Fatalf("patterns = %v, want trigeminal neuralgia", pats)
	}
	if pats[0].Similarity != 1.0 {
		t.Errorf("literal match similarity = %v, want 1.0", pats[0].Similarity)
	}
}

func TestPatternDetectorEmbedding(t *testing.T) {
	fe := newFakeEmbedder()
	text := "ca pique comme de l'electricite dans la joue"
	// The detector embeds the normalized turn text first.
	fe.set(text, blend(0, 1, 0.9, 0.436))
	fe.set("decharge electrique dans le visage", unit(0))

	d := NewPatternDetector(fe, 0.80)
	pats, err := d.Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(pats) != 1 || pats[0].Type != PatternTrigeminalNeuralgia {
		t.Fatalf("patterns = %v, want trigeminal neuralgia via embedding", pats)
	}
	if pats[0].Similarity < 0.85 || pats[0].Similarity >= 1.0 {
		t.Errorf("similarity = %v, want ~0.9", pats[0].Similarity)
	}
}
