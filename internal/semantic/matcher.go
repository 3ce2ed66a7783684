package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/textnorm"
)

// Embedder turns texts into dense vectors. Implementations live in the
// embedding package; tests supply fakes.
type Embedder interface {
	Vectors(ctx context.Context, texts []string) ([][]float32, error)
}

// Matcher matches input tokens against the vocabulary by embedding
// similarity. Term vectors are computed once on first use and reused
// for the process lifetime.
type Matcher struct {
	vocab       map[string]Entry
	embedder    Embedder
	threshold   float64
	minTokenLen int

	mu       sync.Mutex
	terms    []string
	termVecs [][]float32
}

// NewMatcher builds a matcher over the given vocabulary. Threshold is
// the minimum cosine similarity for a token to count as a match;
// tokens shorter than minTokenLen runes are skipped so function words
// like "en" cannot match anything.
func NewMatcher(vocab map[string]Entry, embedder Embedder, threshold float64, minTokenLen int) *Matcher {
	return &Matcher{
		vocab:       vocab,
		embedder:    embedder,
		threshold:   threshold,
		minTokenLen: minTokenLen,
	}
}

// Match returns one candidate per clinical field: the highest
// confidence (weight x similarity) vocabulary hit across all tokens.
// An embedder failure is returned as an error; the caller decides how
// to degrade.
func (m *Matcher) Match(ctx context.Context, text string) ([]model.Candidate, error) {
	tokens := m.tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	if err := m.ensureTermVectors(ctx); err != nil {
		return nil, err
	}

	tokenVecs, err := m.embedder.Vectors(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("embedding %d tokens: %w", len(tokens), err)
	}
	if len(tokenVecs) != len(tokens) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d tokens", len(tokenVecs), len(tokens))
	}

	best := make(map[model.Field]model.Candidate)
	for _, tv := range tokenVecs {
		for i, term := range m.terms {
			sim := cosine(tv, m.termVecs[i])
			if sim < m.threshold {
				continue
			}
			entry := m.vocab[term]
			conf := entry.Weight * sim
			prev, seen := best[entry.Field]
			if seen && prev.Confidence >= conf {
				continue
			}
			best[entry.Field] = model.Candidate{
				Field:      entry.Field,
				Value:      resolveValue(entry),
				Confidence: conf,
				Term:       term,
				Source:     model.SourceEmbedding,
			}
		}
	}

	out := make([]model.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Field < out[j].Field
	})
	return out, nil
}

// resolveValue maps qualitative intensity levels onto the 0-10 scale;
// every other entry passes its value through.
func resolveValue(e Entry) any {
	if e.Field == model.FieldIntensity {
		if s, ok := e.Value.(string); ok {
			if v, found := intensityScale[s]; found {
				return v
			}
		}
	}
	return e.Value
}

// tokenize yields words plus 2-4 word n-grams from both the folded and
// the accent-preserving normalization, deduplicated.
func (m *Matcher) tokenize(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	for _, variant := range []string{
		textnorm.Normalize(text, false),
		textnorm.Normalize(text, true),
	} {
		words := textnorm.Words(variant)
		for _, w := range words {
			if len([]rune(w)) >= m.minTokenLen {
				add(w)
			}
		}
		for n := 2; n <= 4; n++ {
			for i := 0; i+n <= len(words); i++ {
				add(joinWords(words[i : i+n]))
			}
		}
	}
	return tokens
}

func joinWords(words []string) string {
	out := words[0]
	for _, w := range words[1:] {
		out += " " + w
	}
	return out
}

func (m *Matcher) ensureTermVectors(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.termVecs != nil {
		return nil
	}

	terms := make([]string, 0, len(m.vocab))
	for t := range m.vocab {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	vecs, err := m.embedder.Vectors(ctx, terms)
	if err != nil {
		return fmt.Errorf("embedding %d vocabulary terms: %w", len(terms), err)
	}
	if len(vecs) != len(terms) {
		return fmt.Errorf("embedder returned %d vectors for %d terms", len(vecs), len(terms))
	}
	m.terms = terms
	m.termVecs = vecs
	return nil
}

// cosine returns the cosine similarity of two vectors, 0 when either
// is empty or zero-length.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
