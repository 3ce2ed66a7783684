package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/plarroque/cephalo/internal/cache"
	"github.com/plarroque/cephalo/internal/worker"
)

// Service wraps a Provider with a vector cache and a rate limiter. It
// implements the semantic matcher's Embedder interface. Vocabulary
// terms are embedded once per cache lifetime; only genuinely new
// wording reaches the backend.
type Service struct {
	provider Provider
	model    string
	cache    cache.Cache
	limiter  *worker.Limiter

	hits   atomic.Int64
	misses atomic.Int64
}

// NewService builds the caching wrapper. Cache and limiter may be nil;
// either is then skipped.
func NewService(provider Provider, model string, c cache.Cache, limiter *worker.Limiter) *Service {
	return &Service{
		provider: provider,
		model:    model,
		cache:    c,
		limiter:  limiter,
	}
}

// Vectors returns one vector per text, serving from cache where
// possible and batching the misses into a single provider call.
func (s *Service) Vectors(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := s.cached(text); ok {
			out[i] = vec
			s.hits.Add(1)
			continue
		}
		s.misses.Add(1)
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	vecs, err := s.provider.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%s returned %d vectors for %d texts", s.provider.Name(), len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		s.store(texts[i], vecs[j])
	}
	return out, nil
}

// Stats reports cache hit and miss counts since construction.
func (s *Service) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

func (s *Service) key(text string) string {
	return cache.Key(s.provider.Name(), s.model, text)
}

func (s *Service) cached(text string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.Get(s.key(text))
	if !ok {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (s *Service) store(text string, vec []float32) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	// Vectors never change for a given provider+model+text; no TTL.
	_ = s.cache.Set(s.key(text), data, 0)
}
