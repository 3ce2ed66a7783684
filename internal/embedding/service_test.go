package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plarroque/cephalo/internal/cache"
)

type stubProvider struct {
	calls     int
	lastBatch []string
	err       error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) IsAvailable(context.Context) bool { return true }

func (p *stubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.calls++
	p.lastBatch = texts
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestServiceCachesVectors(t *testing.T) {
	p := &stubProvider{}
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	s := NewService(p, "test-model", c, nil)

	texts := []string{"fièvre", "raideur de nuque"}
	first, err := s.Vectors(context.Background(), texts)
	if err != nil {
		t.Fatalf("Vectors: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}

	second, err := s.Vectors(context.Background(), texts)
	if err != nil {
		t.Fatalf("Vectors (cached): %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d after warm cache, want 1", p.calls)
	}
	for i := range first {
		if len(first[i]) != len(second[i]) || first[i][0] != second[i][0] {
			t.Errorf("vector %d changed across cache: %v vs %v", i, first[i], second[i])
		}
	}

	hits, misses := s.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("stats = %d hits / %d misses, want 2/2", hits, misses)
	}
}

func TestServiceBatchesOnlyMisses(t *testing.T) {
	p := &stubProvider{}
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	s := NewService(p, "test-model", c, nil)

	if _, err := s.Vectors(context.Background(), []string{"fièvre"}); err != nil {
		t.Fatalf("Vectors: %v", err)
	}
	if _, err := s.Vectors(context.Background(), []string{"fièvre", "convulsions"}); err != nil {
		t.Fatalf("Vectors: %v", err)
	}
	if len(p.lastBatch) != 1 || p.lastBatch[0] != "convulsions" {
		t.Errorf("second batch = %v, want only the cache miss", p.lastBatch)
	}
}

func TestServicePropagatesProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("backend down")}
	s := NewService(p, "test-model", nil, nil)

	if _, err := s.Vectors(context.Background(), []string{"fièvre"}); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestServiceWithoutCache(t *testing.T) {
	p := &stubProvider{}
	s := NewService(p, "test-model", nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := s.Vectors(context.Background(), []string{"fièvre"}); err != nil {
			t.Fatalf("Vectors: %v", err)
		}
	}
	if p.calls != 2 {
		t.Errorf("provider calls = %d without cache, want 2", p.calls)
	}
}
