package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/plarroque/cephalo/internal/cache"
	"github.com/plarroque/cephalo/internal/dialogue"
	"github.com/plarroque/cephalo/internal/embedding"
	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/pipeline"
	"github.com/plarroque/cephalo/internal/rules"
	"github.com/plarroque/cephalo/internal/semantic"
	"github.com/plarroque/cephalo/internal/worker"
)

// loadConfig resolves the effective configuration: defaults, then the
// config file and CEPHALO_* environment via viper, then flags bound by
// the individual commands.
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// buildEngine wires the full pipeline from configuration. Any
// configuration-level failure (unknown provider, malformed rule table
// or vocabulary) is returned and fatal; an unreachable embedding
// backend is not, the pipeline then degrades to rule-only extraction.
func buildEngine(cfg model.Config) (*pipeline.Engine, error) {
	var embedder semantic.Embedder
	provider, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	if provider != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Embedding backend: %s\n", provider.Name())
			probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if !provider.IsAvailable(probeCtx) {
				fmt.Fprintf(os.Stderr, "Warning: backend unreachable, running rule-only\n")
			}
			cancel()
		}

		var vectorCache cache.Cache
		if cfg.Embedding.CacheDir != "" {
			vectorCache = cache.NewLayeredCache(time.Hour, cfg.Embedding.CacheDir, 0)
		} else {
			vectorCache = cache.NewMemoryCache(0, 0)
		}
		limiter := worker.NewLimiter(cfg.Embedding.RequestsPerSecond, cfg.Embedding.Burst)
		embedder = embedding.NewService(provider, cfg.Embedding.Model, vectorCache, limiter)
	}

	ruleEngine, err := loadRuleEngine(cfg)
	if err != nil {
		return nil, err
	}

	store := dialogue.NewMemoryStore(cfg.Session.TTL)
	logger := slog.New(slog.NewTextHandler(logWriter(), nil))

	return pipeline.New(cfg, embedder, ruleEngine, store, logger)
}

func loadRuleEngine(cfg model.Config) (*rules.Engine, error) {
	if cfg.Rules.Path != "" {
		engine, err := rules.Load(cfg.Rules.Path)
		if err != nil {
			return nil, fmt.Errorf("rule table: %w", err)
		}
		return engine, nil
	}
	return rules.NewEngine(rules.DefaultRules())
}

// logWriter keeps structured logs off the interactive terminal unless
// verbose is set.
func logWriter() io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}
