// Package pipeline runs one dialogue turn end to end: normalization
// and extraction, semantic matching, candidate merging, special
// pattern accumulation, question selection and rule evaluation. It is
// the Go-level session boundary; the HTTP service and the CLI are thin
// shells over it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/plarroque/cephalo/internal/dialogue"
	"github.com/plarroque/cephalo/internal/extract"
	"github.com/plarroque/cephalo/internal/merge"
	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/rules"
	"github.com/plarroque/cephalo/internal/semantic"
)

// TurnResult is everything one turn produces for the caller.
type TurnResult struct {
	SessionID        string                    `json:"session_id"`
	Case             *model.Case               `json:"case"`
	NextQuestion     string                    `json:"next_question,omitempty"`
	AskedField       model.Field               `json:"asked_field,omitempty"`
	Recommendation   *model.Recommendation     `json:"recommendation,omitempty"`
	DialogueComplete bool                      `json:"dialogue_complete"`
	Confidence       float64                   `json:"confidence_score"`
	Degraded         bool                      `json:"degraded,omitempty"`
	Contradictions   []model.Field             `json:"contradictions,omitempty"`
	Patterns         []semantic.SpecialPattern `json:"patterns,omitempty"`
}

// Engine wires the extraction stages to the session store. Safe for
// concurrent use: turns on different sessions run in parallel, turns
// on the same session are serialized.
type Engine struct {
	extractor *extract.Extractor
	matcher   *semantic.Matcher
	detector  *semantic.PatternDetector
	merger    *merge.Merger
	rules     *rules.Engine
	store     dialogue.Store
	logger    *slog.Logger

	locks sync.Map // session id -> *sync.Mutex
}

// New builds the engine. embedder may be nil, which runs the pipeline
// rule-only; a malformed vocabulary file is a fatal configuration
// error.
func New(cfg model.Config, embedder semantic.Embedder, ruleEngine *rules.Engine, store dialogue.Store, logger *slog.Logger) (*Engine, error) {
	if ruleEngine == nil {
		return nil, fmt.Errorf("nil rule engine")
	}
	if store == nil {
		store = dialogue.NewMemoryStore(cfg.Session.TTL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	vocab := semantic.DefaultVocabulary()
	if cfg.Matcher.VocabularyPath != "" {
		loaded, err := semantic.LoadVocabulary(cfg.Matcher.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vocab = loaded
	}

	var matcher *semantic.Matcher
	if embedder != nil {
		matcher = semantic.NewMatcher(vocab, embedder, cfg.Matcher.SimilarityThreshold, cfg.Matcher.MinTokenLength)
	}

	return &Engine{
		extractor: extract.New(),
		matcher:   matcher,
		detector:  semantic.NewPatternDetector(embedder, cfg.Matcher.SimilarityThreshold),
		merger:    merge.New(cfg.Merger),
		rules:     ruleEngine,
		store:     store,
		logger:    logger,
	}, nil
}

// HandleTurn processes one message for the session. A blank sessionID
// starts a new session; the returned result carries the id to use on
// the next turn.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	s, mu := e.acquire(sessionID)
	defer mu.Unlock()

	s.RecordTurn(text)

	degraded := false
	ruleCands := e.safeExtract(text)

	var semCands []model.Candidate
	if e.matcher != nil {
		var err error
		semCands, err = e.matcher.Match(ctx, text)
		if err != nil {
			e.logger.Warn("semantic matching unavailable, continuing rule-only",
				"session", s.ID, "error", err)
			semCands = nil
			degraded = true
		}
	}

	s.Case = e.merger.Merge(s.Case, ruleCands, semCands)

	// An affirmative/negative reply to a pending yes/no question
	// settles exactly the asked field, whatever the extractors read
	// into the short text. Applied after the merge so the answer wins.
	if s.State == dialogue.StateAwaitingAnswer && model.IsTriState(s.PendingField) {
		if v := dialogue.InterpretAnswer(text); v != model.TriUnknown {
			merge.ApplyAnswer(s.Case, s.PendingField, v == model.TriTrue)
		}
	}
	s.PendingField = ""

	patterns, err := e.detector.Detect(ctx, text)
	if err != nil {
		e.logger.Warn("pattern detection degraded to literal matching",
			"session", s.ID, "error", err)
		degraded = true
	}
	s.AddPatterns(patterns)

	rec := e.rules.Decide(s.Case)

	result := &TurnResult{
		SessionID:      s.ID,
		Recommendation: &rec,
		Confidence:     confidenceScore(s.Case),
		Degraded:       degraded,
		Contradictions: contradictedFields(s.Case),
		Patterns:       append([]semantic.SpecialPattern(nil), s.Patterns...),
	}

	// An established acute emergency ends the dialogue on the spot:
	// the remaining questions would delay care without changing the
	// recommendation.
	if e.rules.Emergency(rec.AppliedRuleID) {
		s.State = dialogue.StateComplete
	} else if f, q, ok := dialogue.NextQuestion(s); ok {
		s.State = dialogue.StateAwaitingAnswer
		s.PendingField = f
		s.Asked[f]++
		result.NextQuestion = q
		result.AskedField = f
	} else {
		s.State = dialogue.StateComplete
	}
	result.DialogueComplete = s.State == dialogue.StateComplete

	result.Case = s.Case.Clone()
	e.store.Put(s)

	e.logger.Info("turn handled",
		"session", s.ID,
		"state", s.State,
		"rule", rec.AppliedRuleID,
		"urgency", rec.Urgency,
		"degraded", degraded)

	return result, nil
}

// Reset reinitializes the session's case and accumulated patterns,
// keeping its id. Resetting an unknown session is not an error; the
// next turn simply starts fresh.
func (e *Engine) Reset(sessionID string) {
	s, mu := e.acquire(sessionID)
	defer mu.Unlock()

	s.Reset()
	e.store.Put(s)
}

// Session returns a read-only snapshot of a stored session. The copy
// is taken under the session lock so it is safe to marshal while
// concurrent turns mutate the live state.
func (e *Engine) Session(sessionID string) (*dialogue.Session, bool) {
	s, ok := e.store.Get(sessionID)
	if !ok {
		return nil, false
	}
	mu := e.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.Clone(), true
}

// acquire locks the session and loads or creates it. The caller must
// unlock the returned mutex.
func (e *Engine) acquire(sessionID string) (*dialogue.Session, *sync.Mutex) {
	if sessionID == "" {
		s := dialogue.NewSession("")
		mu := e.lock(s.ID)
		mu.Lock()
		e.store.Put(s)
		return s, mu
	}

	mu := e.lock(sessionID)
	mu.Lock()
	s, ok := e.store.Get(sessionID)
	if !ok {
		s = dialogue.NewSession(sessionID)
		e.store.Put(s)
	}
	return s, mu
}

func (e *Engine) lock(sessionID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// safeExtract shields the turn from extractor panics on malformed
// input: a failed extraction is an empty candidate set, never a
// crashed session.
func (e *Engine) safeExtract(text string) (cands []model.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panic recovered", "error", fmt.Sprint(r))
			cands = nil
		}
	}()
	return e.extractor.Extract(text)
}

// confidenceScore is the mean stored confidence over the known fields,
// a rough signal of how settled the case is.
func confidenceScore(c *model.Case) float64 {
	var sum float64
	var n int
	for f, p := range c.Provenance {
		if c.Known(f) {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func contradictedFields(c *model.Case) []model.Field {
	var out []model.Field
	for f, flagged := range c.Contradictions {
		if flagged {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
