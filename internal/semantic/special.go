package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/plarroque/cephalo/internal/textnorm"
)

// PatternType identifies a diagnostically notable presentation that is
// surfaced to the clinician even when it does not drive a rule by
// itself.
type PatternType string

const (
	PatternTrigeminalNeuralgia PatternType = "nevralgie_trijumeau"
	PatternClusterHeadache     PatternType = "algie_vasculaire_face"
	PatternPositionalHeadache  PatternType = "cephalee_positionnelle"
)

// SpecialPattern is one detected presentation. Accumulated patterns
// are append-only across a dialogue session.
type SpecialPattern struct {
	Type        PatternType `json:"type"`
	Description string      `json:"description"`
	MatchedText string      `json:"matched_text"`
	Similarity  float64     `json:"similarity"`
	Imaging     []string    `json:"imaging,omitempty"`
}

type patternDef struct {
	typ         PatternType
	description string
	// literals are distinctive substrings checked on the folded text;
	// prototypes feed the embedding path for looser phrasings.
	literals   []string
	prototypes []string
	imaging    []string
}

var patternDefs = []patternDef{
	{
		typ:         PatternTrigeminalNeuralgia,
		description: "Douleur faciale paroxystique évocatrice de névralgie du trijumeau",
		literals:    []string{"decharge electrique", "decharges electriques", "fulgurante"},
		prototypes: []string{
			"decharge electrique dans le visage",
			"douleur faciale comme une decharge electrique",
			"douleur fulgurante declenchee en parlant",
			"douleur declenchee par la mastication",
		},
		imaging: []string{"irm_cerebrale"},
	},
	{
		typ:         PatternClusterHeadache,
		description: "Crises périorbitaires courtes évocatrices d'algie vasculaire de la face",
		literals:    []string{"larmoiement", "periorbitaire", "derriere l'oeil"},
		prototypes: []string{
			"douleur autour de l'oeil avec larmoiement",
			"crises courtes derriere l'oeil",
			"oeil rouge qui pleure pendant la crise",
			"douleur periorbitaire nocturne a heure fixe",
		},
		imaging: []string{"irm_cerebrale"},
	},
	{
		typ:         PatternPositionalHeadache,
		description: "Céphalée positionnelle évocatrice d'hypotension intracrânienne",
		literals:    []string{"positionnelle", "en decubitus", "soulagee allongee", "pire debout"},
		prototypes: []string{
			"cephalee qui disparait allongee",
			"mal de tete uniquement debout",
			"soulagement complet en decubitus",
		},
	},
}

// PatternDetector matches turn text against the special presentation
// prototypes, by substring when the wording is literal and by
// embedding similarity otherwise.
type PatternDetector struct {
	embedder  Embedder
	threshold float64
}

// NewPatternDetector builds a detector. Threshold applies to the
// embedding path; literal substring hits always match.
func NewPatternDetector(embedder Embedder, threshold float64) *PatternDetector {
	return &PatternDetector{embedder: embedder, threshold: threshold}
}

// Detect returns the patterns present in text, at most one per type.
// Embedder failures fall back to substring matching only.
func (d *PatternDetector) Detect(ctx context.Context, text string) ([]SpecialPattern, error) {
	norm := textnorm.Normalize(text, false)
	if norm == "" {
		return nil, nil
	}

	var out []SpecialPattern
	matched := make(map[PatternType]bool)

	for _, def := range patternDefs {
		for _, lit := range def.literals {
			if strings.Contains(norm, lit) {
				out = append(out, SpecialPattern{
					Type:        def.typ,
					Description: def.description,
					MatchedText: lit,
					Similarity:  1.0,
					Imaging:     def.imaging,
				})
				matched[def.typ] = true
				break
			}
		}
	}

	if d.embedder == nil {
		return out, nil
	}

	// Embedding pass on the whole normalized turn against every
	// prototype of the still-unmatched patterns.
	var pending []string
	var owners []patternDef
	for _, def := range patternDefs {
		if matched[def.typ] {
			continue
		}
		for _, proto := range def.prototypes {
			pending = append(pending, proto)
			owners = append(owners, def)
		}
	}
	if len(pending) == 0 {
		return out, nil
	}

	vecs, err := d.embedder.Vectors(ctx, append([]string{norm}, pending...))
	if err != nil {
		return out, fmt.Errorf("embedding special patterns: %w", err)
	}
	if len(vecs) != len(pending)+1 {
		return out, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(pending)+1)
	}

	textVec := vecs[0]
	best := make(map[PatternType]SpecialPattern)
	for i, proto := range pending {
		sim := cosine(textVec, vecs[i+1])
		if sim < d.threshold {
			continue
		}
		def := owners[i]
		if prev, ok := best[def.typ]; ok && prev.Similarity >= sim {
			continue
		}
		best[def.typ] = SpecialPattern{
			Type:        def.typ,
			Description: def.description,
			MatchedText: proto,
			Similarity:  sim,
			Imaging:     def.imaging,
		}
	}
	for _, def := range patternDefs {
		if p, ok := best[def.typ]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
