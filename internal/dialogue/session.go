// Package dialogue owns the per-session conversation state: the
// accumulated case, the turn history, the append-only list of detected
// special patterns, and the question the clinician assistant is
// currently waiting on. It decides what to ask next; the pipeline
// decides what the text means.
package dialogue

import (
	"time"

	"github.com/google/uuid"

	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/semantic"
)

// State is the dialogue position of a session.
type State string

const (
	StateAwaitingFirstMessage State = "awaiting_first_message"
	StateExtracting           State = "extracting"
	StateAwaitingAnswer       State = "awaiting_answer"
	StateComplete             State = "complete"
)

// Turn is one exchanged message, kept as read-only history.
type Turn struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is one patient encounter. It is mutated only under the
// pipeline's per-session lock.
type Session struct {
	ID       string                    `json:"id"`
	Case     *model.Case               `json:"case"`
	Turns    []Turn                    `json:"turns"`
	Patterns []semantic.SpecialPattern `json:"patterns,omitempty"`
	State    State                     `json:"state"`

	// PendingField is set while State is awaiting_answer.
	PendingField model.Field `json:"pending_field,omitempty"`

	// Asked counts how many times each field has been asked about, so
	// the dialogue gives up on a field the patient cannot answer.
	Asked map[model.Field]int `json:"asked,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session. A blank id gets a fresh UUID.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Case:      model.NewCase(),
		State:     StateAwaitingFirstMessage,
		Asked:     make(map[model.Field]int),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone deep-copies the session so a snapshot can be read outside the
// pipeline's per-session lock while turns keep mutating the original.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Case = s.Case.Clone()
	cp.Turns = append([]Turn(nil), s.Turns...)
	cp.Patterns = append([]semantic.SpecialPattern(nil), s.Patterns...)
	cp.Asked = make(map[model.Field]int, len(s.Asked))
	for f, n := range s.Asked {
		cp.Asked[f] = n
	}
	return &cp
}

// RecordTurn appends the raw message to the history.
func (s *Session) RecordTurn(text string) {
	now := time.Now()
	s.Turns = append(s.Turns, Turn{Text: text, At: now})
	s.UpdatedAt = now
}

// AddPatterns appends newly detected special patterns, deduplicated by
// type. The list is append-only: a pattern seen on an earlier turn
// stays even when later turns never mention it again.
func (s *Session) AddPatterns(found []semantic.SpecialPattern) {
	for _, p := range found {
		seen := false
		for _, have := range s.Patterns {
			if have.Type == p.Type {
				seen = true
				break
			}
		}
		if !seen {
			s.Patterns = append(s.Patterns, p)
		}
	}
}

// Reset reinitializes the case, history and accumulated patterns while
// keeping the session id.
func (s *Session) Reset() {
	s.Case = model.NewCase()
	s.Turns = nil
	s.Patterns = nil
	s.State = StateAwaitingFirstMessage
	s.PendingField = ""
	s.Asked = make(map[model.Field]int)
	s.UpdatedAt = time.Now()
}
