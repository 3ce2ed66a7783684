package model

import "fmt"

// Candidate is one (field, value) proposal produced by an extraction
// stage for the current turn. Candidates are ephemeral: they exist
// only between extraction and merge, never across turns.
//
// Value conventions by field:
//   - red-flag fields: bool
//   - onset/profile/sex/headache_profile: the matching enum string
//   - age/intensity: int
//   - duration_hours: float64
type Candidate struct {
	Field      Field   `json:"field"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	Term       string  `json:"term"` // the surface text that matched
	Source     Source  `json:"source"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s=%v (%.2f, %s, %q)", c.Field, c.Value, c.Confidence, c.Source, c.Term)
}

// SameValue compares candidate values for equality. Float comparison
// tolerates rounding from unit conversion.
func SameValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		d := af - bf
		return d < 0.001 && d > -0.001
	}
	return a == b
}
