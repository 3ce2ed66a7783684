package model

// Category is the clinical priority group of a rule. Lower priority
// values are evaluated first: a life-threatening category must always
// win over a benign one, whatever the file order.
type Category string

const (
	CategoryAcuteEmergency    Category = "acute_emergency"
	CategoryUrgentConditions  Category = "urgent_conditions"
	CategoryDelayedEvaluation Category = "delayed_evaluation"
	CategoryBenignPrimary     Category = "benign_primary"
	CategoryChronicEvaluation Category = "chronic_evaluation"
)

// Priority returns the evaluation rank of the category, 0 first.
func (c Category) Priority() int {
	switch c {
	case CategoryAcuteEmergency:
		return 0
	case CategoryUrgentConditions:
		return 1
	case CategoryDelayedEvaluation:
		return 2
	case CategoryBenignPrimary:
		return 3
	case CategoryChronicEvaluation:
		return 4
	default:
		return 5
	}
}

// Valid reports whether the category is one of the known groups.
func (c Category) Valid() bool { return c.Priority() < 5 }

// Urgency is the recommendation severity tier.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyDelayed   Urgency = "delayed"
	UrgencyNone      Urgency = "none"
)

// Priority returns the tie-break rank of the urgency, 0 first.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyImmediate:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyDelayed:
		return 2
	case UrgencyNone:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the urgency is one of the known tiers.
func (u Urgency) Valid() bool { return u.Priority() < 4 }

// PredicateKind is the closed set of comparisons a rule may use.
type PredicateKind string

const (
	PredEquals  PredicateKind = "equals"   // enum field == Value
	PredIsTrue  PredicateKind = "is_true"  // tri-state field settled true
	PredIsFalse PredicateKind = "is_false" // tri-state field settled false
	PredAtLeast PredicateKind = "at_least" // numeric field >= Threshold
	PredAtMost  PredicateKind = "at_most"  // numeric field <= Threshold
	PredIsKnown PredicateKind = "is_known" // field holds any settled value
)

// Predicate is one condition of a rule. A predicate over a field that
// is still unknown never matches: unknowns are not false.
type Predicate struct {
	Field     Field         `yaml:"field" json:"field"`
	Kind      PredicateKind `yaml:"kind" json:"kind"`
	Value     string        `yaml:"value,omitempty" json:"value,omitempty"`
	Threshold float64       `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Rule is one row of the clinical decision table. Rules are immutable
// configuration: loaded once, sorted once, never mutated at runtime.
type Rule struct {
	ID         string      `yaml:"id" json:"id"`
	Category   Category    `yaml:"category" json:"category"`
	Urgency    Urgency     `yaml:"urgency" json:"urgency"`
	Predicates []Predicate `yaml:"predicates" json:"predicates"`
	Imaging    []string    `yaml:"imaging" json:"imaging"`
	Comment    string      `yaml:"comment" json:"comment"`
}

// Recommendation is the outcome of a rules-engine evaluation. It is
// recomputed fresh from the case every turn, never partially mutated.
type Recommendation struct {
	Urgency       Urgency  `json:"urgency"`
	Imaging       []string `json:"imaging"`
	Comment       string   `json:"comment"`
	AppliedRuleID string   `json:"applied_rule_id"`
}
