package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field identifies one slot of the structured clinical case.
type Field string

const (
	FieldAge                 Field = "age"
	FieldSex                 Field = "sex"
	FieldOnset               Field = "onset"
	FieldProfile             Field = "profile"
	FieldDurationHours       Field = "duration_hours"
	FieldIntensity           Field = "intensity"
	FieldFever               Field = "fever"
	FieldMeningealSigns      Field = "meningeal_signs"
	FieldNeuroDeficit        Field = "neuro_deficit"
	FieldSeizure             Field = "seizure"
	FieldHTICPattern         Field = "htic_pattern"
	FieldTrauma              Field = "trauma"
	FieldPregnancyPostpartum Field = "pregnancy_postpartum"
	FieldImmunosuppression   Field = "immunosuppression"
	FieldRecentPL            Field = "recent_pl_or_peridural"
	FieldPatternChange       Field = "recent_pattern_change"
	FieldCancerHistory       Field = "cancer_history"
	FieldHeadacheProfile     Field = "headache_profile"
)

// TriStateFields lists the red-flag booleans in clinical-severity order.
// The dialogue controller asks about them in this order.
var TriStateFields = []Field{
	FieldFever,
	FieldMeningealSigns,
	FieldNeuroDeficit,
	FieldSeizure,
	FieldHTICPattern,
	FieldTrauma,
	FieldRecentPL,
	FieldPregnancyPostpartum,
	FieldImmunosuppression,
	FieldCancerHistory,
	FieldPatternChange,
}

// TriState is a three-valued boolean: a red flag is unknown until the
// text or an explicit answer settles it one way or the other.
type TriState int

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

// Known reports whether the value has been settled.
func (t TriState) Known() bool { return t != TriUnknown }

// MarshalJSON encodes unknown as null so downstream consumers cannot
// mistake an unasked red flag for an absent one.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case TriTrue:
		return []byte("true"), nil
	case TriFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")):
		*t = TriTrue
	case bytes.Equal(data, []byte("false")):
		*t = TriFalse
	case bytes.Equal(data, []byte("null")):
		*t = TriUnknown
	default:
		return fmt.Errorf("invalid tri-state value: %s", data)
	}
	return nil
}

// Sex of the patient.
type Sex string

const (
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
	SexOther   Sex = "Other"
	SexUnknown Sex = "unknown"
)

// Onset is the qualitative mode of headache appearance.
type Onset string

const (
	OnsetThunderclap Onset = "thunderclap"
	OnsetProgressive Onset = "progressive"
	OnsetChronic     Onset = "chronic"
	OnsetUnknown     Onset = "unknown"
)

// Profile is the temporal classification of the episode.
type Profile string

const (
	ProfileAcute    Profile = "acute"
	ProfileSubacute Profile = "subacute"
	ProfileChronic  Profile = "chronic"
	ProfileUnknown  Profile = "unknown"
)

// HeadacheProfile is the descriptive phenotype of the pain.
type HeadacheProfile string

const (
	HeadacheMigraineLike HeadacheProfile = "migraine_like"
	HeadacheTensionLike  HeadacheProfile = "tension_like"
	HeadacheUnknown      HeadacheProfile = "unknown"
)

// Source tags where an extraction candidate came from.
type Source string

const (
	SourceRule      Source = "rule"      // deterministic pattern
	SourceEmbedding Source = "embedding" // semantic vocabulary match
	SourceAnswer    Source = "answer"    // explicit yes/no dialogue answer
)

// Provenance records how a field got its current value.
type Provenance struct {
	Confidence float64 `json:"confidence"`
	Term       string  `json:"term,omitempty"`
	Source     Source  `json:"source"`
}

// Sentinel values for numeric fields that have not been extracted yet.
const (
	AgeUnknown       = 0
	IntensityUnknown = -1
	DurationUnknown  = -1.0
)

// Case is the structured clinical record for one encounter. It is
// created empty at session start and mutated only by the merger (and
// by explicit dialogue answers).
type Case struct {
	Age           int     `json:"age,omitempty"`
	Sex           Sex     `json:"sex"`
	Onset         Onset   `json:"onset"`
	Profile       Profile `json:"profile"`
	DurationHours float64 `json:"duration_hours,omitempty"`
	Intensity     int     `json:"intensity"`

	Fever               TriState `json:"fever"`
	MeningealSigns      TriState `json:"meningeal_signs"`
	NeuroDeficit        TriState `json:"neuro_deficit"`
	Seizure             TriState `json:"seizure"`
	HTICPattern         TriState `json:"htic_pattern"`
	Trauma              TriState `json:"trauma"`
	PregnancyPostpartum TriState `json:"pregnancy_postpartum"`
	Immunosuppression   TriState `json:"immunosuppression"`
	RecentPLOrPeridural TriState `json:"recent_pl_or_peridural"`
	RecentPatternChange TriState `json:"recent_pattern_change"`
	CancerHistory       TriState `json:"cancer_history"`

	HeadacheProfile HeadacheProfile `json:"headache_profile"`

	Provenance     map[Field]Provenance `json:"provenance,omitempty"`
	Contradictions map[Field]bool       `json:"contradictions,omitempty"`
}

// NewCase returns an empty case with every field at its unknown value.
func NewCase() *Case {
	return &Case{
		Sex:             SexUnknown,
		Onset:           OnsetUnknown,
		Profile:         ProfileUnknown,
		DurationHours:   DurationUnknown,
		Intensity:       IntensityUnknown,
		HeadacheProfile: HeadacheUnknown,
		Provenance:      make(map[Field]Provenance),
		Contradictions:  make(map[Field]bool),
	}
}

// Clone deep-copies the case so a turn's merge can be committed or
// discarded atomically.
func (c *Case) Clone() *Case {
	cp := *c
	cp.Provenance = make(map[Field]Provenance, len(c.Provenance))
	for k, v := range c.Provenance {
		cp.Provenance[k] = v
	}
	cp.Contradictions = make(map[Field]bool, len(c.Contradictions))
	for k, v := range c.Contradictions {
		cp.Contradictions[k] = v
	}
	return &cp
}

// TriState returns the tri-state value for a red-flag field.
func (c *Case) TriState(f Field) TriState {
	switch f {
	case FieldFever:
		return c.Fever
	case FieldMeningealSigns:
		return c.MeningealSigns
	case FieldNeuroDeficit:
		return c.NeuroDeficit
	case FieldSeizure:
		return c.Seizure
	case FieldHTICPattern:
		return c.HTICPattern
	case FieldTrauma:
		return c.Trauma
	case FieldPregnancyPostpartum:
		return c.PregnancyPostpartum
	case FieldImmunosuppression:
		return c.Immunosuppression
	case FieldRecentPL:
		return c.RecentPLOrPeridural
	case FieldPatternChange:
		return c.RecentPatternChange
	case FieldCancerHistory:
		return c.CancerHistory
	}
	return TriUnknown
}

// SetTriState sets a red-flag field. Unknown fields are silently
// ignored so merge code can route on Field values alone.
func (c *Case) SetTriState(f Field, v TriState) {
	switch f {
	case FieldFever:
		c.Fever = v
	case FieldMeningealSigns:
		c.MeningealSigns = v
	case FieldNeuroDeficit:
		c.NeuroDeficit = v
	case FieldSeizure:
		c.Seizure = v
	case FieldHTICPattern:
		c.HTICPattern = v
	case FieldTrauma:
		c.Trauma = v
	case FieldPregnancyPostpartum:
		c.PregnancyPostpartum = v
	case FieldImmunosuppression:
		c.Immunosuppression = v
	case FieldRecentPL:
		c.RecentPLOrPeridural = v
	case FieldPatternChange:
		c.RecentPatternChange = v
	case FieldCancerHistory:
		c.CancerHistory = v
	}
}

// IsTriState reports whether the field is one of the red-flag booleans.
func IsTriState(f Field) bool {
	for _, t := range TriStateFields {
		if t == f {
			return true
		}
	}
	return false
}

// Known reports whether the field currently holds a usable value. A
// field with a pending contradiction is not known: it must stay
// unresolved until an explicit answer clarifies it.
func (c *Case) Known(f Field) bool {
	if c.Contradictions[f] {
		return false
	}
	switch f {
	case FieldAge:
		return c.Age != AgeUnknown
	case FieldSex:
		return c.Sex != SexUnknown
	case FieldOnset:
		return c.Onset != OnsetUnknown
	case FieldProfile:
		return c.Profile != ProfileUnknown
	case FieldDurationHours:
		return c.DurationHours >= 0
	case FieldIntensity:
		return c.Intensity >= 0
	case FieldHeadacheProfile:
		return c.HeadacheProfile != HeadacheUnknown
	default:
		return c.TriState(f).Known()
	}
}

// Confidence returns the stored confidence for a field, 0 if unset.
func (c *Case) Confidence(f Field) float64 {
	return c.Provenance[f].Confidence
}

// RedFlags returns the red-flag fields currently known true, in
// clinical-severity order. Thunderclap onset counts as a red flag.
func (c *Case) RedFlags() []Field {
	var flags []Field
	if c.Onset == OnsetThunderclap {
		flags = append(flags, FieldOnset)
	}
	for _, f := range TriStateFields {
		if c.TriState(f) == TriTrue {
			flags = append(flags, f)
		}
	}
	return flags
}

// String renders a compact one-line summary, useful in verbose traces.
func (c *Case) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("case<%v>", err)
	}
	return string(b)
}
