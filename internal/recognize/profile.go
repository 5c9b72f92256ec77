package recognize

import (
	"maps"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/form"
)

// AngleType groups left and right variants of a joint angle.
type AngleType string

const (
	Knee          AngleType = "knee"
	Hip           AngleType = "hip"
	Elbow         AngleType = "elbow"
	Shoulder      AngleType = "shoulder"
	BodyAlignment AngleType = "body_alignment"
)

// Range is an inclusive expected angle range in degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Profile is the expected angle configuration of one exercise.
type Profile struct {
	Kind      form.Kind           `json:"exercise"`
	KeyAngles []string            `json:"key_angles"`
	Ranges    map[AngleType]Range `json:"ranges"`
	Weight    float64             `json:"weight"`
}

// Profiles is an ordered set of exercise profiles. Order decides ties.
type Profiles []Profile

// DefaultProfiles returns a fresh copy of the built-in profiles. Callers
// may modify the result freely.
func DefaultProfiles() Profiles {
	return Profiles{
		{
			Kind:      form.Squat,
			KeyAngles: []string{"left_knee", "right_knee", "left_hip", "right_hip"},
			Ranges:    map[AngleType]Range{Knee: {80, 140}, Hip: {60, 120}},
			Weight:    1.0,
		},
		{
			Kind:      form.Pushup,
			KeyAngles: []string{"left_elbow", "right_elbow", "left_shoulder", "right_shoulder"},
			Ranges:    map[AngleType]Range{Elbow: {60, 160}, Shoulder: {0, 45}},
			Weight:    1.0,
		},
		{
			Kind:      form.Plank,
			KeyAngles: []string{"body_alignment_left", "body_alignment_right"},
			Ranges:    map[AngleType]Range{BodyAlignment: {160, 200}},
			Weight:    1.0,
		},
		{
			Kind: form.Lunge,
			KeyAngles: []string{
				"left_knee", "right_knee", "left_hip", "right_hip",
				"body_alignment_left", "body_alignment_right",
			},
			Ranges: map[AngleType]Range{Knee: {60, 150}, Hip: {60, 120}, BodyAlignment: {160, 200}},
			Weight: 1.2,
		},
		{
			Kind: form.Deadlift,
			KeyAngles: []string{
				"left_knee", "right_knee", "left_hip", "right_hip",
				"body_alignment_left", "body_alignment_right",
			},
			Ranges: map[AngleType]Range{Knee: {160, 180}, Hip: {120, 170}, BodyAlignment: {150, 200}},
			Weight: 1.1,
		},
	}
}

// Clone returns a deep copy.
func (ps Profiles) Clone() Profiles {
	out := make(Profiles, len(ps))
	for i, p := range ps {
		p.KeyAngles = append([]string(nil), p.KeyAngles...)
		p.Ranges = maps.Clone(p.Ranges)
		out[i] = p
	}
	return out
}

// AdjustedFor returns a copy of ps adapted to the athlete. High flexibility
// widens every range by 10 degrees on both sides. ps is never modified.
func (ps Profiles) AdjustedFor(u athlete.Profile) Profiles {
	out := ps.Clone()
	if !u.HighFlexibility() {
		return out
	}
	for _, p := range out {
		for t, r := range p.Ranges {
			p.Ranges[t] = Range{Min: r.Min - 10, Max: r.Max + 10}
		}
	}
	return out
}

// Lookup returns the profile for k.
func (ps Profiles) Lookup(k form.Kind) (Profile, bool) {
	for _, p := range ps {
		if p.Kind == k {
			return p, true
		}
	}
	return Profile{}, false
}
