// Package athlete describes the person being observed. Recognition and
// fatigue scoring adapt to it.
package athlete

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultAge is assumed when the age is not known.
const DefaultAge = 30

// Flexibility levels.
const (
	FlexibilityLow    = "low"
	FlexibilityNormal = "normal"
	FlexibilityHigh   = "high"
)

// ErrInvalidProfile is returned by Validate.
var ErrInvalidProfile = errors.New("invalid athlete profile")

// Profile holds the user attributes that tune the analysis.
type Profile struct {
	Flexibility string `json:"flexibility,omitempty" toml:"flexibility"`
	Age         *int   `json:"age,omitempty" toml:"age"`
}

// Age returns a pointer to years for use in Profile literals.
func Age(years int) *int {
	return &years
}

// Clone returns a copy that shares no memory with p.
func (p Profile) Clone() Profile {
	if p.Age != nil {
		p.Age = Age(*p.Age)
	}
	return p
}

// HighFlexibility reports whether expected angle ranges should be widened.
func (p Profile) HighFlexibility() bool {
	return strings.EqualFold(p.Flexibility, FlexibilityHigh)
}

// EffectiveAge returns the age, or DefaultAge when it is not set. An
// explicit zero is kept.
func (p Profile) EffectiveAge() int {
	if p.Age == nil {
		return DefaultAge
	}
	return *p.Age
}

// Validate checks the flexibility level and age.
func (p Profile) Validate() error {
	switch strings.ToLower(p.Flexibility) {
	case "", FlexibilityLow, FlexibilityNormal, FlexibilityHigh:
	default:
		return fmt.Errorf("%w: flexibility %q", ErrInvalidProfile, p.Flexibility)
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 120) {
		return fmt.Errorf("%w: age %d", ErrInvalidProfile, *p.Age)
	}
	return nil
}
