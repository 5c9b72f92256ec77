// Package form provides rule-based exercise form analysis over a single pose frame.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/formcheck/internal/pose"
)

// ErrUnknownKind is returned when an exercise label does not name a supported exercise.
var ErrUnknownKind = errors.New("unknown exercise")

// Kind identifies one of the supported exercises. The zero value is no exercise.
type Kind uint8

const (
	// None means no exercise was detected or requested.
	None Kind = iota
	Squat
	Pushup
	Deadlift
	Plank
	Lunge
)

var kindNames = [...]string{
	None:     "",
	Squat:    "squat",
	Pushup:   "pushup",
	Deadlift: "deadlift",
	Plank:    "plank",
	Lunge:    "lunge",
}

// Analyzer maps one frame to a form report.
type Analyzer func(f pose.Frame) Report

// analyzers is the mapping table from kind to analyzer.
var analyzers = map[Kind]Analyzer{
	Squat:    AnalyzeSquat,
	Pushup:   AnalyzePushup,
	Deadlift: AnalyzeDeadlift,
	Plank:    AnalyzePlank,
	Lunge:    AnalyzeLunge,
}

// Kinds returns every supported exercise.
func Kinds() []Kind {
	return []Kind{Squat, Pushup, Deadlift, Plank, Lunge}
}

// ParseKind resolves a label case-insensitively. "push-up" is accepted as
// an alias of "pushup".
func ParseKind(label string) (Kind, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "push-up" {
		s = "pushup"
	}
	for _, k := range Kinds() {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownKind, label)
}

// Valid reports whether k is one of the supported exercises.
func (k Kind) Valid() bool {
	_, ok := analyzers[k]
	return ok
}

// String returns the lowercase label, or "unknown" for None.
func (k Kind) String() string {
	if int(k) >= len(kindNames) || k == None {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind as its label.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a label. Empty and "unknown" decode to None.
func (k *Kind) UnmarshalText(data []byte) error {
	s := string(data)
	if s == "" || s == "unknown" {
		*k = None
		return nil
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
