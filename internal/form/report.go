package form

import (
	"maps"
	"slices"

	"github.com/ayusman/formcheck/internal/pose"
)

// Severity ranks a mistake or a whole report.
type Severity string

const (
	SeverityGood     Severity = "good"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Mistake is one form issue found in a frame.
type Mistake struct {
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
	Fix      string   `json:"fix"`
}

// Angles maps angle names to values; undefined angles encode as null.
type Angles map[string]pose.Angle

// Keys returns the angle names sorted.
func (a Angles) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Report is the form assessment of one frame.
type Report struct {
	Angles   Angles    `json:"angles"`
	Mistakes []Mistake `json:"mistakes"`
	Severity Severity  `json:"severity"`
}

// newReport builds a report and aggregates its severity: severe if any
// mistake is severe, moderate if there is any mistake, good otherwise.
func newReport(angles Angles, mistakes []Mistake) Report {
	if mistakes == nil {
		mistakes = []Mistake{}
	}
	return Report{
		Angles:   angles,
		Mistakes: mistakes,
		Severity: aggregate(mistakes),
	}
}

func aggregate(mistakes []Mistake) Severity {
	if len(mistakes) == 0 {
		return SeverityGood
	}
	for _, m := range mistakes {
		if m.Severity == SeveritySevere {
			return SeveritySevere
		}
	}
	return SeverityModerate
}

// Has reports whether the report contains a mistake with the given issue text.
func (r Report) Has(issue string) bool {
	return slices.ContainsFunc(r.Mistakes, func(m Mistake) bool {
		return m.Issue == issue
	})
}
