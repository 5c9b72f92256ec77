package form

import (
	"fmt"
	"strings"
)

var preferredAngles = []string{
	"knee_left", "knee_right", "hip_left", "hip_right",
	"body_alignment_left", "body_alignment_right",
	"left_elbow", "right_elbow", "left_shoulder", "right_shoulder",
}

// Summarize renders a short plain-text summary of a report with at most
// maxAngles angles and maxMistakes mistakes.
func Summarize(r Report, maxAngles, maxMistakes int) string {
	var b strings.Builder
	b.WriteString("Local posture analysis summary\n")
	severity := r.Severity
	if severity == "" {
		severity = SeverityGood
	}
	fmt.Fprintf(&b, "- Severity: %s", severity)

	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if len(names) >= maxAngles || seen[name] {
			return
		}
		if a, ok := r.Angles[name]; ok && a.Valid() {
			names = append(names, name)
			seen[name] = true
		}
	}
	for _, name := range preferredAngles {
		add(name)
	}
	for _, name := range r.Angles.Keys() {
		add(name)
	}

	if len(names) > 0 {
		b.WriteString("\nAngles:")
		for _, name := range names {
			v, _ := r.Angles[name].Value()
			fmt.Fprintf(&b, "\n- %s: %.1f°", name, v)
		}
	}

	mistakes := r.Mistakes[:min(max(maxMistakes, 0), len(r.Mistakes))]
	if len(mistakes) > 0 {
		b.WriteString("\nTop issues:")
		for _, m := range mistakes {
			fmt.Fprintf(&b, "\n- [%s] %s", m.Severity, m.Issue)
			if m.Fix != "" {
				fmt.Fprintf(&b, " | Fix: %s", m.Fix)
			}
		}
	}
	return b.String()
}
