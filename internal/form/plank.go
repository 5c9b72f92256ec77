package form

import "github.com/ayusman/formcheck/internal/pose"

// AnalyzePlank checks the shoulder-hip-ankle line and hip height.
func AnalyzePlank(f pose.Frame) Report {
	bodyL, bodyR := left.bodyAngle(f), right.bodyAngle(f)
	angles := Angles{
		"body_alignment_left":  bodyL,
		"body_alignment_right": bodyR,
	}

	var mistakes []Mistake

	if body, ok := mean2(bodyL, bodyR); ok && body < 175 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Hips sagging / arched back",
			Severity: SeverityModerate,
			Fix:      "Engage core, squeeze glutes, maintain straight line",
		})
	}

	if hipsRaised(f) {
		mistakes = append(mistakes, Mistake{
			Issue:    "Buttocks raised too high",
			Severity: SeverityModerate,
			Fix:      "Lower hips to shoulder level, maintain straight line",
		})
	}

	return newReport(angles, mistakes)
}
