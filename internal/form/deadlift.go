package form

import "github.com/ayusman/formcheck/internal/pose"

// AnalyzeDeadlift checks back rounding, knee bend and early knee lockout.
func AnalyzeDeadlift(f pose.Frame) Report {
	hipL, hipR := left.hipAngle(f), right.hipAngle(f)
	kneeL, kneeR := left.kneeAngle(f), right.kneeAngle(f)
	bodyL, bodyR := left.bodyAngle(f), right.bodyAngle(f)
	angles := Angles{
		"hip_left":   hipL,
		"hip_right":  hipR,
		"knee_left":  kneeL,
		"knee_right": kneeR,
		"body_left":  bodyL,
		"body_right": bodyR,
	}

	var mistakes []Mistake

	if body, ok := mean2(bodyL, bodyR); ok && body < 160 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Rounded back (spinal flexion)",
			Severity: SeveritySevere,
			Fix:      "Keep back straight and chest up, engage core",
		})
	}

	if knee, ok := mean2(kneeL, kneeR); ok && knee < 140 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Too much knee bend (squatting the weight)",
			Severity: SeverityModerate,
			Fix:      "Start with less knee bend, focus on hip hinge",
		})
	}

	kl, kr, kneesOK := pose.Both(kneeL, kneeR)
	hl, hr, hipsOK := pose.Both(hipL, hipR)
	if kneesOK && hipsOK && kl > 175 && kr > 175 && (hl < 150 || hr < 150) {
		mistakes = append(mistakes, Mistake{
			Issue:    "Knees extending too early",
			Severity: SeverityModerate,
			Fix:      "Maintain knee position longer, extend hips and knees together",
		})
	}

	return newReport(angles, mistakes)
}
