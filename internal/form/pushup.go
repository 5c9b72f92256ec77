package form

import (
	"math"

	"github.com/ayusman/formcheck/internal/pose"
)

// AnalyzePushup checks body line, hip height, elbow flare and range of motion.
func AnalyzePushup(f pose.Frame) Report {
	elbowL, elbowR := left.elbowAngle(f), right.elbowAngle(f)
	bodyL, bodyR := left.bodyAngle(f), right.bodyAngle(f)
	angles := Angles{
		"elbow_left":           elbowL,
		"elbow_right":          elbowR,
		"body_alignment_left":  bodyL,
		"body_alignment_right": bodyR,
	}

	var mistakes []Mistake

	if body, ok := mean2(bodyL, bodyR); ok && body < 175 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Sagging hips / arched back",
			Severity: SeverityModerate,
			Fix:      "Engage core and glutes to maintain straight line",
		})
	}

	if hipsRaised(f) {
		mistakes = append(mistakes, Mistake{
			Issue:    "Raised buttocks",
			Severity: SeverityModerate,
			Fix:      "Lower hips to maintain straight line",
		})
	}

	if elbow, ok := mean2(elbowL, elbowR); ok {
		if m, bad := elbowFlare(elbow); bad {
			mistakes = append(mistakes, m)
		}
	}

	if el, er, ok := pose.Both(elbowL, elbowR); ok && math.Min(el, er) > 90 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Incomplete range of motion",
			Severity: SeverityMinor,
			Fix:      "Lower chest closer to ground",
		})
	}

	return newReport(angles, mistakes)
}

// elbowFlare grades the mean elbow angle. Anything in [45, 90] is acceptable.
func elbowFlare(elbow float64) (Mistake, bool) {
	switch {
	case elbow < 45:
		return Mistake{
			Issue:    "Elbows tucked too close to body",
			Severity: SeverityMinor,
			Fix:      "Keep elbows at ~45 degrees from body",
		}, true
	case elbow > 90:
		return Mistake{
			Issue:    "Elbows flaring outward",
			Severity: SeverityModerate,
			Fix:      "Keep elbows at ~45 degrees from body",
		}, true
	}
	return Mistake{}, false
}
