package form

import (
	"math"

	"github.com/ayusman/formcheck/internal/pose"
)

// AnalyzeLunge checks front knee travel and depth. The left leg is the
// front leg.
func AnalyzeLunge(f pose.Frame) Report {
	kneeL, kneeR := left.kneeAngle(f), right.kneeAngle(f)
	angles := Angles{
		"knee_left":      kneeL,
		"knee_right":     kneeR,
		"body_alignment": left.bodyAngle(f),
	}

	var mistakes []Mistake

	kx, kok := f.X(pose.LeftKnee)
	ax, aok := f.X(pose.LeftAnkle)
	if kok && aok && math.Abs(kx-ax) > 0.05 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Front knee over toes",
			Severity: SeverityModerate,
			Fix:      "Keep front knee aligned over ankle",
		})
	}

	if kl, kr, ok := pose.Both(kneeL, kneeR); ok && (kl > 120 || kr > 120) {
		mistakes = append(mistakes, Mistake{
			Issue:    "Insufficient lunge depth",
			Severity: SeverityMinor,
			Fix:      "Lower until front thigh is parallel to floor",
		})
	}

	return newReport(angles, mistakes)
}
