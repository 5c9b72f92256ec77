package form

import "github.com/ayusman/formcheck/internal/pose"

// AnalyzeSquat checks knee valgus, depth, forward lean and heel lift.
func AnalyzeSquat(f pose.Frame) Report {
	hipL, hipR := left.hipAngle(f), right.hipAngle(f)
	kneeL, kneeR := left.kneeAngle(f), right.kneeAngle(f)
	angles := Angles{
		"hip_left":   hipL,
		"hip_right":  hipR,
		"knee_left":  kneeL,
		"knee_right": kneeR,
	}

	var mistakes []Mistake

	if kl, kr, ok := pose.Both(kneeL, kneeR); ok {
		lx, lok := f.X(pose.LeftKnee)
		rx, rok := f.X(pose.RightKnee)
		if lok && rok && lx < rx {
			mistakes = append(mistakes, Mistake{
				Issue:    "Knee Valgus (knees caving inward)",
				Severity: SeveritySevere,
				Fix:      "Push knees out over toes, strengthen glutes",
			})
		}

		if kl > 120 && kr > 120 {
			mistakes = append(mistakes, Mistake{
				Issue:    "Insufficient squat depth",
				Severity: SeverityModerate,
				Fix:      "Lower until thighs are parallel to floor",
			})
		}
	}

	if hip, ok := mean2(hipL, hipR); ok && hip > 160 {
		mistakes = append(mistakes, Mistake{
			Issue:    "Excessive forward lean",
			Severity: SeverityModerate,
			Fix:      "Keep chest up and back straight",
		})
	}

	if heelsLifting(f) {
		mistakes = append(mistakes, Mistake{
			Issue:    "Heels lifting off ground",
			Severity: SeverityModerate,
			Fix:      "Keep entire foot on ground, shift weight to heels",
		})
	}

	return newReport(angles, mistakes)
}

// heelsLifting needs both heels and both ankles.
func heelsLifting(f pose.Frame) bool {
	lh, rh := f.Point(left.heel), f.Point(right.heel)
	la, ra := f.Point(left.ankle), f.Point(right.ankle)
	if !lh.Valid() || !rh.Valid() || !la.Valid() || !ra.Valid() {
		return false
	}
	return lh.Z > la.Z+0.01 || rh.Z > ra.Z+0.01
}
