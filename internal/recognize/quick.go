// Package recognize identifies which exercise a stream of pose frames shows.
package recognize

import (
	"math"

	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
)

// QuickDetect guesses the exercise from a single frame. It is a priority
// ordered decision list: the first matching branch wins. It returns
// form.None when no branch matches.
func QuickDetect(f pose.Frame) form.Kind {
	kneeL := f.AngleAt(pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	kneeR := f.AngleAt(pose.RightHip, pose.RightKnee, pose.RightAnkle)
	bodyL := f.AngleAt(pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle)
	bodyR := f.AngleAt(pose.RightShoulder, pose.RightHip, pose.RightAnkle)
	elbowL := f.AngleAt(pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
	elbowR := f.AngleAt(pose.RightShoulder, pose.RightElbow, pose.RightWrist)

	body, hasBody := pose.Mean(bodyL, bodyR)
	if hasBody && body >= 170 {
		if elbow, ok := pose.Mean(elbowL, elbowR); ok && elbow < 160 {
			return form.Pushup
		}
		return form.Plank
	}

	kl, kr, bothKnees := pose.Both(kneeL, kneeR)
	if bothKnees && kl < 140 && kr < 140 {
		return form.Squat
	}

	if bothKnees && math.Abs(kl-kr) > 15 {
		return form.Lunge
	}
	if offset(f, pose.LeftKnee, pose.LeftAnkle) > 0.06 || offset(f, pose.RightKnee, pose.RightAnkle) > 0.06 {
		return form.Lunge
	}

	if minKnee, ok := minAngle(kneeL, kneeR); ok && minKnee >= 140 && hasBody && body < 170 {
		return form.Deadlift
	}

	return form.None
}

// offset returns the horizontal distance between two joints, or -1 if
// either is missing.
func offset(f pose.Frame, a, b pose.Joint) float64 {
	ax, aok := f.X(a)
	bx, bok := f.X(b)
	if !aok || !bok {
		return -1
	}
	return math.Abs(ax - bx)
}

func minAngle(angles ...pose.Angle) (float64, bool) {
	m, found := math.Inf(1), false
	for _, a := range angles {
		if v, ok := a.Value(); ok {
			m = math.Min(m, v)
			found = true
		}
	}
	return m, found
}
