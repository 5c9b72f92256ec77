package form

import (
	"fmt"

	"github.com/ayusman/formcheck/internal/pose"
)

// AllAngles returns the named angles of a frame used when no exercise is
// known. Undefined angles are left out.
func AllAngles(f pose.Frame) Angles {
	named := []struct {
		name    string
		a, b, c pose.Joint
	}{
		{"left_shoulder", pose.LeftElbow, pose.LeftShoulder, pose.RightShoulder},
		{"right_shoulder", pose.RightElbow, pose.RightShoulder, pose.LeftShoulder},
		{"left_elbow", pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
		{"right_elbow", pose.RightShoulder, pose.RightElbow, pose.RightWrist},
		{"left_hip", pose.LeftShoulder, pose.LeftHip, pose.LeftKnee},
		{"right_hip", pose.RightShoulder, pose.RightHip, pose.RightKnee},
		{"left_knee", pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{"right_knee", pose.RightHip, pose.RightKnee, pose.RightAnkle},
		{"body_alignment_left", pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle},
		{"body_alignment_right", pose.RightShoulder, pose.RightHip, pose.RightAnkle},
	}

	angles := make(Angles, len(named))
	for _, n := range named {
		if a := f.AngleAt(n.a, n.b, n.c); a.Valid() {
			angles[n.name] = a
		}
	}
	return angles
}

// Analyze runs the analyzer for k.
func Analyze(k Kind, f pose.Frame) (Report, error) {
	analyze, ok := analyzers[k]
	if !ok {
		return Report{}, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return analyze(f), nil
}

// Neutral returns the report used when no exercise is known: every
// named angle and no mistakes.
func Neutral(f pose.Frame) Report {
	return newReport(AllAngles(f), nil)
}

// AnalyzeLabel resolves label and runs its analyzer. Unknown or empty labels
// yield a neutral report.
func AnalyzeLabel(label string, f pose.Frame) Report {
	k, err := ParseKind(label)
	if err != nil {
		return Neutral(f)
	}
	report, _ := Analyze(k, f)
	return report
}
