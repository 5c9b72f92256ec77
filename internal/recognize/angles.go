package recognize

import "github.com/ayusman/formcheck/internal/pose"

type observedAngle struct {
	name string
	typ  AngleType
	deg  float64
}

var keyAngleJoints = []struct {
	name    string
	typ     AngleType
	a, b, c pose.Joint
}{
	{"left_knee", Knee, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
	{"right_knee", Knee, pose.RightHip, pose.RightKnee, pose.RightAnkle},
	{"left_hip", Hip, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee},
	{"right_hip", Hip, pose.RightShoulder, pose.RightHip, pose.RightKnee},
	{"left_elbow", Elbow, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
	{"right_elbow", Elbow, pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	{"body_alignment_left", BodyAlignment, pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle},
	{"body_alignment_right", BodyAlignment, pose.RightShoulder, pose.RightHip, pose.RightAnkle},
}

// keyAngles returns the defined recognition angles of a frame in a fixed order.
func keyAngles(f pose.Frame) []observedAngle {
	var out []observedAngle
	for _, k := range keyAngleJoints {
		if v, ok := f.AngleAt(k.a, k.b, k.c).Value(); ok {
			out = append(out, observedAngle{name: k.name, typ: k.typ, deg: v})
		}
	}
	return out
}
