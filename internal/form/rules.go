package form

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/formcheck/internal/pose"
)

// side names the joints of one body side.
type side struct {
	shoulder, elbow, wrist, hip, knee, ankle, heel pose.Joint
}

var (
	left = side{
		shoulder: pose.LeftShoulder, elbow: pose.LeftElbow, wrist: pose.LeftWrist,
		hip: pose.LeftHip, knee: pose.LeftKnee, ankle: pose.LeftAnkle, heel: pose.LeftHeel,
	}
	right = side{
		shoulder: pose.RightShoulder, elbow: pose.RightElbow, wrist: pose.RightWrist,
		hip: pose.RightHip, knee: pose.RightKnee, ankle: pose.RightAnkle, heel: pose.RightHeel,
	}
)

func (s side) kneeAngle(f pose.Frame) pose.Angle  { return f.AngleAt(s.hip, s.knee, s.ankle) }
func (s side) hipAngle(f pose.Frame) pose.Angle   { return f.AngleAt(s.shoulder, s.hip, s.knee) }
func (s side) elbowAngle(f pose.Frame) pose.Angle { return f.AngleAt(s.shoulder, s.elbow, s.wrist) }
func (s side) bodyAngle(f pose.Frame) pose.Angle  { return f.AngleAt(s.shoulder, s.hip, s.ankle) }

// mean2 averages two angles, false unless both are defined.
func mean2(a, b pose.Angle) (float64, bool) {
	x, y, ok := pose.Both(a, b)
	if !ok {
		return 0, false
	}
	return stat.Mean([]float64{x, y}, nil), true
}

// hipsRaised reports whether the left hip sits clearly above the left
// shoulder in image space (smaller y is higher). It needs hip, shoulder
// and ankle of the left side.
func hipsRaised(f pose.Frame) bool {
	hip, shoulder, ankle := f.Point(left.hip), f.Point(left.shoulder), f.Point(left.ankle)
	if !hip.Valid() || !shoulder.Valid() || !ankle.Valid() {
		return false
	}
	return hip.Y < shoulder.Y-0.05
}
