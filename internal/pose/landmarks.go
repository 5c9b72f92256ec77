// Package pose provides the body landmark model shared by every analysis stage:
// the canonical 33-joint index table, optional 3D points, frames and geometry.
package pose

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Joint is an index into the canonical 33-joint body model.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type Joint int

// Body landmark indices following MediaPipe convention.
const (
	Nose Joint = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// NumLandmarks is the number of joints in the body model.
const NumLandmarks = 33

var jointNames = [NumLandmarks]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Valid reports whether j addresses a joint of the body model.
func (j Joint) Valid() bool {
	return j >= 0 && j < NumLandmarks
}

func (j Joint) String() string {
	if !j.Valid() {
		return "invalid"
	}
	return jointNames[j]
}

// Point is one landmark position in normalized image coordinates
// (x, y roughly in [0,1], z relative depth). The zero value is a
// missing point, so a missing joint can never read as coordinate 0.
type Point struct {
	X          float64
	Y          float64
	Z          float64
	Visibility float64
	present    bool
}

// At returns a present point. A point with any NaN coordinate is missing.
func At(x, y, z float64) Point {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) {
		return Point{}
	}
	return Point{X: x, Y: y, Z: z, Visibility: 1, present: true}
}

// WithVisibility returns a copy of p carrying the given visibility score.
func (p Point) WithVisibility(v float64) Point {
	p.Visibility = v
	return p
}

// Valid reports whether the point was tracked.
func (p Point) Valid() bool {
	return p.present
}

// Vec returns the point as a gonum vector. Callers must check Valid first.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

type pointJSON struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// MarshalJSON encodes a missing point as null.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.present {
		return []byte("null"), nil
	}
	v := p.Visibility
	return json.Marshal(pointJSON{X: p.X, Y: p.Y, Z: p.Z, Visibility: &v})
}

// UnmarshalJSON decodes null as a missing point.
func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Point{}
		return nil
	}
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = At(raw.X, raw.Y, raw.Z)
	if p.present && raw.Visibility != nil {
		p.Visibility = *raw.Visibility
	}
	return nil
}

// Frame is one pose sample: up to 33 landmarks addressed by Joint.
// Frames are values; once built they are never modified in place.
type Frame struct {
	points [NumLandmarks]Point
}

// NewFrame builds a frame from landmarks in canonical order.
// Extra landmarks beyond the body model are ignored, absent ones are missing.
func NewFrame(points []Point) Frame {
	var f Frame
	n := min(len(points), NumLandmarks)
	copy(f.points[:n], points[:n])
	return f
}

// Point returns the landmark for j, or a missing point if j is out of range.
func (f Frame) Point(j Joint) Point {
	if !j.Valid() {
		return Point{}
	}
	return f.points[j]
}

// X returns the x coordinate of j if it was tracked.
func (f Frame) X(j Joint) (float64, bool) {
	p := f.Point(j)
	return p.X, p.Valid()
}

// With returns a copy of the frame with j set to p.
func (f Frame) With(j Joint, p Point) Frame {
	if j.Valid() {
		f.points[j] = p
	}
	return f
}

// Without returns a copy of the frame with j missing.
func (f Frame) Without(j Joint) Frame {
	return f.With(j, Point{})
}

// Count returns the number of tracked landmarks.
func (f Frame) Count() int {
	n := 0
	for _, p := range f.points {
		if p.present {
			n++
		}
	}
	return n
}

// Empty reports whether no landmark was tracked.
func (f Frame) Empty() bool {
	return f.Count() == 0
}

// Points returns a copy of all 33 landmarks in canonical order.
func (f Frame) Points() []Point {
	out := make([]Point, NumLandmarks)
	copy(out, f.points[:])
	return out
}

// AngleAt returns the angle at vertex b formed with a and c.
func (f Frame) AngleAt(a, b, c Joint) Angle {
	return AngleAt(f.Point(a), f.Point(b), f.Point(c))
}

// MarshalJSON encodes the frame as an array of 33 points (null when missing).
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.points[:])
}

// UnmarshalJSON decodes an array of points in canonical order.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var points []Point
	if err := json.Unmarshal(data, &points); err != nil {
		return err
	}
	*f = NewFrame(points)
	return nil
}
