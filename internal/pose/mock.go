package pose

import (
	"context"
	"io"
)

// MockSource is a test implementation of the Source interface.
// It replays a fixed list of frames.
type MockSource struct {
	frames []Frame
	pos    int
	err    error
	closed bool
}

// NewMockSource creates a MockSource replaying frames in order.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// SetError sets the error that will be returned once the frames are drained.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Next returns the next pre-configured frame.
func (m *MockSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if m.pos >= len(m.frames) {
		if m.err != nil {
			return Frame{}, m.err
		}
		return Frame{}, io.EOF
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	return m.closed
}

// mirror places the right side of the body at the same image position as the
// left side, slightly deeper, as seen from a side camera.
func mirror(f Frame, pairs ...[2]Joint) Frame {
	for _, p := range pairs {
		l := f.Point(p[0])
		if l.Valid() {
			f = f.With(p[1], At(l.X, l.Y, l.Z+0.05))
		}
	}
	return f
}

var sidePairs = [][2]Joint{
	{LeftShoulder, RightShoulder},
	{LeftElbow, RightElbow},
	{LeftWrist, RightWrist},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
	{LeftHeel, RightHeel},
	{LeftFootIndex, RightFootIndex},
}

// SquatFrame returns a side-view frame near the top of a squat:
// knees at ~135 degrees, hips at ~80 degrees, arms held forward.
func SquatFrame() Frame {
	var f Frame
	f = f.With(Nose, At(0.70, 0.32, 0))
	f = f.With(LeftShoulder, At(0.649, 0.399, 0))
	f = f.With(LeftElbow, At(0.80, 0.42, 0))
	f = f.With(LeftWrist, At(0.95, 0.441, 0))
	f = f.With(LeftHip, At(0.50, 0.60, 0))
	f = f.With(LeftKnee, At(0.70, 0.70, 0))
	f = f.With(LeftAnkle, At(0.763, 0.89, 0))
	f = f.With(LeftHeel, At(0.72, 0.90, 0))
	f = f.With(LeftFootIndex, At(0.85, 0.90, 0))
	return mirror(f, sidePairs...)
}

// PushupFrame returns a side-view frame of a push-up with a straight body
// line and elbows bent to ~116 degrees.
func PushupFrame() Frame {
	var f Frame
	f = f.With(Nose, At(0.22, 0.50, 0))
	f = f.With(LeftShoulder, At(0.30, 0.50, 0))
	f = f.With(LeftElbow, At(0.35, 0.58, 0))
	f = f.With(LeftWrist, At(0.30, 0.66, 0))
	f = f.With(LeftHip, At(0.55, 0.50, 0))
	f = f.With(LeftKnee, At(0.70, 0.50, 0))
	f = f.With(LeftAnkle, At(0.85, 0.50, 0))
	f = f.With(LeftHeel, At(0.86, 0.48, 0))
	f = f.With(LeftFootIndex, At(0.84, 0.53, 0))
	return mirror(f, sidePairs...)
}

// PlankFrame returns a side-view frame of a straight-arm plank.
func PlankFrame() Frame {
	f := PushupFrame()
	f = f.With(LeftElbow, At(0.30, 0.60, 0))
	f = f.With(LeftWrist, At(0.30, 0.70, 0))
	return mirror(f, sidePairs...)
}

// LungeFrame returns a side-view frame of a forward lunge: the left leg is
// in front with the knee at 90 degrees, the right leg trails behind.
func LungeFrame() Frame {
	var f Frame
	f = f.With(Nose, At(0.50, 0.22, 0))
	f = f.With(LeftShoulder, At(0.50, 0.30, 0))
	f = f.With(LeftElbow, At(0.50, 0.42, 0))
	f = f.With(LeftWrist, At(0.50, 0.54, 0))
	f = f.With(LeftHip, At(0.50, 0.55, 0))
	f = f.With(LeftKnee, At(0.65, 0.55, 0))
	f = f.With(LeftAnkle, At(0.65, 0.80, 0))
	f = f.With(LeftHeel, At(0.63, 0.81, 0))
	f = f.With(LeftFootIndex, At(0.72, 0.81, 0))
	f = mirror(f, sidePairs[:4]...)
	f = f.With(RightKnee, At(0.40, 0.72, 0.05))
	f = f.With(RightAnkle, At(0.22, 0.84, 0.05))
	f = f.With(RightHeel, At(0.20, 0.82, 0.05))
	f = f.With(RightFootIndex, At(0.25, 0.86, 0.05))
	return f
}

// DeadliftFrame returns a side-view frame of a hip hinge with soft knees.
func DeadliftFrame() Frame {
	var f Frame
	f = f.With(Nose, At(0.78, 0.36, 0))
	f = f.With(LeftShoulder, At(0.70, 0.40, 0))
	f = f.With(LeftElbow, At(0.68, 0.52, 0))
	f = f.With(LeftWrist, At(0.66, 0.64, 0))
	f = f.With(LeftHip, At(0.45, 0.55, 0))
	f = f.With(LeftKnee, At(0.52, 0.72, 0))
	f = f.With(LeftAnkle, At(0.50, 0.90, 0))
	f = f.With(LeftHeel, At(0.47, 0.91, 0))
	f = f.With(LeftFootIndex, At(0.58, 0.91, 0))
	return mirror(f, sidePairs...)
}
