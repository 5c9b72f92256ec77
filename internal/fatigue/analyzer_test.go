package fatigue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/pose"
)

// shifted returns the squat fixture with joint j moved by dx along x.
func shifted(j pose.Joint, dx float64) pose.Frame {
	f := pose.SquatFrame()
	p := f.Point(j)
	return f.With(j, pose.At(p.X+dx, p.Y, p.Z))
}

func TestAnalyzer_NeedsTwoFrames(t *testing.T) {
	a := New(DefaultConfig())

	got := a.Update(pose.SquatFrame(), nil)
	assert.Equal(t, Scores{}, got)
	assert.Equal(t, 1, a.Frames())
	assert.False(t, a.IsFatigued())
}

func TestAnalyzer_RejectsIncompleteFrames(t *testing.T) {
	a := New(DefaultConfig())
	a.Update(pose.SquatFrame(), nil)
	before := a.Update(shifted(pose.LeftHip, 0.01), nil)
	require.NotEqual(t, Scores{}, before)

	for _, j := range keyJoints {
		got := a.Update(shifted(pose.LeftHip, 0.5).Without(j), nil)
		assert.Equal(t, before, got, j.String())
	}
	assert.Equal(t, 2, a.Frames())

	// Joints outside the key set do not matter.
	a.Update(pose.SquatFrame().Without(pose.Nose), nil)
	assert.Equal(t, 3, a.Frames())
}

func TestAnalyzer_IdenticalFrames(t *testing.T) {
	a := New(DefaultConfig())
	var got Scores
	for range 5 {
		got = a.Update(pose.SquatFrame(), nil)
	}
	assert.Equal(t, Scores{}, got)
	assert.Equal(t, 0.0, got.Overall)
}

func TestAnalyzer_MovingHip(t *testing.T) {
	run := func(step float64) Scores {
		a := New(DefaultConfig())
		var s Scores
		for i := range 5 {
			s = a.Update(shifted(pose.LeftHip, step*float64(i)), nil)
		}
		return s
	}

	small, medium, large := run(0.001), run(0.002), run(0.004)

	assert.Greater(t, small.CoreStability, 0.0)
	assert.Greater(t, small.Velocity, 0.0)
	assert.Greater(t, medium.CoreStability, small.CoreStability)
	assert.Greater(t, large.CoreStability, medium.CoreStability)
	assert.Greater(t, medium.Velocity, small.Velocity)
	assert.Greater(t, large.Velocity, medium.Velocity)

	// one of ten joints moves per frame
	assert.InDelta(t, 0.001/10*5, small.Velocity, 1e-12)
	assert.Equal(t, 0.0, small.ShoulderStability)
	assert.Equal(t, 0.0, small.EarlyFatigue)

	coarse := run(0.1)
	assert.Equal(t, 1.0, coarse.CoreStability, "clamped")
	assert.InDelta(t, 0.05, coarse.Velocity, 1e-12)
}

func TestAnalyzer_ShoulderJitter(t *testing.T) {
	a := New(DefaultConfig())
	var s Scores
	for i := range 4 {
		s = a.Update(shifted(pose.LeftShoulder, 0.01*float64(i)), nil)
		if i < 3 {
			assert.Equal(t, 0.0, s.EarlyFatigue)
		}
	}

	assert.InDelta(t, 0.06, s.EarlyFatigue, 1e-9)
	assert.Equal(t, 1.0, s.ShoulderStability)
	assert.InDelta(t, 0.005, s.Velocity, 1e-9)
	assert.Equal(t, 0.0, s.ElbowStability)
	assert.InDelta(t, (1+0.005+0.06)/5, s.Overall, 1e-9)
	assert.True(t, a.IsFatigued())

	assert.Len(t, s.Details(), 7)
	assert.NotContains(t, s.Details(), "overall")
}

func TestAnalyzer_ElbowAndAnkleExcludedFromOverall(t *testing.T) {
	a := New(DefaultConfig())
	a.Update(pose.SquatFrame(), nil)
	f := pose.SquatFrame()
	le, la := f.Point(pose.LeftElbow), f.Point(pose.LeftAnkle)
	// Moving along z changes the left/right distance without moving far.
	f = f.With(pose.LeftElbow, pose.At(le.X, le.Y, le.Z-0.05))
	f = f.With(pose.LeftAnkle, pose.At(la.X, la.Y, la.Z-0.05))

	s := a.Update(f, nil)
	assert.Equal(t, 1.0, s.ElbowStability)
	assert.Equal(t, 1.0, s.AnkleStability)
	assert.InDelta(t, s.Velocity/5, s.Overall, 1e-12)
}

func TestAnalyzer_DynamicThreshold(t *testing.T) {
	tests := []struct {
		name    string
		dynamic bool
		user    *athlete.Profile
		want    float64
	}{
		{"no profile", true, nil, 0.15},
		{"young", true, &athlete.Profile{Age: athlete.Age(17)}, 0.18},
		{"adult", true, &athlete.Profile{Age: athlete.Age(30)}, 0.15},
		{"boundary 20", true, &athlete.Profile{Age: athlete.Age(20)}, 0.15},
		{"boundary 40", true, &athlete.Profile{Age: athlete.Age(40)}, 0.15},
		{"older", true, &athlete.Profile{Age: athlete.Age(45)}, 0.12},
		{"unknown age", true, &athlete.Profile{}, 0.15},
		{"explicit zero age", true, &athlete.Profile{Age: athlete.Age(0)}, 0.18},
		{"static", false, &athlete.Profile{Age: athlete.Age(17)}, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{Window: 30, Threshold: 0.15, Dynamic: tt.dynamic})
			a.Update(pose.SquatFrame(), tt.user)
			assert.InDelta(t, 0.15, a.Threshold(), 1e-12, "unchanged before two frames")

			a.Update(pose.SquatFrame(), tt.user)
			assert.InDelta(t, tt.want, a.Threshold(), 1e-12)
		})
	}
}

func TestAnalyzer_ThresholdNotCumulative(t *testing.T) {
	a := New(DefaultConfig())
	young := &athlete.Profile{Age: athlete.Age(15)}
	for range 5 {
		a.Update(pose.SquatFrame(), young)
	}
	assert.InDelta(t, 0.18, a.Threshold(), 1e-12)

	a.Update(pose.SquatFrame(), nil)
	assert.InDelta(t, 0.15, a.Threshold(), 1e-12)
}

func TestAnalyzer_WindowBounded(t *testing.T) {
	a := New(Config{Window: 3, Threshold: 0.15})
	for i := range 10 {
		a.Update(shifted(pose.LeftHip, 0.001*float64(i)), nil)
	}
	assert.Equal(t, 3, a.Frames())

	a.Reset()
	assert.Equal(t, 0, a.Frames())
	assert.Equal(t, Scores{}, a.Scores())
}
