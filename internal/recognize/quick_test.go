package recognize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
)

func TestQuickDetect(t *testing.T) {
	tests := []struct {
		name  string
		frame pose.Frame
		want  form.Kind
	}{
		{"squat", pose.SquatFrame(), form.Squat},
		{"pushup", pose.PushupFrame(), form.Pushup},
		{"plank", pose.PlankFrame(), form.Plank},
		{"lunge", pose.LungeFrame(), form.Lunge},
		{"deadlift", pose.DeadliftFrame(), form.Deadlift},
		{"empty frame", pose.NewFrame(nil), form.None},
		{"straight body without arms is plank", pose.PushupFrame().Without(pose.LeftWrist).Without(pose.RightWrist), form.Plank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuickDetect(tt.frame))
		})
	}
}

func TestQuickDetect_OneKneeMissing(t *testing.T) {
	// A single squat knee is not enough for the squat branch, and with
	// feet under the knees nothing else matches either.
	f := pose.SquatFrame().Without(pose.RightAnkle)
	lk := f.Point(pose.LeftKnee)
	f = f.With(pose.LeftAnkle, pose.At(lk.X, 0.89, lk.Z))

	assert.Equal(t, form.None, QuickDetect(f))
}
