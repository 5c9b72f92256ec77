package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
)

func TestFrameRequest_Frame(t *testing.T) {
	t.Run("unknown label keeps landmarks", func(t *testing.T) {
		f, kind, err := frameBody(pose.SquatFrame(), "burpee").Frame()
		require.ErrorIs(t, err, form.ErrUnknownKind)
		assert.Equal(t, form.None, kind)
		assert.False(t, f.Empty())
	})

	t.Run("known label", func(t *testing.T) {
		f, kind, err := frameBody(pose.SquatFrame(), "squat").Frame()
		require.NoError(t, err)
		assert.Equal(t, form.Squat, kind)
		assert.False(t, f.Empty())
	})
}

func TestAnalyzeHandler_Exercises(t *testing.T) {
	r := newRouter(NewAnalyzeHandler())
	rec := do(t, r, http.MethodGet, "/api/exercises", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exercises":["squat","pushup","deadlift","plank","lunge"]}`, rec.Body.String())
}

type analyzeBody struct {
	Detected bool                `json:"detected"`
	Exercise string              `json:"exercise"`
	Angles   map[string]*float64 `json:"angles"`
	Mistakes []struct {
		Issue    string `json:"issue"`
		Severity string `json:"severity"`
	} `json:"mistakes"`
	Severity string `json:"severity"`
	Error    string `json:"error"`
	Hint     string `json:"hint"`
}

func TestAnalyzeHandler_Analyze(t *testing.T) {
	r := newRouter(NewAnalyzeHandler())

	t.Run("labelled squat", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/analyze", frameBody(pose.SquatFrame(), "Squat"))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[analyzeBody](t, rec)
		assert.True(t, got.Detected)
		assert.Equal(t, "squat", got.Exercise)
		assert.Contains(t, got.Angles, "knee_left")
		assert.Contains(t, got.Angles, "hip_right")
	})

	t.Run("unlabelled frame is guessed", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/analyze", frameBody(pose.PushupFrame(), ""))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pushup", decode[analyzeBody](t, rec).Exercise)
	})

	t.Run("unknown label yields neutral report", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/analyze", frameBody(pose.SquatFrame(), "burpee"))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[analyzeBody](t, rec)
		assert.True(t, got.Detected)
		assert.Equal(t, "unknown", got.Exercise)
		assert.Empty(t, got.Mistakes)
		assert.Equal(t, "good", got.Severity)
		assert.NotEmpty(t, got.Angles)
	})

	t.Run("empty frame", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/analyze", `{"landmarks":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"detected":false,"error":"No pose detected in frame","hint":"Ensure person is visible and well-lit"}`,
			rec.Body.String())
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/analyze", `{"landmarks":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get not allowed", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/analyze", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
