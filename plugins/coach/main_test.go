package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cue(t *testing.T, resp Response) string {
	t.Helper()
	require.True(t, resp.Success, resp.Error)
	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data["cue"]
}

func TestHandle_FatigueAlarm(t *testing.T) {
	resp := handle(strings.NewReader(`{"event":"fatigue_alarm","session_id":"s","exercise":"squat","payload":{"fatigue":{"overall":0.42}}}`))
	assert.Equal(t, "Fatigue is building (42%). Slow down or rest before the next squat rep.", cue(t, resp))
}

func TestHandle_SevereForm(t *testing.T) {
	resp := handle(strings.NewReader(`{"event":"severe_form","exercise":"squat","payload":{"mistakes":[
		{"issue":"Knee Valgus","severity":"severe","fix":"Push knees outward."},
		{"issue":"Depth","severity":"moderate","fix":"Go lower."}]}}`))
	assert.Equal(t, "Push knees outward.", cue(t, resp))

	resp = handle(strings.NewReader(`{"event":"severe_form","exercise":"unknown"}`))
	assert.Equal(t, "Check your this set form.", cue(t, resp))
}

func TestHandle_SessionEndWritesCueFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.log")
	req := `{"event":"session_end","session_id":"abc","payload":{"frames":12},"config":{"cue_file":"` + path + `"}}`

	resp := handle(strings.NewReader(req))
	assert.Equal(t, "Set complete: 12 frames analyzed. Good work.", cue(t, resp))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[abc] Set complete: 12 frames analyzed. Good work.\n", string(data))
}

func TestHandle_Errors(t *testing.T) {
	resp := handle(strings.NewReader("nope"))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "decode request")

	resp = handle(strings.NewReader(`{"event":"dance"}`))
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown event: dance", resp.Error)

	resp = handle(strings.NewReader(`{"event":"fatigue_alarm","payload":[1]}`))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "parse payload")
}
