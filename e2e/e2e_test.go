package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
)

// writeRecorderPlugin installs a plugin that copies its session_end request
// to out.
func writeRecorderPlugin(t *testing.T, dir, out string) {
	t.Helper()
	pluginDir := filepath.Join(dir, "recorder")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","events":["session_end"]}`
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0o644))
	script := "#!/bin/sh\ncat > " + out + "\necho '{\"success\":true}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0o755))
}

func readSamples(t *testing.T, name string) []pose.Sample {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "testdata", "recordings", name))
	require.NoError(t, err)
	defer f.Close()

	var samples []pose.Sample
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var s pose.Sample
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		samples = append(samples, s)
	}
	require.NoError(t, sc.Err())
	return samples
}

func postJSON(t *testing.T, client *http.Client, url string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins need a POSIX shell")
	}

	tmpDir := t.TempDir()
	pluginOut := filepath.Join(tmpDir, "session_end.json")

	cfg := config.Default()
	cfg.DBPath = filepath.Join(tmpDir, "data.db")
	cfg.PluginDir = filepath.Join(tmpDir, "plugins")
	writeRecorderPlugin(t, cfg.PluginDir, pluginOut)

	a, err := app.New(cfg)
	require.NoError(t, err)
	require.Len(t, a.Plugins().List(), 1)

	ts := httptest.NewServer(a.Handler())
	defer ts.Close()
	client := ts.Client()

	var athlete store.Athlete
	t.Run("CreateAthlete", func(t *testing.T) {
		code := postJSON(t, client, ts.URL+"/api/athletes",
			map[string]any{"name": "Ravi", "flexibility": "normal", "age": 28}, &athlete)
		require.Equal(t, http.StatusCreated, code)
		require.NotEmpty(t, athlete.ID)
	})

	var sessionID string
	t.Run("StartSession", func(t *testing.T) {
		var created struct {
			ID string `json:"id"`
		}
		code := postJSON(t, client, ts.URL+"/api/sessions", map[string]any{"athlete_id": athlete.ID}, &created)
		require.Equal(t, http.StatusCreated, code)
		sessionID = created.ID
	})
	require.NotEmpty(t, sessionID)

	t.Run("StreamRecording", func(t *testing.T) {
		var last session.Result
		detected := 0
		for _, s := range readSamples(t, "squat_set.jsonl") {
			var res session.Result
			code := postJSON(t, client, ts.URL+"/api/sessions/"+sessionID+"/frames", map[string]any{"landmarks": s.Landmarks}, &res)
			require.Equal(t, http.StatusOK, code)
			if res.Detected {
				detected++
				last = res
			}
		}
		assert.Equal(t, 10, detected)
		assert.Equal(t, int64(10), last.Seq)
		assert.Equal(t, "squat", last.Exercise)
	})

	t.Run("StoredResults", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + sessionID + "/results")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Results []store.FrameResult `json:"results"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Results, 10)
		assert.Equal(t, "unknown", body.Results[0].Exercise)
		assert.Equal(t, "squat", body.Results[9].Exercise)
	})

	t.Run("EndSession", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sessionID, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	require.NoError(t, a.Close(context.Background()))

	t.Run("PluginNotified", func(t *testing.T) {
		data, err := os.ReadFile(pluginOut)
		require.NoError(t, err)
		var req struct {
			Event     string       `json:"event"`
			SessionID string       `json:"session_id"`
			Exercise  string       `json:"exercise"`
			Payload   session.Info `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &req))
		assert.Equal(t, "session_end", req.Event)
		assert.Equal(t, sessionID, req.SessionID)
		assert.Equal(t, "squat", req.Exercise)
		assert.Equal(t, int64(10), req.Payload.Frames)
		assert.Equal(t, athlete.ID, req.Payload.AthleteID)
	})
}
