package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func openRecording(t *testing.T, name string) pose.Source {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", "recordings", name))
	require.NoError(t, err)
	return pose.NewJSONLinesSource(f)
}

func decodeResults(t *testing.T, out *bytes.Buffer) []session.Result {
	t.Helper()
	var results []session.Result
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var res session.Result
		require.NoError(t, json.Unmarshal(sc.Bytes(), &res))
		results = append(results, res)
	}
	require.NoError(t, sc.Err())
	return results
}

func TestReplay_RecognizesExercise(t *testing.T) {
	var out bytes.Buffer
	stats, err := Replay(context.Background(), openRecording(t, "squat_set.jsonl"),
		ReplayOptions{Session: session.DefaultConfig()}, &out)
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Frames: 11, Detected: 10}, stats)

	results := decodeResults(t, &out)
	require.Len(t, results, 11)

	// The empty sample keeps the previous sequence number.
	assert.False(t, results[5].Detected)
	assert.Equal(t, int64(5), results[5].Seq)

	last := results[len(results)-1]
	assert.True(t, last.Detected)
	assert.Equal(t, int64(10), last.Seq)
	assert.Equal(t, "squat", last.Exercise)
	assert.InDelta(t, 1.0, last.Confidence, 1e-9)
	assert.False(t, last.Fatigue.Fatigued)
}

func TestReplay_ForcedExercise(t *testing.T) {
	var out bytes.Buffer
	stats, err := Replay(context.Background(), openRecording(t, "pushup_set.jsonl"),
		ReplayOptions{Session: session.DefaultConfig(), Exercise: form.Pushup}, &out)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Frames)

	for _, res := range decodeResults(t, &out) {
		assert.Equal(t, "pushup", res.Exercise)
		assert.Equal(t, 1.0, res.Confidence)
		assert.Equal(t, "mid", string(res.Phase))
		assert.Contains(t, res.Angles, "elbow_left")
	}
}

func TestReplay_HooksSeeTheSession(t *testing.T) {
	var types []session.EventType
	hook := session.HookFunc(func(_ context.Context, e session.Event) error {
		types = append(types, e.Type)
		return nil
	})

	src := pose.NewMockSource(pose.PlankFrame())
	_, err := Replay(context.Background(), src, ReplayOptions{Hooks: []session.Hook{hook}}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []session.EventType{session.EventStart, session.EventFrame, session.EventEnd}, types)
	assert.True(t, src.Closed())
}

func TestReplay_BadLine(t *testing.T) {
	src := pose.NewJSONLinesSource(strings.NewReader("[]\n{oops\n"))
	stats, err := Replay(context.Background(), src, ReplayOptions{}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode line 2")
	assert.Equal(t, 1, stats.Frames)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "formcheck.db")
	cfg.PluginDir = filepath.Join(t.TempDir(), "plugins")
	return cfg
}

func TestApp_ServesAndRecords(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(a.Handler())
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{"age":52}`))
	require.NoError(t, err)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, a.Sessions().Len())

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "formcheck_service_active_sessions 1")
	assert.Contains(t, string(body), "go_goroutines")

	require.NoError(t, a.Close(context.Background()))
	assert.Zero(t, a.Sessions().Len())

	st, err := store.New(cfg.DBPath)
	require.NoError(t, err)
	defer st.Close()
	sess, err := st.Sessions().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, sess.Age)
	assert.Equal(t, 52, *sess.Age)
	assert.NotNil(t, sess.EndedAt)
}

func TestApp_New_BadStorePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "formcheck.db")
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApp_Run(t *testing.T) {
	cfg := testConfig(t)
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.SessionIdleTimeout = config.Duration{Duration: 50 * time.Millisecond}

	a, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := "http://" + cfg.Addr() + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	_, err = a.Sessions().Create(ctx, session.CreateOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return a.Sessions().Len() == 0 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return")
	}
	http.DefaultClient.CloseIdleConnections()
}

func TestReapInterval(t *testing.T) {
	assert.Equal(t, time.Second, reapInterval(time.Millisecond))
	assert.Equal(t, 30*time.Second, reapInterval(2*time.Minute))
	assert.Equal(t, time.Minute, reapInterval(time.Hour))
}
