package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ayusman/formcheck/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func serve(s http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/api/health")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
		assert.Equal(t, 0.0, response["sessions"])
		assert.Equal(t, "disabled", response["storage"])
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := serve(s, method, "/api/health")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	rec := serve(New(Config{}), http.MethodGet, "/api/nonexistent")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AthletesRequireStore(t *testing.T) {
	rec := serve(New(Config{}), http.MethodGet, "/api/athletes")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()
	testContent := "<html><body>Hello, World!</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0o644))
	cssContent := "body { color: red; }"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0o644))

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, testContent, rec.Body.String())
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/style.css")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, cssContent, rec.Body.String())
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/nonexistent.html").Code)
	})

	t.Run("api routes win over static files", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/health").Code)
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(New(Config{}), http.MethodGet, "/").Code)
}

func TestServer_Metrics(t *testing.T) {
	mm, reg := metrics.NewTestManagerAndRegistry()
	s := New(Config{Metrics: mm, Gatherer: reg})

	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/health").Code)
	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/exercises").Code)

	assert.Equal(t, 2.0, testutil.ToFloat64(mm.CounterRequests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(mm.HistRequestDuration))

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "formcheck_test_request_duration_seconds")
}

func TestPanicRecovery(t *testing.T) {
	mm := metrics.NewTestManager()
	h := PanicRecovery(mm)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.CounterHandleRequestPanic))
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	w.WriteHeader(http.StatusTeapot)
	w.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, w.statusCode)

	_, _, err := w.Hijack()
	assert.Error(t, err)
}
