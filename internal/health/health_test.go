package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_NotReady(t *testing.T) {
	s := New(0)
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/healthz").Code)
	rec := get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}

func TestServer_ReadyWithCapabilities(t *testing.T) {
	s := New(0)
	var browser atomic.Bool
	s.AddCheck("speech", browser.Load)
	s.AddCheck("tones", func() bool { return true })
	s.SetReady(true)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)

	rec := get(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, Report{Status: "ok", Capabilities: map[string]bool{"speech": false, "tones": true}}, report)

	browser.Store(true)
	assert.True(t, s.Report().Capabilities["speech"])
}
