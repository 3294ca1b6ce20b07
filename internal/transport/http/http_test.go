package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/nadzzz/narrator/internal/docs"
	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/message"
	"github.com/nadzzz/narrator/internal/observability"
)

type fakeBackend struct {
	mu        sync.Mutex
	spoken    []string
	cancels   int
	notes     []feedback.Note
	voices    []feedback.Voice
	voicesErr error
}

func (f *fakeBackend) Speak(_ context.Context, u feedback.Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u.Text)
	return nil
}

func (f *fakeBackend) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeBackend) Voices(context.Context) ([]feedback.Voice, error) {
	return f.voices, f.voicesErr
}

func (f *fakeBackend) ScheduleNote(n feedback.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
	return nil
}

func newTestHandler(t *testing.T, backend *fakeBackend) (http.Handler, *feedback.Service) {
	t.Helper()
	metrics := observability.NewMetrics("test", nil)
	svc := feedback.New(feedback.Options{Speech: backend, Tones: backend, Metrics: metrics})
	tr := New(0, nil, metrics.Handler())
	return tr.Handler(svc), svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandler_Narration(t *testing.T) {
	backend := &fakeBackend{}
	h, _ := newTestHandler(t, backend)

	rec := do(t, h, http.MethodPost, "/narrations", `{"text":"Great job!"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "accepted", decode[message.AcceptedResponse](t, rec).Status)
	assert.Equal(t, []string{"Great job!"}, backend.spoken)
	assert.Equal(t, 1, backend.cancels)
}

func TestHandler_NarrationBadBody(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBackend{})

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"text":`},
		{"unknown field", `{"txt":"hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/narrations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[message.ErrorResponse](t, rec).Error)
		})
	}
}

func TestHandler_Sound(t *testing.T) {
	backend := &fakeBackend{}
	h, _ := newTestHandler(t, backend)

	rec := do(t, h, http.MethodPost, "/sounds", `{"kind":"Celebration"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, backend.notes, 4)

	rec = do(t, h, http.MethodPost, "/sounds", `{"kind":"fanfare"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[message.ErrorResponse](t, rec).Error, "fanfare")
	assert.Len(t, backend.notes, 4)
}

func TestHandler_Settings(t *testing.T) {
	backend := &fakeBackend{}
	h, _ := newTestHandler(t, backend)

	rec := do(t, h, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, message.SettingsResponse{Enabled: true, Volume: 0.7, VolumePercent: 70, MusicEnabled: true},
		decode[message.SettingsResponse](t, rec))

	rec = do(t, h, http.MethodPut, "/settings/volume", `{"volume":1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode[message.SettingsResponse](t, rec).Volume)

	rec = do(t, h, http.MethodPut, "/settings/volume", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/settings/audio/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[message.ToggleResponse](t, rec)
	assert.False(t, toggled.Enabled)
	assert.False(t, toggled.Settings.Enabled)
	assert.Equal(t, 1, backend.cancels, "disabling audio stops narration")

	rec = do(t, h, http.MethodPost, "/settings/music/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[message.ToggleResponse](t, rec).Enabled)
}

func TestHandler_Voices(t *testing.T) {
	backend := &fakeBackend{voices: []feedback.Voice{
		{Name: "Alex", Lang: "en-US"},
		{Name: "Samantha", Lang: "en-US"},
	}}
	h, _ := newTestHandler(t, backend)

	rec := do(t, h, http.MethodGet, "/voices", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[message.VoicesResponse](t, rec)
	assert.Equal(t, "calm", resp.Profile)
	assert.Len(t, resp.Voices, 2)
	require.NotNil(t, resp.Selected)
	assert.Equal(t, "Samantha", resp.Selected.Name)
}

func TestHandler_VoicesError(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBackend{voicesErr: errors.New("piper down")})

	rec := do(t, h, http.MethodGet, "/voices", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[message.ErrorResponse](t, rec).Error, "piper down")
}

func TestHandler_MetricsAndRouting(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBackend{})
	do(t, h, http.MethodPost, "/narrations", `{"text":"Hi"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_narrations_total")

	rec = do(t, h, http.MethodGet, "/narrations", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no bridge configured")
}

func TestHandler_SwaggerDoc(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBackend{})

	rec := do(t, h, http.MethodGet, "/swagger/doc.json", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, path := range []string{"/narrations", "/sounds", "/settings", "/settings/volume", "/voices"} {
		assert.Contains(t, paths, path)
	}
}
