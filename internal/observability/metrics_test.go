package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("narrator", nil)

	m.Narration(OutcomePlayed)
	m.Narration(OutcomePlayed)
	m.Narration(OutcomeMuted)
	m.Tone("click", OutcomePlayed)
	m.Cancellation("superseded")
	m.BackendError("piper", "synthesize")
	m.SetBridgeClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Narrations.WithLabelValues(OutcomePlayed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Narrations.WithLabelValues(OutcomeMuted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tones.WithLabelValues("click", OutcomePlayed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancellations.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendErrors.WithLabelValues("piper", "synthesize")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BridgeClients))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Narration(OutcomePlayed)
		m.Tone("click", OutcomeMuted)
		m.Cancellation("disabled")
		m.BackendError("bridge", "speak")
		m.SetBridgeClients(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("narrator", nil)
	m.Narration(OutcomePlayed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `narrator_narrations_total{outcome="played"} 1`)
}
