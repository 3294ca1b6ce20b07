package tone

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/observability"
	"github.com/nadzzz/narrator/internal/wav"
)

type fakePlayer struct {
	mu     sync.Mutex
	played [][]byte
	err    error
}

func (p *fakePlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, audio)
	return p.err
}

func (p *fakePlayer) Available() bool { return true }

// manualClock collects scheduled callbacks instead of running timers.
type manualClock struct {
	delays []time.Duration
	funcs  []func()
}

func (c *manualClock) afterFunc(d time.Duration, f func()) {
	c.delays = append(c.delays, d)
	c.funcs = append(c.funcs, f)
}

func (c *manualClock) fireAll() {
	for _, f := range c.funcs {
		f()
	}
}

func TestEnvelope(t *testing.T) {
	const peak = 0.21
	dur := 0.1

	assert.Equal(t, 0.0, Envelope(0, dur, peak))
	assert.InDelta(t, peak/2, Envelope(0.005, dur, peak), 1e-9)
	assert.InDelta(t, peak, Envelope(0.01, dur, peak), 1e-9)
	assert.InDelta(t, DecayFloor, Envelope(dur, dur, peak), 1e-9)
	assert.Less(t, Envelope(0.05, dur, peak), peak)
	assert.Greater(t, Envelope(0.05, dur, peak), DecayFloor)

	assert.Equal(t, 0.0, Envelope(0.05, dur, 0), "silent at zero volume")
	assert.Equal(t, 0.0, Envelope(0.2, dur, peak), "silent after the note")
}

func TestRender(t *testing.T) {
	n := feedback.Note{Frequency: 800, Duration: 100 * time.Millisecond, PeakGain: 0.3}

	pcm := Render(n, 8000)

	require.Len(t, pcm, 800*2)
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(pcm[0:])))

	var maxAbs int16
	for i := 0; i < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if s < 0 {
			s = -s
		}
		if s > maxAbs {
			maxAbs = s
		}
	}
	assert.LessOrEqual(t, float64(maxAbs), 0.3*32767+1)
	assert.Greater(t, float64(maxAbs), 0.2*32767)
}

func TestRender_ZeroDuration(t *testing.T) {
	assert.Nil(t, Render(feedback.Note{Frequency: 440}, 8000))
}

func TestSynth_SchedulesAtOffset(t *testing.T) {
	player := &fakePlayer{}
	clock := &manualClock{}
	s := New(player, 8000, nil)
	s.afterFunc = clock.afterFunc

	for _, n := range feedback.Notes(feedback.ToneCelebration, 0.7) {
		require.NoError(t, s.ScheduleNote(n))
	}

	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, clock.delays)
	assert.Empty(t, player.played, "nothing plays before the timers fire")

	clock.fireAll()

	require.Len(t, player.played, 4)
	for _, audio := range player.played {
		assert.Len(t, audio, wav.HeaderSize+1600*2) // 200ms at 8kHz
	}
}

func TestSynth_RejectsUnknownWaveform(t *testing.T) {
	s := New(&fakePlayer{}, 8000, nil)
	err := s.ScheduleNote(feedback.Note{Frequency: 440, Duration: time.Millisecond, Waveform: "square"})
	assert.Error(t, err)
}

func TestSynth_PlaybackErrorCounted(t *testing.T) {
	metrics := observability.NewMetrics("test", nil)
	clock := &manualClock{}
	s := New(&fakePlayer{err: errors.New("device busy")}, 8000, metrics)
	s.afterFunc = clock.afterFunc

	require.NoError(t, s.ScheduleNote(feedback.Notes(feedback.ToneClick, 1)[0]))
	clock.fireAll()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BackendErrors.WithLabelValues("tone", "play")))
}

func TestSynth_Available(t *testing.T) {
	assert.True(t, New(&fakePlayer{}, 0, nil).Available())
	assert.False(t, New(nil, 0, nil).Available())
}
