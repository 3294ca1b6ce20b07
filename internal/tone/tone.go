// Package tone renders tone cues as sine-wave PCM and plays each note at
// its start offset through a playback.Player.
package tone

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/observability"
	"github.com/nadzzz/narrator/internal/playback"
	"github.com/nadzzz/narrator/internal/wav"
)

const (
	// DefaultSampleRate is used when no rate is configured.
	DefaultSampleRate = 44100

	// Attack is the linear ramp from silence to the peak gain.
	Attack = 10 * time.Millisecond

	// DecayFloor is the gain the exponential decay reaches at the note end.
	DecayFloor = 0.001
)

var _ feedback.ToneSynthesizer = (*Synth)(nil)

// Synth implements feedback.ToneSynthesizer on top of a Player.
type Synth struct {
	sampleRate int
	player     playback.Player
	metrics    *observability.Metrics

	// afterFunc is time.AfterFunc outside of tests.
	afterFunc func(d time.Duration, f func())
}

// New creates a tone synth rendering at sampleRate.
func New(player playback.Player, sampleRate int, metrics *observability.Metrics) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Synth{
		sampleRate: sampleRate,
		player:     player,
		metrics:    metrics,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Available reports whether the underlying player can play audio.
func (s *Synth) Available() bool {
	return s.player != nil && s.player.Available()
}

// ScheduleNote renders n now and plays it once its start offset elapses.
func (s *Synth) ScheduleNote(n feedback.Note) error {
	if n.Waveform != "" && n.Waveform != feedback.WaveformSine {
		return fmt.Errorf("unsupported waveform %q", n.Waveform)
	}
	pcm := Render(n, s.sampleRate)
	audio, err := wav.Encode(pcm, wav.Mono16(s.sampleRate))
	if err != nil {
		return fmt.Errorf("encoding note: %w", err)
	}

	s.afterFunc(n.Start, func() {
		if err := s.player.Play(context.Background(), audio); err != nil {
			slog.Warn("tone playback failed", "frequency", n.Frequency, "error", err)
			s.metrics.BackendError("tone", "play")
		}
	})
	return nil
}

// Render produces 16-bit mono PCM for one note: a sine at n.Frequency with
// a linear attack to n.PeakGain, then an exponential decay to DecayFloor.
func Render(n feedback.Note, sampleRate int) []byte {
	samples := int(n.Duration.Seconds() * float64(sampleRate))
	if samples <= 0 {
		return nil
	}
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(sampleRate)
		v := Envelope(t, n.Duration.Seconds(), n.PeakGain) * math.Sin(2*math.Pi*n.Frequency*t)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(wav.ClampSample(v*32767)))
	}
	return pcm
}

// Envelope returns the gain at time t (seconds) of a note lasting duration.
func Envelope(t, duration, peak float64) float64 {
	if peak <= 0 || t < 0 || t > duration {
		return 0
	}
	attack := Attack.Seconds()
	if t < attack {
		return peak * t / attack
	}
	if duration <= attack {
		return peak
	}
	progress := (t - attack) / (duration - attack)
	return peak * math.Pow(DecayFloor/peak, progress)
}
