package tts

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

type fakeSynth struct {
	mu     sync.Mutex
	texts  []string
	opts   []SynthesizeOpts
	err    error
	sample int16
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(f.sample))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(f.sample))
	return &SynthesizeResult{PCM: pcm, SampleRate: 16000, Channels: 1, Width: 2}, nil
}

func (f *fakeSynth) Voices(context.Context) ([]feedback.Voice, error) {
	return []feedback.Voice{{Name: "en_US-amy-medium", Lang: "en_US"}}, nil
}

func (f *fakeSynth) Close() error { return nil }

// blockingPlayer holds every Play call until its context is cancelled or
// release is closed.
type blockingPlayer struct {
	started chan []byte
	release chan struct{}
	results chan error
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{
		started: make(chan []byte, 8),
		release: make(chan struct{}),
		results: make(chan error, 8),
	}
}

func (p *blockingPlayer) Play(ctx context.Context, audio []byte) error {
	p.started <- audio
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-p.release:
	}
	p.results <- err
	return err
}

func (p *blockingPlayer) Available() bool { return true }

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestSpeaker_NewUtteranceCancelsPrevious(t *testing.T) {
	player := newBlockingPlayer()
	s := NewSpeaker("fake", &fakeSynth{sample: 1000}, player, nil)

	require.NoError(t, s.Speak(context.Background(), feedback.Utterance{ID: "a", Text: "A", Volume: 1}))
	waitFor(t, player.started)

	require.NoError(t, s.Speak(context.Background(), feedback.Utterance{ID: "b", Text: "B", Volume: 1}))

	assert.ErrorIs(t, waitFor(t, player.results), context.Canceled, "first utterance cancelled")
	waitFor(t, player.started)
	assert.Equal(t, "b", s.Current())

	close(player.release)
	assert.NoError(t, waitFor(t, player.results))
	s.Wait()
	assert.Empty(t, s.Current())
}

func TestSpeaker_Cancel(t *testing.T) {
	player := newBlockingPlayer()
	s := NewSpeaker("fake", &fakeSynth{}, player, nil)

	require.NoError(t, s.Speak(context.Background(), feedback.Utterance{ID: "a", Text: "A"}))
	waitFor(t, player.started)

	s.Cancel()

	assert.ErrorIs(t, waitFor(t, player.results), context.Canceled)
	s.Wait()
	assert.Empty(t, s.Current())

	assert.NotPanics(t, s.Cancel, "cancel with nothing playing")
}

func TestSpeaker_CallerContextDoesNotStopPlayback(t *testing.T) {
	player := newBlockingPlayer()
	s := NewSpeaker("fake", &fakeSynth{}, player, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Speak(ctx, feedback.Utterance{ID: "a", Text: "A"}))
	waitFor(t, player.started)
	cancel()

	close(player.release)
	assert.NoError(t, waitFor(t, player.results))
	s.Wait()
}

func TestSpeaker_AppliesVolumeAndVoice(t *testing.T) {
	player := newBlockingPlayer()
	close(player.release)
	synth := &fakeSynth{sample: 1000}
	s := NewSpeaker("fake", synth, player, nil)

	voice := &feedback.Voice{Name: "en_GB-alba-medium", Lang: "en_GB"}
	require.NoError(t, s.Speak(context.Background(), feedback.Utterance{
		ID: "a", Text: "Great job!", Voice: voice, Lang: "en", Volume: 0.5,
	}))
	audio := waitFor(t, player.started)
	s.Wait()

	require.Len(t, audio, wav.HeaderSize+4)
	assert.Equal(t, int16(500), int16(binary.LittleEndian.Uint16(audio[wav.HeaderSize:])))
	assert.Equal(t, []string{"Great job!"}, synth.texts)
	assert.Equal(t, SynthesizeOpts{Language: "en", Voice: "en_GB-alba-medium"}, synth.opts[0])
}

func TestSpeaker_SynthesisErrorCounted(t *testing.T) {
	metrics := observability.NewMetrics("test", nil)
	s := NewSpeaker("piper", &fakeSynth{err: errors.New("connection refused")}, newBlockingPlayer(), metrics)

	require.NoError(t, s.Speak(context.Background(), feedback.Utterance{ID: "a", Text: "A"}))
	s.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BackendErrors.WithLabelValues("piper", "synthesize")))
}

func TestSpeaker_Voices(t *testing.T) {
	s := NewSpeaker("fake", &fakeSynth{}, newBlockingPlayer(), nil)
	voices, err := s.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en_US-amy-medium", voices[0].Name)
}

func TestSpeaker_WithoutSynthesizer(t *testing.T) {
	s := NewSpeaker("none", nil, newBlockingPlayer(), nil)
	assert.False(t, s.Available())
	assert.Error(t, s.Speak(context.Background(), feedback.Utterance{Text: "A"}))
}
