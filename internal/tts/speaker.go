package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/observability"
	"github.com/nadzzz/narrator/internal/playback"
	"github.com/nadzzz/narrator/internal/wav"
)

var (
	_ feedback.SpeechSynthesizer = (*Speaker)(nil)
	_ feedback.Activity          = (*Speaker)(nil)
)

// Speaker implements feedback.SpeechSynthesizer: it synthesizes each
// utterance and plays it, keeping at most one utterance active.
//
// Rate and pitch are not applied; engines speak at their model's pace.
type Speaker struct {
	synth   Synthesizer
	player  playback.Player
	name    string
	metrics *observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	current string
	wg      sync.WaitGroup
}

// NewSpeaker creates a Speaker. name labels log lines and metrics.
func NewSpeaker(name string, synth Synthesizer, player playback.Player, metrics *observability.Metrics) *Speaker {
	return &Speaker{
		synth:   synth,
		player:  player,
		name:    name,
		metrics: metrics,
	}
}

// Available reports whether synthesized speech can be played.
func (s *Speaker) Available() bool {
	return s.synth != nil && s.player != nil && s.player.Available()
}

// Speak starts u in the background, cancelling any utterance still playing.
func (s *Speaker) Speak(ctx context.Context, u feedback.Utterance) error {
	if s.synth == nil {
		return errors.New("no synthesizer configured")
	}

	// Playback outlives the caller's context; only Cancel or a newer
	// utterance stops it.
	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.current = u.ID
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finish(u.ID, cancel)
		if err := s.run(playCtx, u); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("speech failed", "backend", s.name, "utterance_id", u.ID, "error", err)
		}
	}()
	return nil
}

// Cancel stops the current utterance, if any.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.current = ""
	}
}

// Current returns the ID of the utterance being spoken, or "".
func (s *Speaker) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Voices lists the synthesizer's voices.
func (s *Speaker) Voices(ctx context.Context) ([]feedback.Voice, error) {
	if s.synth == nil {
		return nil, nil
	}
	return s.synth.Voices(ctx)
}

// Wait blocks until every started utterance has finished or been cancelled.
func (s *Speaker) Wait() {
	s.wg.Wait()
}

func (s *Speaker) run(ctx context.Context, u feedback.Utterance) error {
	opts := SynthesizeOpts{Language: u.Lang}
	if u.Voice != nil {
		opts.Voice = u.Voice.Name
	}

	res, err := s.synth.Synthesize(ctx, u.Text, opts)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.metrics.BackendError(s.name, "synthesize")
		return fmt.Errorf("synthesizing: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if res.Width == 2 {
		wav.ScalePCM16(res.PCM, u.Volume)
	}
	audio, err := wav.Encode(res.PCM, wav.Format{
		SampleRate:     res.SampleRate,
		Channels:       res.Channels,
		BytesPerSample: res.Width,
	})
	if err != nil {
		return fmt.Errorf("encoding speech: %w", err)
	}

	if err := s.player.Play(ctx, audio); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.metrics.BackendError(s.name, "play")
		return fmt.Errorf("playing speech: %w", err)
	}
	return nil
}

func (s *Speaker) finish(id string, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == id {
		s.current = ""
		s.cancel = nil
	}
}
