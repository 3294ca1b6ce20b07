// Package tts defines the interface for text-to-speech synthesis and adapts
// any Synthesizer into the narration port of the feedback service.
//
// A Synthesizer only turns text into PCM. The Speaker adds what narration
// needs on top: volume, playback, and cancelling the previous utterance.
package tts

import (
	"context"

	"github.com/nadzzz/narrator/internal/feedback"
)

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the locale prefix (e.g., "en") used to pick a default voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates raw PCM from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Voices lists the voices the engine can synthesize with.
	Voices(ctx context.Context) ([]feedback.Voice, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// PCM is little-endian signed audio.
	PCM []byte

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int

	// Width is the sample width in bytes (typically 2).
	Width int
}
