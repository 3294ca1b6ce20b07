package feedback

import (
	"context"
	"time"
)

// Voice is a named, language-tagged speech persona exposed by a speech backend.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

// Utterance is one narration handed to a SpeechSynthesizer. It is consumed
// immediately and not kept after playback finishes or is superseded.
type Utterance struct {
	ID     string
	Text   string
	Voice  *Voice // nil means the backend's default voice
	Lang   string // locale prefix of the active profile, e.g. "en"
	Rate   float64
	Pitch  float64
	Volume float64
}

// Waveform identifies the oscillator shape of a note.
type Waveform string

// WaveformSine is the only waveform used for tone cues.
const WaveformSine Waveform = "sine"

// Note is a single scheduled tone. Start is relative to the PlaySound call.
type Note struct {
	Frequency float64
	Start     time.Duration
	Duration  time.Duration
	PeakGain  float64
	Waveform  Waveform
}

// SpeechSynthesizer turns utterances into audible speech.
//
// Speak must return without waiting for playback. Cancel stops the current
// utterance, if any, and must be safe to call when nothing is playing.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, u Utterance) error
	Cancel()
	Voices(ctx context.Context) ([]Voice, error)
}

// ToneSynthesizer plays notes at their start offset. Scheduled notes always
// run to completion.
type ToneSynthesizer interface {
	ScheduleNote(n Note) error
}

// Availability is implemented by backends whose capability can be missing at
// runtime (no playback device, no connected browser, ...).
type Availability interface {
	Available() bool
}

// Activity is implemented by speech backends that know which utterance is
// playing. Current returns its id, or "" when idle.
type Activity interface {
	Current() string
}

// isSpeaking reports whether backend says an utterance is playing. Backends
// without Activity are treated as idle.
func isSpeaking(backend SpeechSynthesizer) bool {
	a, ok := backend.(Activity)
	return ok && a.Current() != ""
}

// IsAvailable reports whether backend is set and, if it implements
// Availability, currently available.
func IsAvailable(backend any) bool {
	if backend == nil {
		return false
	}
	if a, ok := backend.(Availability); ok {
		return a.Available()
	}
	return true
}
