package feedback

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ToneKind names a short non-speech cue.
type ToneKind string

const (
	ToneClick       ToneKind = "click"
	ToneSuccess     ToneKind = "success"
	ToneError       ToneKind = "error"
	ToneCelebration ToneKind = "celebration"
)

// ErrUnknownToneKind is returned by ParseToneKind for names outside the fixed set.
var ErrUnknownToneKind = errors.New("unknown tone kind")

const (
	// NoteStep is the fixed spacing between consecutive notes of one cue.
	NoteStep = 100 * time.Millisecond

	// ToneGainScale scales the master volume down to the note peak gain.
	ToneGainScale = 0.3

	shortNote = 100 * time.Millisecond
	longNote  = 200 * time.Millisecond
)

// toneFrequencies maps each kind to its ordered note frequencies in Hz.
var toneFrequencies = map[ToneKind][]float64{
	ToneSuccess:     {523, 659, 784},       // C E G
	ToneError:       {220, 196},            // A G
	ToneClick:       {800},                 // high click
	ToneCelebration: {523, 659, 784, 1047}, // C E G C
}

// ToneKinds lists the supported kinds in a stable order.
func ToneKinds() []ToneKind {
	return []ToneKind{ToneClick, ToneSuccess, ToneError, ToneCelebration}
}

// ParseToneKind validates a kind name received from an external caller.
func ParseToneKind(s string) (ToneKind, error) {
	kind := ToneKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := toneFrequencies[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownToneKind, s)
	}
	return kind, nil
}

// Valid reports whether k is one of the fixed kinds.
func (k ToneKind) Valid() bool {
	_, ok := toneFrequencies[k]
	return ok
}

// NoteDuration is how long each note of a kind lasts.
func (k ToneKind) NoteDuration() time.Duration {
	if k == ToneCelebration {
		return longNote
	}
	return shortNote
}

// Notes expands a kind into its staggered note sequence at the given volume.
// It returns nil for an unknown kind.
func Notes(kind ToneKind, volume float64) []Note {
	freqs, ok := toneFrequencies[kind]
	if !ok {
		return nil
	}
	peak := volume * ToneGainScale
	notes := make([]Note, len(freqs))
	for i, f := range freqs {
		notes[i] = Note{
			Frequency: f,
			Start:     time.Duration(i) * NoteStep,
			Duration:  kind.NoteDuration(),
			PeakGain:  peak,
			Waveform:  WaveformSine,
		}
	}
	return notes
}
