// Package feedback implements the narration and tone-cue service shared by
// every lesson, quiz and game.
//
// A single Service is created by the root composition and handed to the
// transports. It owns the audio settings and talks to the platform through
// two capability ports: a SpeechSynthesizer for narration and a
// ToneSynthesizer for cues. A missing capability turns the matching
// operation into a silent no-op; audio is an enhancement, never a failure.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/narrator/internal/observability"
)

// voiceLookupTimeout bounds the voice listing done before each narration.
const voiceLookupTimeout = 2 * time.Second

// Options configures a Service.
type Options struct {
	// Speech and Tones may be nil when the capability is not available.
	Speech SpeechSynthesizer
	Tones  ToneSynthesizer

	// Profile is the narration tuning; zero value means DefaultProfile.
	Profile Profile

	// Initial is the starting settings; nil means DefaultSettings.
	Initial *Settings

	// Strict makes PlaySound panic on an unknown kind instead of ignoring it.
	Strict bool

	Metrics *observability.Metrics
}

// Service is the narration and feedback audio service.
type Service struct {
	speech  SpeechSynthesizer
	tones   ToneSynthesizer
	profile Profile
	strict  bool
	metrics *observability.Metrics

	mu       sync.Mutex
	settings Settings
}

// VoiceListing is the speech backend's voices plus the one narration would use.
type VoiceListing struct {
	Voices   []Voice
	Selected *Voice
}

// New creates a Service.
func New(opts Options) *Service {
	profile := opts.Profile
	if profile.Name == "" && profile.Rate == 0 {
		profile = DefaultProfile
	}

	settings := DefaultSettings()
	if opts.Initial != nil {
		settings = *opts.Initial
		if v, ok := ClampVolume(settings.Volume); ok {
			settings.Volume = v
		} else {
			settings.Volume = DefaultSettings().Volume
		}
	}

	return &Service{
		speech:   opts.Speech,
		tones:    opts.Tones,
		profile:  profile,
		strict:   opts.Strict,
		metrics:  opts.Metrics,
		settings: settings,
	}
}

// Settings returns a snapshot of the current settings.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Profile returns the active narration profile.
func (s *Service) Profile() Profile {
	return s.profile
}

// ToggleAudio flips the enabled flag and returns the new value. Turning
// audio off cancels the current narration before returning.
func (s *Service) ToggleAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Enabled = !s.settings.Enabled
	if !s.settings.Enabled && s.speech != nil {
		if isSpeaking(s.speech) {
			s.metrics.Cancellation("disabled")
		}
		s.speech.Cancel()
	}
	slog.Info("audio toggled", "enabled", s.settings.Enabled)
	return s.settings.Enabled
}

// SetVolume stores v clamped to [0, 1]. NaN is ignored. Audio already
// playing keeps the volume it started with.
func (s *Service) SetVolume(v float64) {
	clamped, ok := ClampVolume(v)
	if !ok {
		slog.Warn("ignoring invalid volume", "volume", v)
		return
	}

	s.mu.Lock()
	s.settings.Volume = clamped
	s.mu.Unlock()

	slog.Debug("volume set", "requested", v, "volume", clamped)
}

// ToggleMusic flips the music flag and returns the new value. Nothing
// consumes the flag yet.
func (s *Service) ToggleMusic() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.MusicEnabled = !s.settings.MusicEnabled
	return s.settings.MusicEnabled
}

// PlayNarration speaks text, replacing whatever narration is playing. It
// returns without waiting for the speech to finish.
func (s *Service) PlayNarration(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.Narration(observability.OutcomeEmpty)
		return
	}

	if !s.Settings().Enabled {
		s.metrics.Narration(observability.OutcomeMuted)
		return
	}
	if !IsAvailable(s.speech) {
		slog.Debug("speech unavailable, skipping narration")
		s.metrics.Narration(observability.OutcomeUnavailable)
		return
	}

	voice := s.chooseVoice()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Audio may have been switched off while the voices were listed.
	if !s.settings.Enabled {
		s.metrics.Narration(observability.OutcomeMuted)
		return
	}

	u := Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Voice:  voice,
		Lang:   s.profile.Locale,
		Rate:   s.profile.Rate,
		Pitch:  s.profile.Pitch,
		Volume: s.settings.Volume,
	}

	if isSpeaking(s.speech) {
		s.metrics.Cancellation("superseded")
	}
	s.speech.Cancel()

	logger := slog.With("utterance_id", u.ID)
	if voice != nil {
		logger.Debug("using voice", "voice", voice.Name, "lang", voice.Lang)
	}
	if err := s.speech.Speak(context.Background(), u); err != nil {
		logger.Warn("narration failed, continuing without audio", "error", err)
		s.metrics.Narration(observability.OutcomeFailed)
		return
	}
	logger.Debug("narration started", "text_length", len(text), "volume", u.Volume)
	s.metrics.Narration(observability.OutcomePlayed)
}

// PlaySound schedules the note sequence of kind. Calls are independent of
// each other; nothing is cancelled.
func (s *Service) PlaySound(kind ToneKind) {
	if !kind.Valid() {
		if s.strict {
			panic(fmt.Sprintf("feedback: %v: %q", ErrUnknownToneKind, kind))
		}
		slog.Warn("ignoring unknown tone kind", "kind", kind)
		s.metrics.Tone(string(kind), observability.OutcomeInvalid)
		return
	}

	settings := s.Settings()
	if !settings.Enabled {
		s.metrics.Tone(string(kind), observability.OutcomeMuted)
		return
	}
	if !IsAvailable(s.tones) {
		slog.Debug("tones unavailable, skipping cue", "kind", kind)
		s.metrics.Tone(string(kind), observability.OutcomeUnavailable)
		return
	}

	outcome := observability.OutcomePlayed
	for _, n := range Notes(kind, settings.Volume) {
		if err := s.tones.ScheduleNote(n); err != nil {
			slog.Warn("scheduling note failed", "kind", kind, "frequency", n.Frequency, "error", err)
			outcome = observability.OutcomeFailed
		}
	}
	s.metrics.Tone(string(kind), outcome)
}

// Voices lists the speech backend's voices and marks the profile's choice.
func (s *Service) Voices(ctx context.Context) (VoiceListing, error) {
	if !IsAvailable(s.speech) {
		return VoiceListing{}, nil
	}
	voices, err := s.speech.Voices(ctx)
	if err != nil {
		return VoiceListing{}, fmt.Errorf("listing voices: %w", err)
	}
	return VoiceListing{Voices: voices, Selected: SelectVoice(voices, s.profile)}, nil
}

func (s *Service) chooseVoice() *Voice {
	ctx, cancel := context.WithTimeout(context.Background(), voiceLookupTimeout)
	defer cancel()

	voices, err := s.speech.Voices(ctx)
	if err != nil {
		slog.Debug("voice listing failed, using default voice", "error", err)
		return nil
	}
	v := SelectVoice(voices, s.profile)
	if v == nil {
		return nil
	}
	chosen := *v
	return &chosen
}
