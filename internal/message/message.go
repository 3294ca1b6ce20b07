// Package message defines the request and response bodies shared by the
// HTTP and gRPC transports.
package message

import (
	"github.com/nadzzz/narrator/internal/feedback"
)

// NarrationRequest asks the service to speak text.
type NarrationRequest struct {
	// Text is the sentence to narrate. Blank text is accepted and ignored.
	Text string `json:"text" example:"Great job! You found the right answer."`
}

// SoundRequest asks the service to play a tone cue.
type SoundRequest struct {
	// Kind is one of "click", "success", "error", "celebration".
	Kind string `json:"kind" example:"success"`
}

// VolumeRequest sets the master volume. Values outside [0, 1] are clamped.
type VolumeRequest struct {
	Volume *float64 `json:"volume" example:"0.7"`
}

// SettingsResponse is the current settings snapshot.
type SettingsResponse struct {
	Enabled       bool    `json:"enabled"`
	Volume        float64 `json:"volume"`
	VolumePercent int     `json:"volume_percent"`
	MusicEnabled  bool    `json:"music_enabled"`
}

// FromSettings converts a settings snapshot for the wire.
func FromSettings(s feedback.Settings) SettingsResponse {
	return SettingsResponse{
		Enabled:       s.Enabled,
		Volume:        s.Volume,
		VolumePercent: s.VolumePercent(),
		MusicEnabled:  s.MusicEnabled,
	}
}

// ToggleResponse reports the new value of a toggled setting.
type ToggleResponse struct {
	Enabled  bool             `json:"enabled"`
	Settings SettingsResponse `json:"settings"`
}

// VoicesResponse lists the voices of the speech backend and the one the
// active profile would pick.
type VoicesResponse struct {
	Profile  string           `json:"profile"`
	Voices   []feedback.Voice `json:"voices"`
	Selected *feedback.Voice  `json:"selected,omitempty"`
}

// FromVoiceListing converts a voice listing for the wire.
func FromVoiceListing(profile string, l feedback.VoiceListing) VoicesResponse {
	voices := l.Voices
	if voices == nil {
		voices = []feedback.Voice{}
	}
	return VoicesResponse{Profile: profile, Voices: voices, Selected: l.Selected}
}

// AcceptedResponse acknowledges a fire-and-forget request.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
}

// Empty is the request body of parameterless calls.
type Empty struct{}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
