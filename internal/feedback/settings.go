package feedback

import "math"

// Settings holds the shared audio flags. The Service owns the only live
// instance; callers receive copies.
type Settings struct {
	Enabled      bool    `json:"enabled"`
	Volume       float64 `json:"volume"`
	MusicEnabled bool    `json:"music_enabled"`
}

// DefaultSettings returns the state a fresh application starts with.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		Volume:       0.7,
		MusicEnabled: true,
	}
}

// VolumePercent is the volume rounded to a whole percentage, as shown in the
// settings panel.
func (s Settings) VolumePercent() int {
	return int(math.Round(s.Volume * 100))
}

// ClampVolume bounds v to [0, 1]. ok is false for NaN, which callers ignore.
func ClampVolume(v float64) (clamped float64, ok bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	return math.Min(1, math.Max(0, v)), true
}
