package feedback

import (
	"fmt"
	"strings"
)

// Profile holds the narration tuning constants and voice preferences.
type Profile struct {
	Name            string
	Rate            float64
	Pitch           float64
	Locale          string   // language prefix, e.g. "en"
	PreferredVoices []string // highest priority first
}

// Built-in profiles. Two tunings were in use for the same narration; both
// are kept and selectable by name.
var (
	ProfileCalm = Profile{
		Name:   "calm",
		Rate:   0.8,
		Pitch:  1.1,
		Locale: "en",
		PreferredVoices: []string{
			"Google UK English Female",
			"Microsoft Zira",
			"Samantha",
		},
	}

	ProfileBright = Profile{
		Name:   "bright",
		Rate:   0.9,
		Pitch:  1.2,
		Locale: "en",
		PreferredVoices: []string{
			"Google UK English Female",
			"Microsoft Zira",
			"Samantha",
			"Google US English Female",
			"Microsoft Hazel",
			"Karen",
			"Victoria",
			"Kate",
			"Fiona",
			"Susan",
			"Mary",
			"Sarah",
			"Alice",
		},
	}
)

// DefaultProfile is used when no profile is configured.
var DefaultProfile = ProfileCalm

// LookupProfile returns a copy of the named built-in profile.
func LookupProfile(name string) (Profile, error) {
	var p Profile
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileCalm.Name:
		p = ProfileCalm
	case ProfileBright.Name:
		p = ProfileBright
	default:
		return Profile{}, fmt.Errorf("unknown narration profile %q", name)
	}
	p.PreferredVoices = append([]string(nil), p.PreferredVoices...)
	return p, nil
}

// SelectVoice picks a voice for the profile, or nil for the platform default.
//
// Priority: allow-list entries in order (exact or contained name, case
// insensitive), then a "female" voice in the locale, then any locale voice
// whose name does not contain "male".
func SelectVoice(voices []Voice, p Profile) *Voice {
	if len(voices) == 0 {
		return nil
	}

	for _, preferred := range p.PreferredVoices {
		want := strings.ToLower(strings.TrimSpace(preferred))
		if want == "" {
			continue
		}
		for i := range voices {
			if strings.Contains(strings.ToLower(voices[i].Name), want) {
				return &voices[i]
			}
		}
	}

	for i := range voices {
		if strings.Contains(strings.ToLower(voices[i].Name), "female") && inLocale(voices[i], p.Locale) {
			return &voices[i]
		}
	}

	// "female" contains "male", so this pass also skips female-named voices.
	for i := range voices {
		if inLocale(voices[i], p.Locale) && !strings.Contains(strings.ToLower(voices[i].Name), "male") {
			return &voices[i]
		}
	}

	return nil
}

func inLocale(v Voice, locale string) bool {
	return strings.HasPrefix(strings.ToLower(v.Lang), strings.ToLower(locale))
}
