// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200. Synthesis sends a
// "synthesize" event and collects audio-start, audio-chunk* and audio-stop;
// voice discovery sends "describe" and reads the "info" reply.
package piper

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/nadzzz/narrator/internal/config"
	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/tts"
)

const (
	dialTimeout = 10 * time.Second
	ioTimeout   = 30 * time.Second

	voicesKey       = "voices"
	voicesErrKey    = "voices_err"
	voiceFailureTTL = 30 * time.Second
)

// defaultVoices maps language prefixes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_GB-alba-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"nl": "nl_NL-mls-medium",
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port of the Piper Wyoming server
	endpoints map[string]string // language -> host:port for per-language Piper instances
	voices    map[string]string // language -> voice name overrides
	cache     *cache.Cache      // discovered voices, and the last discovery failure

	failureTTL time.Duration
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	// Merge user-configured voices with defaults.
	voices := make(map[string]string, len(defaultVoices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[strings.ToLower(k)] = v
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[strings.ToLower(lang)] = cleanEndpoint(ep)
	}

	ttl := cfg.VoiceCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		cache:     cache.New(ttl, 2*ttl),

		failureTTL: min(ttl, voiceFailureTTL),
	}
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	ep = strings.TrimPrefix(ep, "http://")
	return ep
}

// Synthesize sends text to the Piper server and returns the raw PCM.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	lang := strings.ToLower(opts.Language)

	// Select voice based on language or explicit override.
	voice := opts.Voice
	if voice == "" {
		voice = s.voices[lang]
	}
	if voice == "" {
		voice = s.voices["en"]
	}

	endpoint := s.endpointFor(lang)
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "language", lang, "endpoint", endpoint)

	conn, r, err := dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	synthEvent := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{
			"text": text,
			"voice": map[string]any{
				"name": voice,
			},
		},
	}
	if err := writeEvent(conn, synthEvent, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	// Read response events: audio-start → audio-chunk* → audio-stop
	var (
		pcmBuf bytes.Buffer
		result = tts.SynthesizeResult{SampleRate: 22050, Channels: 1, Width: 2}
	)

	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			result.SampleRate = intField(evt.Data, "rate", result.SampleRate)
			result.Channels = intField(evt.Data, "channels", result.Channels)
			result.Width = intField(evt.Data, "width", result.Width)
			slog.Debug("piper audio-start", "rate", result.SampleRate, "channels", result.Channels, "width", result.Width)

		case "audio-chunk":
			pcmBuf.Write(payload)

		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", pcmBuf.Len())
			result.PCM = pcmBuf.Bytes()
			return &result, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Voices returns the installed Piper voices across all configured servers.
// Results are cached; a failing server is skipped as long as one answers.
// When none answers the failure is cached briefly, so an unreachable server
// costs one timeout per failure TTL rather than one per narration.
func (s *Synthesizer) Voices(ctx context.Context) ([]feedback.Voice, error) {
	if cached, ok := s.cache.Get(voicesKey); ok {
		return cached.([]feedback.Voice), nil
	}
	if cached, ok := s.cache.Get(voicesErrKey); ok {
		return nil, cached.(error)
	}

	seen := make(map[string]bool)
	var (
		voices  []feedback.Voice
		lastErr error
		answers int
	)
	for _, ep := range s.allEndpoints() {
		found, err := describe(ctx, ep)
		if err != nil {
			slog.Debug("piper describe failed", "endpoint", ep, "error", err)
			lastErr = err
			continue
		}
		answers++
		for _, v := range found {
			if !seen[v.Name] {
				seen[v.Name] = true
				voices = append(voices, v)
			}
		}
	}
	if answers == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no piper endpoint configured")
		}
		err := fmt.Errorf("listing piper voices: %w", lastErr)
		if !errors.Is(ctx.Err(), context.Canceled) {
			s.cache.Set(voicesErrKey, err, s.failureTTL)
		}
		return nil, err
	}

	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	s.cache.SetDefault(voicesKey, voices)
	return voices, nil
}

// Close is a no-op: connections are per-request.
func (s *Synthesizer) Close() error { return nil }

func (s *Synthesizer) endpointFor(lang string) string {
	if ep := s.endpoints[lang]; ep != "" {
		return ep
	}
	return s.endpoint
}

func (s *Synthesizer) allEndpoints() []string {
	var eps []string
	seen := make(map[string]bool)
	add := func(ep string) {
		if ep != "" && !seen[ep] {
			seen[ep] = true
			eps = append(eps, ep)
		}
	}
	add(s.endpoint)
	langs := make([]string, 0, len(s.endpoints))
	for lang := range s.endpoints {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		add(s.endpoints[lang])
	}
	return eps
}

func dial(ctx context.Context, endpoint string) (net.Conn, *bufio.Reader, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to piper: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(ioTimeout))
	}

	// Unblock reads as soon as the narration is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	return &stopConn{Conn: conn, stop: stop}, bufio.NewReader(conn), nil
}

type stopConn struct {
	net.Conn
	stop func() bool
}

func (c *stopConn) Close() error {
	c.stop()
	return c.Conn.Close()
}

func describe(ctx context.Context, endpoint string) ([]feedback.Voice, error) {
	conn, r, err := dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeEvent(conn, wyomingEvent{Type: "describe"}, nil); err != nil {
		return nil, fmt.Errorf("sending describe event: %w", err)
	}

	for {
		evt, _, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}
		if evt.Type == "info" {
			return parseInfo(evt.Data), nil
		}
		slog.Debug("piper unexpected event while describing", "type", evt.Type)
	}
}

// parseInfo extracts installed voices from an "info" event.
func parseInfo(data map[string]any) []feedback.Voice {
	var voices []feedback.Voice
	programs, _ := data["tts"].([]any)
	for _, p := range programs {
		program, ok := p.(map[string]any)
		if !ok {
			continue
		}
		entries, _ := program["voices"].([]any)
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if installed, ok := entry["installed"].(bool); ok && !installed {
				continue
			}
			name, _ := entry["name"].(string)
			if name == "" {
				continue
			}
			v := feedback.Voice{Name: name}
			if langs, ok := entry["languages"].([]any); ok && len(langs) > 0 {
				v.Lang, _ = langs[0].(string)
			}
			voices = append(voices, v)
		}
	}
	return voices
}
