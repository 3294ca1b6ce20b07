// Package config handles loading and validating the narrator configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nadzzz/narrator/internal/feedback"
)

// Config is the root configuration for the narrator daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Tones      TonesConfig      `mapstructure:"tones"`
	Playback   PlaybackConfig   `mapstructure:"playback"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// AudioConfig holds the initial settings and narration tuning.
type AudioConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Volume       float64 `mapstructure:"volume"`
	MusicEnabled bool    `mapstructure:"music_enabled"`
	Strict       bool    `mapstructure:"strict"` // panic on unknown tone kinds (development)

	// Profile names a built-in narration profile ("calm" or "bright").
	// The fields below override it when set.
	Profile         string   `mapstructure:"profile"`
	Rate            float64  `mapstructure:"rate"`
	Pitch           float64  `mapstructure:"pitch"`
	Locale          string   `mapstructure:"locale"`
	PreferredVoices []string `mapstructure:"preferred_voices"`
}

// SpeechConfig selects and configures the narration backend.
type SpeechConfig struct {
	Backend string      `mapstructure:"backend"` // "piper", "bridge" or "none"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps language prefixes to
// individual Wyoming TCP endpoints. If both are set, Endpoints takes
// precedence and Endpoint is the fallback.
type PiperConfig struct {
	Endpoint      string            `mapstructure:"endpoint"`        // Default Wyoming TCP endpoint (host:port)
	Endpoints     map[string]string `mapstructure:"endpoints"`       // language prefix -> Wyoming TCP endpoint
	Voices        map[string]string `mapstructure:"voices"`          // language prefix -> Piper voice model name
	VoiceCacheTTL time.Duration     `mapstructure:"voice_cache_ttl"` // how long discovered voices are reused
}

// TonesConfig selects and configures the tone cue backend.
type TonesConfig struct {
	Backend    string `mapstructure:"backend"` // "local", "bridge" or "none"
	SampleRate int    `mapstructure:"sample_rate"`
}

// PlaybackConfig configures the external player used by local backends.
type PlaybackConfig struct {
	Command []string `mapstructure:"command"` // reads WAV on stdin, e.g. ["aplay", "-q", "-"]
}

// BridgeConfig configures the browser WebSocket bridge.
type BridgeConfig struct {
	AllowAnyOrigin bool `mapstructure:"allow_any_origin"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Backend names accepted by speech.backend and tones.backend.
const (
	BackendPiper  = "piper"
	BackendLocal  = "local"
	BackendBridge = "bridge"
	BackendNone   = "none"
)

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./narrator.yaml, ./configs/narrator.yaml, /etc/narrator/narrator.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.volume", 0.7)
	v.SetDefault("audio.music_enabled", true)
	v.SetDefault("audio.strict", false)
	v.SetDefault("audio.profile", "calm")
	v.SetDefault("speech.backend", BackendBridge)
	v.SetDefault("speech.piper.endpoint", "localhost:10200")
	v.SetDefault("speech.piper.voice_cache_ttl", "5m")
	v.SetDefault("tones.backend", BackendBridge)
	v.SetDefault("tones.sample_rate", 44100)
	v.SetDefault("playback.command", []string{"aplay", "-q", "-"})
	v.SetDefault("bridge.allow_any_origin", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "narrator")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("narrator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/narrator")
	}

	// Environment variables: NARRATOR_AUDIO_VOLUME, NARRATOR_SPEECH_BACKEND, etc.
	v.SetEnvPrefix("NARRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references (e.g., "${PIPER_HOST}") in endpoints.
	cfg.Speech.Piper.Endpoint = resolveEnvRef(cfg.Speech.Piper.Endpoint)
	for lang, ep := range cfg.Speech.Piper.Endpoints {
		cfg.Speech.Piper.Endpoints[lang] = resolveEnvRef(ep)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	switch c.Speech.Backend {
	case BackendPiper, BackendBridge, BackendNone:
	default:
		return fmt.Errorf("speech.backend: unknown backend %q", c.Speech.Backend)
	}
	switch c.Tones.Backend {
	case BackendLocal, BackendBridge, BackendNone:
	default:
		return fmt.Errorf("tones.backend: unknown backend %q", c.Tones.Backend)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be within [0, 1], got %v", c.Audio.Volume)
	}
	if c.Audio.Rate < 0 || c.Audio.Pitch < 0 {
		return fmt.Errorf("audio.rate and audio.pitch must not be negative")
	}
	if _, err := c.Audio.NarrationProfile(); err != nil {
		return err
	}
	if c.Tones.SampleRate <= 0 {
		return fmt.Errorf("tones.sample_rate must be positive")
	}
	if c.Speech.Backend == BackendPiper && c.Speech.Piper.Endpoint == "" && len(c.Speech.Piper.Endpoints) == 0 {
		return fmt.Errorf("speech.piper: endpoint or endpoints is required")
	}
	return nil
}

// NarrationProfile resolves the named profile and applies any overrides.
func (a AudioConfig) NarrationProfile() (feedback.Profile, error) {
	p, err := feedback.LookupProfile(a.Profile)
	if err != nil {
		return feedback.Profile{}, fmt.Errorf("audio.profile: %w", err)
	}
	if a.Rate > 0 {
		p.Rate = a.Rate
	}
	if a.Pitch > 0 {
		p.Pitch = a.Pitch
	}
	if a.Locale != "" {
		p.Locale = a.Locale
	}
	if len(a.PreferredVoices) > 0 {
		p.PreferredVoices = append([]string(nil), a.PreferredVoices...)
	}
	return p, nil
}

// InitialSettings returns the settings the service starts with.
func (a AudioConfig) InitialSettings() feedback.Settings {
	return feedback.Settings{Enabled: a.Enabled, Volume: a.Volume, MusicEnabled: a.MusicEnabled}
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
