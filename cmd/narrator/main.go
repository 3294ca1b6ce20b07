// Narrator is the narration and feedback audio daemon of the learning app.
// It speaks sentences to the child and plays short tone cues, honouring the
// audio settings the app controls over HTTP or gRPC.
//
// Usage:
//
//	narrator [flags]
//	narrator --config /path/to/narrator.yaml
//
//	@title			Narrator API
//	@version		1.0
//	@description	Narration and tone cue service for a children's learning app.
//	@license.name	MIT
//	@BasePath		/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nadzzz/narrator/internal/bridge"
	"github.com/nadzzz/narrator/internal/config"
	_ "github.com/nadzzz/narrator/internal/docs"
	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/health"
	"github.com/nadzzz/narrator/internal/observability"
	"github.com/nadzzz/narrator/internal/playback"
	"github.com/nadzzz/narrator/internal/tone"
	"github.com/nadzzz/narrator/internal/transport"
	grpctransport "github.com/nadzzz/narrator/internal/transport/grpc"
	httptransport "github.com/nadzzz/narrator/internal/transport/http"
	"github.com/nadzzz/narrator/internal/tts"
	"github.com/nadzzz/narrator/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/narrator.local.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("narrator %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("narrator starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(cfg.Metrics.Namespace, reg)
	}

	profile, err := cfg.Audio.NarrationProfile()
	if err != nil {
		slog.Error("invalid narration profile", "error", err)
		os.Exit(1)
	}

	backends, err := newBackends(cfg, metrics)
	if err != nil {
		slog.Error("failed to initialise audio backends", "error", err)
		os.Exit(1)
	}
	defer backends.Close()

	initial := cfg.Audio.InitialSettings()
	svc := feedback.New(feedback.Options{
		Speech:  backends.speech,
		Tones:   backends.tones,
		Profile: profile,
		Initial: &initial,
		Strict:  cfg.Audio.Strict,
		Metrics: metrics,
	})
	slog.Info("feedback service ready",
		"profile", profile.Name,
		"speech_backend", cfg.Speech.Backend,
		"tone_backend", cfg.Tones.Backend,
		"volume", initial.Volume)

	// Initialize enabled transports.
	var transports []transport.Transport

	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		var metricsHandler http.Handler
		if metrics != nil {
			metricsHandler = metrics.Handler()
		}
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, backends.bridgeHandler(), metricsHandler))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}
	if backends.hub != nil && !cfg.Transports.HTTP.Enabled {
		slog.Error("the bridge backend needs the http transport for browsers to connect")
		os.Exit(1)
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	healthServer.AddCheck("speech", backends.speechAvailable)
	healthServer.AddCheck("tones", backends.tonesAvailable)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, svc); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("narrator ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("narrator stopped")
}

// audioBackends holds the speech and tone backends selected by config.
type audioBackends struct {
	speech  feedback.SpeechSynthesizer
	tones   feedback.ToneSynthesizer
	hub     *bridge.Hub
	closers []func() error
}

func newBackends(cfg *config.Config, metrics *observability.Metrics) (*audioBackends, error) {
	b := &audioBackends{}

	var player playback.Player
	localPlayer := func() playback.Player {
		if player == nil {
			player = playback.New(cfg.Playback.Command)
		}
		return player
	}
	hub := func() *bridge.Hub {
		if b.hub == nil {
			b.hub = bridge.New(bridge.Options{
				AllowAnyOrigin: cfg.Bridge.AllowAnyOrigin,
				Metrics:        metrics,
			})
			b.closers = append(b.closers, b.hub.Close)
		}
		return b.hub
	}

	switch cfg.Speech.Backend {
	case config.BackendPiper:
		synth := piper.New(cfg.Speech.Piper)
		b.closers = append(b.closers, synth.Close)
		speaker := tts.NewSpeaker("piper", synth, localPlayer(), metrics)
		b.closers = append(b.closers, func() error {
			speaker.Cancel()
			speaker.Wait()
			return nil
		})
		b.speech = speaker
		slog.Info("using piper speech backend", "endpoint", cfg.Speech.Piper.Endpoint, "endpoints", len(cfg.Speech.Piper.Endpoints))
	case config.BackendBridge:
		b.speech = hub()
		slog.Info("using browser bridge speech backend")
	case config.BackendNone:
		slog.Info("speech disabled")
	default:
		return nil, fmt.Errorf("unknown speech backend %q", cfg.Speech.Backend)
	}

	switch cfg.Tones.Backend {
	case config.BackendLocal:
		b.tones = tone.New(localPlayer(), cfg.Tones.SampleRate, metrics)
		slog.Info("using local tone backend", "sample_rate", cfg.Tones.SampleRate)
	case config.BackendBridge:
		b.tones = hub()
		slog.Info("using browser bridge tone backend")
	case config.BackendNone:
		slog.Info("tones disabled")
	default:
		return nil, fmt.Errorf("unknown tone backend %q", cfg.Tones.Backend)
	}

	return b, nil
}

// bridgeHandler returns the WebSocket endpoint, or nil without a bridge.
func (b *audioBackends) bridgeHandler() http.Handler {
	if b.hub == nil {
		return nil
	}
	return b.hub
}

func (b *audioBackends) speechAvailable() bool { return feedback.IsAvailable(b.speech) }
func (b *audioBackends) tonesAvailable() bool  { return feedback.IsAvailable(b.tones) }

// Close releases backends in reverse order of creation.
func (b *audioBackends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("closing audio backend", "error", err)
		}
	}
}
