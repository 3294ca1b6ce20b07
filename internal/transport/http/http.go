// Package http implements the HTTP/WebSocket transport for the narrator.
//
// This transport exposes a small REST API for narration, tone cues and
// settings, the WebSocket endpoint browsers use to render audio, Prometheus
// metrics and the Swagger UI.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/message"
	"github.com/nadzzz/narrator/internal/transport"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const maxBodyBytes = 64 << 10

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port    int
	bridge  http.Handler // serves GET /ws; nil disables the route
	metrics http.Handler // serves GET /metrics; nil disables the route
	server  *http.Server
}

// New creates a new HTTP transport on the given port.
func New(port int, bridge, metrics http.Handler) *Transport {
	return &Transport{port: port, bridge: bridge, metrics: metrics}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server and routes incoming requests to the controller.
func (t *Transport) Listen(ctx context.Context, ctl transport.Controller) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(ctl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Handler builds the request router for ctl.
func (t *Transport) Handler(ctl transport.Controller) http.Handler {
	h := &handlers{ctl: ctl}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /narrations", h.handleNarration)
	mux.HandleFunc("POST /sounds", h.handleSound)
	mux.HandleFunc("GET /settings", h.handleSettings)
	mux.HandleFunc("PUT /settings/volume", h.handleVolume)
	mux.HandleFunc("POST /settings/audio/toggle", h.handleToggleAudio)
	mux.HandleFunc("POST /settings/music/toggle", h.handleToggleMusic)
	mux.HandleFunc("GET /voices", h.handleVoices)

	// GET /ws: browsers render narration and tones for the bridge backend.
	if t.bridge != nil {
		mux.Handle("GET /ws", t.bridge)
	}

	if t.metrics != nil {
		mux.Handle("GET /metrics", t.metrics)
	}

	// Swagger UI: serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

type handlers struct {
	ctl transport.Controller
}

// handleNarration processes a POST /narrations request.
//
// @Summary     Narrate text
// @Description Speaks the text with the active narration profile, cancelling any narration still playing.
// @Description The call returns before speech finishes. Muted audio, blank text or a missing speech
// @Description backend make it a silent no-op.
// @Tags        narration
// @Accept      json
// @Produce     json
// @Param       request  body      message.NarrationRequest  true  "Text to speak"
// @Success     202      {object}  message.AcceptedResponse
// @Failure     400      {object}  message.ErrorResponse  "Invalid request body"
// @Router      /narrations [post]
func (h *handlers) handleNarration(w http.ResponseWriter, r *http.Request) {
	var req message.NarrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.ctl.PlayNarration(req.Text)
	respondJSON(w, http.StatusAccepted, message.AcceptedResponse{Status: "accepted"})
}

// handleSound processes a POST /sounds request.
//
// @Summary     Play a tone cue
// @Description Schedules the notes of a click, success, error or celebration cue at the current volume.
// @Tags        sounds
// @Accept      json
// @Produce     json
// @Param       request  body      message.SoundRequest  true  "Cue kind"
// @Success     202      {object}  message.AcceptedResponse
// @Failure     400      {object}  message.ErrorResponse  "Invalid body or unknown kind"
// @Router      /sounds [post]
func (h *handlers) handleSound(w http.ResponseWriter, r *http.Request) {
	var req message.SoundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := feedback.ParseToneKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.ctl.PlaySound(kind)
	respondJSON(w, http.StatusAccepted, message.AcceptedResponse{Status: "accepted"})
}

// handleSettings processes a GET /settings request.
//
// @Summary     Read settings
// @Tags        settings
// @Produce     json
// @Success     200  {object}  message.SettingsResponse
// @Router      /settings [get]
func (h *handlers) handleSettings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, message.FromSettings(h.ctl.Settings()))
}

// handleVolume processes a PUT /settings/volume request.
//
// @Summary     Set the master volume
// @Description Values outside [0, 1] are clamped. Takes effect for the next narration or cue.
// @Tags        settings
// @Accept      json
// @Produce     json
// @Param       request  body      message.VolumeRequest  true  "New volume"
// @Success     200      {object}  message.SettingsResponse
// @Failure     400      {object}  message.ErrorResponse  "Missing or invalid volume"
// @Router      /settings/volume [put]
func (h *handlers) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req message.VolumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Volume == nil {
		respondError(w, http.StatusBadRequest, "volume is required")
		return
	}
	h.ctl.SetVolume(*req.Volume)
	respondJSON(w, http.StatusOK, message.FromSettings(h.ctl.Settings()))
}

// handleToggleAudio processes a POST /settings/audio/toggle request.
//
// @Summary     Toggle audio
// @Description Flips the master audio switch. Switching off stops the current narration.
// @Tags        settings
// @Produce     json
// @Success     200  {object}  message.ToggleResponse
// @Router      /settings/audio/toggle [post]
func (h *handlers) handleToggleAudio(w http.ResponseWriter, _ *http.Request) {
	enabled := h.ctl.ToggleAudio()
	respondJSON(w, http.StatusOK, message.ToggleResponse{
		Enabled:  enabled,
		Settings: message.FromSettings(h.ctl.Settings()),
	})
}

// handleToggleMusic processes a POST /settings/music/toggle request.
//
// @Summary     Toggle background music
// @Tags        settings
// @Produce     json
// @Success     200  {object}  message.ToggleResponse
// @Router      /settings/music/toggle [post]
func (h *handlers) handleToggleMusic(w http.ResponseWriter, _ *http.Request) {
	enabled := h.ctl.ToggleMusic()
	respondJSON(w, http.StatusOK, message.ToggleResponse{
		Enabled:  enabled,
		Settings: message.FromSettings(h.ctl.Settings()),
	})
}

// handleVoices processes a GET /voices request.
//
// @Summary     List voices
// @Description Lists the speech backend's voices and the one the active profile selects.
// @Tags        narration
// @Produce     json
// @Success     200  {object}  message.VoicesResponse
// @Failure     502  {object}  message.ErrorResponse  "Speech backend failed to list voices"
// @Router      /voices [get]
func (h *handlers) handleVoices(w http.ResponseWriter, r *http.Request) {
	listing, err := h.ctl.Voices(r.Context())
	if err != nil {
		slog.Warn("voice listing failed", "error", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, message.FromVoiceListing(h.ctl.Profile().Name, listing))
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, message.ErrorResponse{Error: msg})
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
