// Package bridge drives narration and tone cues in connected browsers.
//
// Browsers connect over WebSocket and render commands with their own speech
// and Web Audio engines:
//
//	server -> client: speak, cancel, tone
//	client -> server: voices, ended
//
// The Hub is both a feedback.SpeechSynthesizer and a feedback.ToneSynthesizer.
// It is available while at least one browser is connected.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/observability"
)

// MessageType identifies WebSocket payload variants.
type MessageType string

const (
	TypeSpeak  MessageType = "speak"
	TypeCancel MessageType = "cancel"
	TypeTone   MessageType = "tone"
	TypeVoices MessageType = "voices"
	TypeEnded  MessageType = "ended"
)

// ErrNoClients is returned when a command has nowhere to go.
var ErrNoClients = errors.New("no bridge clients connected")

const (
	sendQueue    = 64
	writeTimeout = 10 * time.Second
	readTimeout  = 120 * time.Second
	pingInterval = 50 * time.Second
	maxMessage   = 1 << 20
)

// SpeakMessage asks the browser to speak one utterance.
type SpeakMessage struct {
	Type   MessageType `json:"type"`
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Voice  string      `json:"voice,omitempty"`
	Lang   string      `json:"lang,omitempty"`
	Rate   float64     `json:"rate"`
	Pitch  float64     `json:"pitch"`
	Volume float64     `json:"volume"`
}

// CancelMessage stops whatever the browser is speaking.
type CancelMessage struct {
	Type MessageType `json:"type"`
}

// ToneMessage schedules one oscillator note, start_ms after receipt.
type ToneMessage struct {
	Type       MessageType `json:"type"`
	Frequency  float64     `json:"frequency"`
	StartMs    int64       `json:"start_ms"`
	DurationMs int64       `json:"duration_ms"`
	PeakGain   float64     `json:"peak_gain"`
	Waveform   string      `json:"waveform"`
}

// ClientMessage is anything a browser sends.
type ClientMessage struct {
	Type   MessageType      `json:"type"`
	Voices []feedback.Voice `json:"voices,omitempty"` // voices
	ID     string           `json:"id,omitempty"`     // ended
}

// Options configures a Hub.
type Options struct {
	AllowAnyOrigin bool
	Metrics        *observability.Metrics
}

var (
	_ feedback.SpeechSynthesizer = (*Hub)(nil)
	_ feedback.ToneSynthesizer   = (*Hub)(nil)
	_ feedback.Activity          = (*Hub)(nil)
	_ http.Handler               = (*Hub)(nil)
)

// Hub fans commands out to every connected browser.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *observability.Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
	seq     uint64
	current string // id of the utterance being spoken
	closed  bool
}

type client struct {
	id     string
	seq    uint64
	conn   *websocket.Conn
	send   chan any
	done   chan struct{}
	once   sync.Once
	voices []feedback.Voice // guarded by Hub.mu
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// New creates a Hub.
func New(opts Options) *Hub {
	return &Hub{
		metrics: opts.Metrics,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if opts.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// Available reports whether any browser is connected.
func (h *Hub) Available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Current returns the id of the utterance being spoken, or "".
func (h *Hub) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Speak sends u to every browser.
func (h *Hub) Speak(_ context.Context, u feedback.Utterance) error {
	msg := SpeakMessage{
		Type:   TypeSpeak,
		ID:     u.ID,
		Text:   u.Text,
		Lang:   u.Lang,
		Rate:   u.Rate,
		Pitch:  u.Pitch,
		Volume: u.Volume,
	}
	if u.Voice != nil {
		msg.Voice = u.Voice.Name
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.broadcastLocked(msg); err != nil {
		return err
	}
	h.current = u.ID
	return nil
}

// Cancel tells every browser to stop speaking.
func (h *Hub) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = ""
	_ = h.broadcastLocked(CancelMessage{Type: TypeCancel})
}

// ScheduleNote sends n to every browser.
func (h *Hub) ScheduleNote(n feedback.Note) error {
	msg := ToneMessage{
		Type:       TypeTone,
		Frequency:  n.Frequency,
		StartMs:    n.Start.Milliseconds(),
		DurationMs: n.Duration.Milliseconds(),
		PeakGain:   n.PeakGain,
		Waveform:   string(n.Waveform),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcastLocked(msg)
}

// Voices returns the voices reported by connected browsers, deduplicated by
// name in connection order.
func (h *Hub) Voices(context.Context) ([]feedback.Voice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool)
	var voices []feedback.Voice
	for _, c := range h.orderedLocked() {
		for _, v := range c.voices {
			if !seen[v.Name] {
				seen[v.Name] = true
				voices = append(voices, v)
			}
		}
	}
	return voices, nil
}

// Close disconnects every browser and refuses new connections.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	return nil
}

// ServeHTTP upgrades the request and serves one browser until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "bridge closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, sendQueue),
		done: make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(c)
	}()

	h.readLoop(c)
	c.close()
	<-writerDone
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.seq++
	c.seq = h.seq
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetBridgeClients(n)
	slog.Info("bridge client connected", "client", c.id, "clients", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	if n == 0 {
		h.current = ""
	}
	h.mu.Unlock()

	h.metrics.SetBridgeClients(n)
	slog.Info("bridge client disconnected", "client", c.id, "clients", n)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.close()
				return
			}
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				h.metrics.BackendError("bridge", "write")
				slog.Debug("bridge write failed", "client", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("bridge invalid client message", "client", c.id, "error", err)
			continue
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *client, msg ClientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch msg.Type {
	case TypeVoices:
		c.voices = msg.Voices
		slog.Debug("bridge voices reported", "client", c.id, "count", len(msg.Voices))
	case TypeEnded:
		if msg.ID != "" && msg.ID == h.current {
			h.current = ""
		}
	default:
		slog.Debug("bridge unknown client message", "client", c.id, "type", msg.Type)
	}
}

// broadcastLocked queues msg for every client. A client whose queue is full
// misses the message. Callers hold h.mu.
func (h *Hub) broadcastLocked(msg any) error {
	if len(h.clients) == 0 {
		return ErrNoClients
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.metrics.BackendError("bridge", "drop")
			slog.Warn("bridge send queue full, dropping message", "client", c.id, "type", fmt.Sprintf("%T", msg))
		}
	}
	return nil
}

// orderedLocked returns clients in connection order.
func (h *Hub) orderedLocked() []*client {
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
