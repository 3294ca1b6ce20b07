// Package transport defines the interface for pluggable control transports.
//
// Each transport (HTTP/WebSocket, gRPC) implements this interface and drives
// the same Controller. The controller doesn't care how requests arrive; it
// only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/narrator/internal/feedback"
)

// Controller is the feedback surface exposed to clients. *feedback.Service
// implements it.
type Controller interface {
	PlayNarration(text string)
	PlaySound(kind feedback.ToneKind)
	Settings() feedback.Settings
	ToggleAudio() bool
	SetVolume(v float64)
	ToggleMusic() bool
	Voices(ctx context.Context) (feedback.VoiceListing, error)
	Profile() feedback.Profile
}

var _ Controller = (*feedback.Service)(nil)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and forwards them to the controller.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, ctl Controller) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
