// Package playback plays WAV audio through an external player program.
//
// The player reads the WAV stream from stdin (aplay, paplay and ffplay all
// accept "-" or stdin). Cancelling the context kills the process, which is
// how narration is cut off mid-sentence.
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Player plays a complete WAV file. Play blocks until playback ends or ctx
// is cancelled.
type Player interface {
	Play(ctx context.Context, wav []byte) error
	Available() bool
}

// DefaultCommand is used when no player command is configured.
var DefaultCommand = []string{"aplay", "-q", "-"}

// Command plays audio by piping it into an external program.
type Command struct {
	argv []string

	once      sync.Once
	available bool
}

// NewCommand creates a player for argv, e.g. ["paplay"].
func NewCommand(argv []string) *Command {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	return &Command{argv: append([]string(nil), argv...)}
}

// Available reports whether the player program can be found on PATH.
func (c *Command) Available() bool {
	c.once.Do(func() {
		_, err := exec.LookPath(c.argv[0])
		c.available = err == nil
		if err != nil {
			slog.Warn("audio player not found, playback disabled", "command", c.argv[0])
		}
	})
	return c.available
}

// Play pipes wav into the player and waits for it to exit.
func (c *Command) Play(ctx context.Context, wav []byte) error {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = bytes.NewReader(wav)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s failed: %w: %s", c.argv[0], err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("running %s: %w", c.argv[0], err)
	}
	return nil
}

// CommandNone selects Discard when given as the whole player command.
const CommandNone = "none"

// New returns the Player for argv: Discard for ["none"], a Command otherwise.
func New(argv []string) Player {
	if len(argv) == 1 && argv[0] == CommandNone {
		return Discard{}
	}
	return NewCommand(argv)
}

// Discard is a Player that accepts audio and plays nothing, for hosts
// without a sound device.
type Discard struct{}

func (Discard) Play(ctx context.Context, _ []byte) error { return ctx.Err() }
func (Discard) Available() bool                          { return true }
