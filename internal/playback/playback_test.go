package playback

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_MissingProgramUnavailable(t *testing.T) {
	c := NewCommand([]string{"definitely-not-an-audio-player-xyz"})
	assert.False(t, c.Available())
}

func TestCommand_DefaultArgv(t *testing.T) {
	c := NewCommand(nil)
	assert.Equal(t, DefaultCommand, c.argv)
}

func TestCommand_PlayPipesStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	c := NewCommand([]string{"cat"})
	require.True(t, c.Available())

	err := c.Play(context.Background(), []byte("RIFF...."))
	assert.NoError(t, err)
}

func TestCommand_PlayReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	c := NewCommand([]string{"false"})

	err := c.Play(context.Background(), nil)
	assert.Error(t, err)
}

func TestCommand_CancelStopsPlayback(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	c := NewCommand([]string{"sleep", "10"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Play(ctx, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("playback was not cancelled")
	}
}

func TestDiscard(t *testing.T) {
	var p Player = Discard{}
	assert.True(t, p.Available())
	assert.NoError(t, p.Play(context.Background(), []byte{1}))
}

func TestNew(t *testing.T) {
	assert.Equal(t, Discard{}, New([]string{CommandNone}))

	p := New([]string{"cat"})
	require.IsType(t, &Command{}, p)
	assert.Equal(t, []string{"cat"}, p.(*Command).argv)

	assert.IsType(t, &Command{}, New(nil))
}
