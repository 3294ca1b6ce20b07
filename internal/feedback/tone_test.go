package feedback

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestParseToneKind(t *testing.T) {
	for _, kind := range ToneKinds() {
		got, err := ParseToneKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	got, err := ParseToneKind("  Success ")
	require.NoError(t, err)
	assert.Equal(t, ToneSuccess, got)

	_, err = ParseToneKind("whistle")
	assert.ErrorIs(t, err, ErrUnknownToneKind)
}

func TestNotes(t *testing.T) {
	notes := Notes(ToneSuccess, 1.0)
	require.Len(t, notes, 3)
	assert.Equal(t, 523.0, notes[0].Frequency)
	assert.Equal(t, 659.0, notes[1].Frequency)
	assert.Equal(t, 784.0, notes[2].Frequency)
	assert.Equal(t, 200*time.Millisecond, notes[2].Start)
	assert.InDelta(t, 0.3, notes[0].PeakGain, 1e-12)

	assert.Nil(t, Notes(ToneKind("whistle"), 1.0))
	assert.Zero(t, Notes(ToneClick, 0)[0].PeakGain)
}

func TestClampVolume(t *testing.T) {
	v, ok := ClampVolume(-1)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = ClampVolume(math.Inf(1))
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = ClampVolume(nan())
	assert.False(t, ok)
}
