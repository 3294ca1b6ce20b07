package wav

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Header(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}

	out, err := Encode(pcm, Mono16(22050))
	require.NoError(t, err)

	require.Len(t, out, HeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(out[24:28]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(out[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(out[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(out[34:36]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(out[40:44]))
	assert.Equal(t, pcm, out[44:])
}

func TestEncode_InvalidFormat(t *testing.T) {
	_, err := Encode(nil, Format{})
	assert.Error(t, err)
}

func TestScalePCM16(t *testing.T) {
	pcm := make([]byte, 6)
	for i, s := range []int16{1000, -1000, 30000} {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(s))
	}

	ScalePCM16(pcm, 2)

	assert.Equal(t, int16(2000), int16(binary.LittleEndian.Uint16(pcm[0:])))
	assert.Equal(t, int16(-2000), int16(binary.LittleEndian.Uint16(pcm[2:])))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(pcm[4:])))
}

func TestClampSample(t *testing.T) {
	assert.Equal(t, int16(0), ClampSample(0.2))
	assert.Equal(t, int16(1), ClampSample(0.6))
	assert.Equal(t, int16(-1), ClampSample(-0.6))
	assert.Equal(t, int16(-32768), ClampSample(-40000))
}
