package narration

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMToWAVHeaderLayout(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00} // 4 samples
	wav := PCMToWAV(pcm, 24000)

	require.Len(t, wav, 44+len(pcm))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))

	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "audio format must be PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "must be mono")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate = rate * 2")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")

	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

func TestPCMToWAVIsDeterministic(t *testing.T) {
	pcm := make([]byte, 4800)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}

	first := PCMToWAV(pcm, 24000)
	second := PCMToWAV(pcm, 24000)
	assert.Equal(t, first, second)
}

func TestPCMToWAVEmptyPayload(t *testing.T) {
	wav := PCMToWAV(nil, 44100)

	require.Len(t, wav, 44)
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(wav[24:28]))
}

func TestPCMToWAVDifferentRatesDiffer(t *testing.T) {
	pcm := []byte{0x01, 0x00}
	assert.NotEqual(t, PCMToWAV(pcm, 24000), PCMToWAV(pcm, 16000))
}
