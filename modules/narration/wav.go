package narration

import (
	"bytes"
	"encoding/binary"
)

// PCMToWAV wraps raw 16-bit mono PCM in a 44-byte RIFF/WAVE header.
// The output is fully determined by its inputs: same PCM and rate,
// same bytes.
func PCMToWAV(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	bytesPerSample := bitsPerSample / 8
	blockAlign := numChannels * bytesPerSample
	byteRate := sampleRate * blockAlign
	dataSize := len(pcm)
	fileSize := 36 + dataSize

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))             // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))              // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))    // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))     // sample rate
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))       // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))     // block align
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))  // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes()
}
