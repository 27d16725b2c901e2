package fixtures

import (
	"encoding/binary"
	"math"
)

const (
	sampleRate    = 44100
	bitsPerSample = 16
	toneHz        = 440
)

// WAVBytes builds a deterministic mono 16-bit PCM WAV file containing a
// 440 Hz sine tone. The same duration always yields the same bytes, so
// seeded artifacts are reproducible across runs.
func WAVBytes(durationSeconds float64) []byte {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	samples := int(durationSeconds * sampleRate)
	dataSize := samples * bitsPerSample / 8

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, 'R', 'I', 'F', 'F')
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, 'W', 'A', 'V', 'E')

	buf = append(buf, 'f', 'm', 't', ' ')
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, sampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, sampleRate*bitsPerSample/8)
	buf = binary.LittleEndian.AppendUint16(buf, bitsPerSample/8)
	buf = binary.LittleEndian.AppendUint16(buf, bitsPerSample)

	buf = append(buf, 'd', 'a', 't', 'a')
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))

	for i := 0; i < samples; i++ {
		sample := int16(32767 * 0.5 * math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}
	return buf
}
