package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for WAV containers that do not hold 16-bit PCM
var ErrUnsupportedFormat = errors.New("unsupported wav format")

// Format describes the PCM stream declared by a WAV container
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// wavHeader is the canonical 44-byte header written by EncodeWAV
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// ToLinear16 converts a client chunk into raw LINEAR16 samples. WAV containers are
// unwrapped and their declared format returned; anything else is assumed to already
// be raw PCM and passes through with a zero Format.
func ToLinear16(data []byte) ([]byte, Format, error) {
	if !IsWAV(data) {
		return data, Format{}, nil
	}

	var format Format
	haveFormat := false
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, Format{}, fmt.Errorf("truncated fmt chunk: %w", ErrUnsupportedFormat)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			format = Format{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			if audioFormat != 1 || format.BitsPerSample != 16 {
				return nil, Format{}, fmt.Errorf("format %d with %d bits: %w", audioFormat, format.BitsPerSample, ErrUnsupportedFormat)
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, Format{}, fmt.Errorf("data chunk before fmt chunk: %w", ErrUnsupportedFormat)
			}
			end := body + size
			// Streaming encoders leave the size at 0 or 0xFFFFFFFF
			if size == 0 || end > len(data) || end < body {
				end = len(data)
			}
			return data[body:end], format, nil
		}

		// Chunks are word aligned
		next := body + size + size%2
		if next <= offset || next > len(data) {
			break
		}
		offset = next
	}

	if !haveFormat {
		return nil, Format{}, fmt.Errorf("missing fmt chunk: %w", ErrUnsupportedFormat)
	}
	return nil, format, nil
}

// EncodeWAV wraps mono LINEAR16 samples in a WAV container
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(pcm))

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}
