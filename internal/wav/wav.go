// Package wav builds and parses the self-describing PCM container that
// crosses the system boundary: a fixed 44-byte RIFF/WAVE descriptor header
// followed by raw mono 16-bit little-endian samples.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	gowav "github.com/go-audio/wav"
)

// HeaderSize is the exact size of the container descriptor.
const HeaderSize = 44

const (
	numChannels   = 1
	bitsPerSample = 16
	bytesPerFrame = numChannels * bitsPerSample / 8
)

// Header holds the descriptor fields declared by a container.
type Header struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataLength int
}

// Encode writes a complete container for samples at sampleRate to w.
func Encode(w io.Writer, sampleRate int, samples []int16) error {
	dataSize := len(samples) * bytesPerFrame

	if _, err := w.Write(buildHeader(sampleRate, dataSize)); err != nil {
		return fmt.Errorf("failed to write container header: %w", err)
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write container payload: %w", err)
	}

	return nil
}

// EncodeBytes wraps an already-serialized PCM payload in a container.
func EncodeBytes(sampleRate int, pcm []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(pcm))
	out = append(out, buildHeader(sampleRate, len(pcm))...)
	out = append(out, pcm...)
	return out
}

// EncodeSamples is the in-memory form of Encode.
func EncodeSamples(sampleRate int, samples []int16) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(samples)*2)
	// bytes.Buffer writes cannot fail
	_ = Encode(&buf, sampleRate, samples)
	return buf.Bytes()
}

func buildHeader(sampleRate, dataSize int) []byte {
	byteRate := uint32(sampleRate) * numChannels * bitsPerSample / 8

	header := make([]byte, HeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], bytesPerFrame)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	return header
}

// IsValid reports whether b carries a well-formed container prefix.
func IsValid(b []byte) bool {
	return len(b) >= HeaderSize &&
		bytes.Equal(b[0:4], []byte("RIFF")) &&
		bytes.Equal(b[8:12], []byte("WAVE"))
}

// Info parses the descriptor header of b.
func Info(b []byte) (Header, error) {
	if !IsValid(b) {
		return Header{}, ErrInvalidContainer
	}

	h := Header{
		SampleRate: int(binary.LittleEndian.Uint32(b[24:28])),
		Channels:   int(binary.LittleEndian.Uint16(b[22:24])),
		BitDepth:   int(binary.LittleEndian.Uint16(b[34:36])),
		DataLength: int(binary.LittleEndian.Uint32(b[40:44])),
	}

	if h.DataLength != len(b)-HeaderSize {
		return h, fmt.Errorf("%w: declared data length %d, payload %d",
			ErrInvalidContainer, h.DataLength, len(b)-HeaderSize)
	}

	return h, nil
}

// Duration returns the play time declared by the container, or zero when b
// is not a valid container.
func Duration(b []byte) time.Duration {
	h, err := Info(b)
	if err != nil || h.SampleRate <= 0 {
		return 0
	}
	frames := h.DataLength / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(h.SampleRate)
}

// Decode parses a full container, including ones produced by external
// converters with extra chunks, returning the samples and sample rate.
func Decode(r io.ReadSeeker) ([]int16, int, error) {
	dec := gowav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}
	if dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("%w: expected mono, got %d channels", ErrInvalidContainer, dec.NumChans)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		samples[i] = int16(v)
	}

	return samples, int(dec.SampleRate), nil
}
