package capture

import "encoding/binary"

// frameAssembler reassembles arbitrary-sized stdout reads into complete
// 16-bit little-endian sample frames, carrying any partial frame across
// reads.
type frameAssembler struct {
	leftover []byte
}

// Push consumes raw bytes and returns all complete samples available.
func (a *frameAssembler) Push(b []byte) []int16 {
	data := b
	if len(a.leftover) > 0 {
		data = append(a.leftover, b...)
		a.leftover = nil
	}

	n := len(data) / 2
	if n == 0 {
		if len(data) > 0 {
			a.leftover = append([]byte(nil), data...)
		}
		return nil
	}

	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	if rem := len(data) % 2; rem != 0 {
		a.leftover = append([]byte(nil), data[len(data)-rem:]...)
	}

	return samples
}

// Pending reports how many unconsumed partial-frame bytes are buffered.
func (a *frameAssembler) Pending() int {
	return len(a.leftover)
}
