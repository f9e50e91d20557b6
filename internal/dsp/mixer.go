package dsp

import "log/slog"

// Mix combines the processed voice buffer with the raw system buffer into
// the single final sample sequence. A lone source passes through untouched.
// With two sources the output spans max(len(mic), len(system)); positions
// past the end of the shorter buffer treat that source as silence. Every
// combined sample is clamped to the legal 16-bit range. An internal panic
// degrades to the unprocessed microphone buffer.
func Mix(mic, system []int16) (out []int16) {
	if len(system) == 0 {
		return append([]int16(nil), mic...)
	}
	if len(mic) == 0 {
		return append([]int16(nil), system...)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Mixer failed, returning microphone buffer", "panic", r)
			out = append([]int16(nil), mic...)
		}
	}()

	n := len(mic)
	if len(system) > n {
		n = len(system)
	}

	out = make([]int16, n)
	for i := 0; i < n; i++ {
		var m, s float64
		if i < len(mic) {
			m = normalize(mic[i])
		}
		if i < len(system) {
			s = normalize(system[i])
		}
		out[i] = clamp((m + s) / 2)
	}

	return out
}
