package dsp

import (
	"math/rand"
	"testing"
)

func TestClassify_UncorrelatedNoiseIsHeadphones(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	mic := make([]int16, classifyWindow)
	system := make([]int16, classifyWindow)
	for i := range mic {
		mic[i] = int16(rng.Intn(65536) - 32768)
		system[i] = int16(rng.Intn(65536) - 32768)
	}

	voice := ClassifyVoice(mic, system)
	if voice.Mode != ModeHeadphones {
		t.Errorf("Expected headphones for uncorrelated noise, got %s (sim=%.3f presence=%.3f)",
			voice.Mode, voice.SimilarityRatio, voice.PresenceRatio)
	}

	sys := ClassifySystem(mic, system)
	if sys.Mode != ModeHeadphones {
		t.Errorf("Expected headphones for uncorrelated noise at system stage, got %s", sys.Mode)
	}
}

func TestClassify_IdenticalSequencesAreSpeakers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	system := make([]int16, classifyWindow)
	for i := range system {
		// Keep amplitude well above the noise floor.
		system[i] = int16(5000 + rng.Intn(20000))
		if rng.Intn(2) == 0 {
			system[i] = -system[i]
		}
	}
	mic := append([]int16(nil), system...)

	voice := ClassifyVoice(mic, system)
	if voice.Mode != ModeSpeakers {
		t.Errorf("Expected speakers for identical sequences, got %s (sim=%.3f presence=%.3f)",
			voice.Mode, voice.SimilarityRatio, voice.PresenceRatio)
	}
	if voice.SimilarityRatio != 1.0 {
		t.Errorf("Expected similarity ratio 1.0 for identical buffers, got %.3f", voice.SimilarityRatio)
	}

	sys := ClassifySystem(mic, system)
	if sys.Mode != ModeSpeakers {
		t.Errorf("Expected speakers at system stage, got %s", sys.Mode)
	}
}

func TestClassify_SilentReferenceIsHeadphones(t *testing.T) {
	// Identical buffers, but the reference sits below the noise floor:
	// nothing audible is looping back.
	mic := make([]int16, classifyWindow)
	system := make([]int16, classifyWindow)
	for i := range mic {
		mic[i] = 100
		system[i] = 100
	}

	c := ClassifyVoice(mic, system)
	if c.Mode != ModeHeadphones {
		t.Errorf("Expected headphones for silent reference, got %s", c.Mode)
	}
	if c.PresenceRatio != 0 {
		t.Errorf("Expected zero presence ratio, got %.3f", c.PresenceRatio)
	}
}

func TestClassify_ShortAndEmptyWindows(t *testing.T) {
	if c := ClassifyVoice(nil, nil); c.Mode != ModeHeadphones {
		t.Errorf("Expected headphones for empty input, got %s", c.Mode)
	}

	// A window shorter than classifyWindow still classifies.
	mic := make([]int16, 200)
	system := make([]int16, 200)
	for i := range mic {
		mic[i] = 8000
		system[i] = 8000
	}
	c := ClassifyVoice(mic, system)
	if c.WindowSize != 200 {
		t.Errorf("Expected window size 200, got %d", c.WindowSize)
	}
	if c.Mode != ModeSpeakers {
		t.Errorf("Expected speakers for short identical window, got %s", c.Mode)
	}
}

func TestClassify_Determinism(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	mic := make([]int16, classifyWindow)
	system := make([]int16, classifyWindow)
	for i := range mic {
		mic[i] = int16(rng.Intn(65536) - 32768)
		system[i] = int16(rng.Intn(65536) - 32768)
	}

	first := ClassifyVoice(mic, system)
	for i := 0; i < 5; i++ {
		if got := ClassifyVoice(mic, system); got != first {
			t.Fatalf("Classification not deterministic: %+v vs %+v", first, got)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{-0.5, -16384},
		{1.5, 32767},
		{-1.5, -32768},
		{1.0, 32767},
		{-1.0, -32768},
	}

	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
