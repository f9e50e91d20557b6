package dsp

import (
	"math/rand"
	"testing"
)

func TestCancelVoiceEcho_NoReferencePassthrough(t *testing.T) {
	mic := []int16{1000, -1000, 2000}

	out := CancelVoiceEcho(mic, nil, ModeSpeakers)

	if len(out) != len(mic) {
		t.Fatalf("Expected length %d, got %d", len(mic), len(out))
	}
	for i := range mic {
		if out[i] != mic[i] {
			t.Errorf("Sample %d: expected unchanged %d, got %d", i, mic[i], out[i])
		}
	}
}

func TestCancelVoiceEcho_SpeakersAttenuatesEcho(t *testing.T) {
	// Pure echo: microphone carries an exact copy of the system output.
	n := 2000
	mic := make([]int16, n)
	system := make([]int16, n)
	for i := range mic {
		mic[i] = 3000
		system[i] = 3000
	}

	out := CancelVoiceEcho(mic, system, ModeSpeakers)

	if len(out) != n {
		t.Fatalf("Expected length %d, got %d", n, len(out))
	}
	// similarity 0 -> full 60% reduction, then 0.5/0.5 blend with the
	// reference: 0.5*0.4*s + 0.5*s = 0.7*s.
	want := int16(float64(3000) * 0.7)
	for i := 0; i < n; i += 500 {
		if diff := out[i] - want; diff > 1 || diff < -1 {
			t.Errorf("Sample %d: expected ~%d, got %d", i, want, out[i])
		}
	}
}

func TestCancelVoiceEcho_HeadphonesPreservesVoice(t *testing.T) {
	// Loud, uncorrelated microphone signal over a quiet reference: no
	// bleed condition fires, only the gentle 0.7/0.3 blend applies.
	mic := []int16{20000, -20000, 20000, -20000}
	system := []int16{500, 500, 500, 500}

	out := CancelVoiceEcho(mic, system, ModeHeadphones)

	for i := range out {
		want := clamp(normalize(mic[i])*0.7 + normalize(system[i])*0.3)
		if out[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, out[i])
		}
	}
}

func TestCancelVoiceEcho_HeadphonesReducesBleed(t *testing.T) {
	// Quiet candidate nearly identical to a loud-enough reference: the
	// bleed reduction fires before blending.
	mic := []int16{4000}
	system := []int16{4000}

	out := CancelVoiceEcho(mic, system, ModeHeadphones)

	// 0.8 reduction factor then 0.7/0.3 blend: 0.7*0.8*s + 0.3*s = 0.86*s
	want := clamp(normalize(4000) * 0.86)
	if diff := out[0] - want; diff > 1 || diff < -1 {
		t.Errorf("Expected ~%d, got %d", want, out[0])
	}
}

func TestCancelSystemEcho_RequiresConsecutiveRun(t *testing.T) {
	// A run shorter than the consecutive-sample minimum must not engage
	// attenuation even though every sample matches the reference.
	short := minConsecutiveEchoSamples - 1
	voice := make([]int16, short)
	system := make([]int16, short)
	for i := range voice {
		voice[i] = 3000
		system[i] = 3000
	}

	_, stats := CancelSystemEcho(voice, system, SensitivityHigh, ModeSpeakers)
	if stats.EchoSamples != 0 {
		t.Errorf("Expected no engaged samples for short run, got %d", stats.EchoSamples)
	}

	// At the minimum run length the stage engages.
	long := make([]int16, minConsecutiveEchoSamples)
	ref := make([]int16, minConsecutiveEchoSamples)
	for i := range long {
		long[i] = 3000
		ref[i] = 3000
	}

	_, stats = CancelSystemEcho(long, ref, SensitivityHigh, ModeSpeakers)
	if stats.EchoSamples != minConsecutiveEchoSamples {
		t.Errorf("Expected %d engaged samples, got %d", minConsecutiveEchoSamples, stats.EchoSamples)
	}
}

func TestCancelSystemEcho_StatsPercent(t *testing.T) {
	n := 200
	voice := make([]int16, n)
	system := make([]int16, n)
	for i := 0; i < 100; i++ {
		voice[i] = 3000
		system[i] = 3000
	}
	// The second half is silent reference: not flagged.

	_, stats := CancelSystemEcho(voice, system, SensitivityMedium, ModeSpeakers)

	if stats.EchoSamples != 100 {
		t.Errorf("Expected 100 echo samples, got %d", stats.EchoSamples)
	}
	if stats.EchoPercent != 50 {
		t.Errorf("Expected 50%% echo, got %.1f%%", stats.EchoPercent)
	}
}

func TestCancelSystemEcho_VoiceFloorProtectsLoudSamples(t *testing.T) {
	// Samples louder than the sensitivity's voice floor are the user's
	// voice and must not be flagged, even when they match the reference.
	n := 200
	voice := make([]int16, n)
	system := make([]int16, n)
	for i := range voice {
		voice[i] = 20000 // 0.61 normalized, above every preset floor
		system[i] = 20000
	}

	_, stats := CancelSystemEcho(voice, system, SensitivityMedium, ModeSpeakers)
	if stats.EchoSamples != 0 {
		t.Errorf("Expected loud samples protected, got %d engaged", stats.EchoSamples)
	}
}

func TestCancelSystemEcho_SensitivityOrdering(t *testing.T) {
	// Higher sensitivity attenuates harder on the same pure-echo input.
	n := 2000
	voice := make([]int16, n)
	system := make([]int16, n)
	for i := range voice {
		voice[i] = 3000
		system[i] = 3000
	}

	outLow, _ := CancelSystemEcho(voice, system, SensitivityLow, ModeSpeakers)
	outHigh, _ := CancelSystemEcho(voice, system, SensitivityHigh, ModeSpeakers)

	if outHigh[n/2] >= outLow[n/2] {
		t.Errorf("Expected high sensitivity output (%d) below low sensitivity output (%d)",
			outHigh[n/2], outLow[n/2])
	}
}

func TestCancelSystemEcho_HeadphonesModeIsConservative(t *testing.T) {
	n := 2000
	voice := make([]int16, n)
	system := make([]int16, n)
	for i := range voice {
		voice[i] = 3000
		system[i] = 3000
	}

	outSpeakers, _ := CancelSystemEcho(voice, system, SensitivityMedium, ModeSpeakers)
	outHeadphones, _ := CancelSystemEcho(voice, system, SensitivityMedium, ModeHeadphones)

	if outHeadphones[n/2] <= outSpeakers[n/2] {
		t.Errorf("Expected headphones mode (%d) gentler than speakers mode (%d)",
			outHeadphones[n/2], outSpeakers[n/2])
	}
}

func TestEchoStages_ClipSafety(t *testing.T) {
	rng := rand.New(rand.NewSource(123))
	n := 5000
	mic := make([]int16, n)
	system := make([]int16, n)
	for i := range mic {
		mic[i] = int16(rng.Intn(65536) - 32768)
		system[i] = int16(rng.Intn(65536) - 32768)
	}
	// Include the extremes explicitly.
	mic[0], system[0] = 32767, 32767
	mic[1], system[1] = -32768, -32768
	mic[2], system[2] = 32767, -32768

	for _, mode := range []ScenarioMode{ModeHeadphones, ModeSpeakers} {
		out := CancelVoiceEcho(mic, system, mode)
		if len(out) != n {
			t.Fatalf("Voice stage changed length: %d", len(out))
		}
		out2, _ := CancelSystemEcho(out, system, SensitivityHigh, mode)
		if len(out2) != n {
			t.Fatalf("System stage changed length: %d", len(out2))
		}
		// int16 cannot hold out-of-range values; reaching here without
		// overflow panics means clamping held.
	}
}
