package dsp

import "log/slog"

// Sensitivity selects how aggressively the system-echo stage attenuates.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// preset holds the tuning of one sensitivity level for the system-echo
// stage. voiceFloor is the normalized amplitude above which a candidate
// sample is treated as the user's voice and protected from attenuation.
type preset struct {
	similarityThreshold float64
	attenuation         float64
	voiceFloor          float64
}

var sensitivityPresets = map[Sensitivity]preset{
	SensitivityLow:    {similarityThreshold: 0.08, attenuation: 0.3, voiceFloor: 0.2},
	SensitivityMedium: {similarityThreshold: 0.12, attenuation: 0.5, voiceFloor: 0.35},
	SensitivityHigh:   {similarityThreshold: 0.18, attenuation: 0.7, voiceFloor: 0.5},
}

// Voice-echo stage tuning.
const (
	bleedSimilarityThreshold    = 0.05
	bleedReferenceFloor         = 0.1
	bleedCandidateCeiling       = 0.3
	bleedReduction              = 0.2
	speakersSimilarityThreshold = 0.2
	speakersMaxReduction        = 0.6

	// minConsecutiveEchoSamples is how many consecutive flagged samples
	// the system stage requires before engaging attenuation, to avoid
	// chattering on isolated coincidental matches.
	minConsecutiveEchoSamples = 50
)

// Stats carries running diagnostics from the system-echo stage.
type Stats struct {
	EchoSamples int
	EchoPercent float64
}

// CancelVoiceEcho attenuates system audio that leaked into the microphone
// stream, per-sample, using the classified voice scenario. With no system
// reference there is nothing to cancel against and the input is returned
// unchanged. An internal panic degrades to the unprocessed input rather than
// failing the session.
func CancelVoiceEcho(mic, system []int16, mode ScenarioMode) (out []int16) {
	if len(system) == 0 {
		return mic
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Voice echo stage failed, returning unprocessed buffer", "panic", r)
			out = mic
		}
	}()

	out = make([]int16, len(mic))
	for i := range mic {
		var ref int16
		if i < len(system) {
			ref = system[i]
		}

		nc := normalize(mic[i])
		nr := normalize(ref)
		sim := abs(nc - nr)

		var processed float64
		if mode == ModeSpeakers {
			// Proportional reduction: the closer a sample is to the
			// reference, the harder it is pushed down.
			processed = nc
			if sim < speakersSimilarityThreshold && abs(nr) > noiseFloor {
				reduction := (1 - sim/speakersSimilarityThreshold) * speakersMaxReduction
				processed = nc * (1 - reduction)
			}
			out[i] = clamp(processed*0.5 + nr*0.5)
		} else {
			// Headphones: only obvious bleed, never the user's voice.
			processed = nc
			if sim < bleedSimilarityThreshold && abs(nr) > bleedReferenceFloor && abs(nc) < bleedCandidateCeiling {
				processed = nc * (1 - bleedReduction)
			}
			out[i] = clamp(processed*0.7 + nr*0.3)
		}
	}

	return out
}

// CancelSystemEcho re-runs the similarity test over the voice-stage output
// against the raw system reference, with sensitivity-dependent thresholds.
// Attenuation only engages on runs of at least minConsecutiveEchoSamples
// flagged samples. The result is blended toward the cleaner system source.
func CancelSystemEcho(voice, system []int16, sensitivity Sensitivity, mode ScenarioMode) (out []int16, stats Stats) {
	if len(system) == 0 || len(voice) == 0 {
		return voice, Stats{}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("System echo stage failed, returning unprocessed buffer", "panic", r)
			out = voice
			stats = Stats{}
		}
	}()

	p, ok := sensitivityPresets[sensitivity]
	if !ok {
		p = sensitivityPresets[SensitivityMedium]
	}

	attenuation := p.attenuation
	if mode == ModeHeadphones {
		// Earphones-like setups get the conservative half-strength pass.
		attenuation *= 0.5
	}

	// First pass: flag echo-suspect samples.
	flagged := make([]bool, len(voice))
	for i := range voice {
		var ref int16
		if i < len(system) {
			ref = system[i]
		}

		nc := normalize(voice[i])
		nr := normalize(ref)

		if abs(nc-nr) < p.similarityThreshold && abs(nr) > noiseFloor && abs(nc) < p.voiceFloor {
			flagged[i] = true
		}
	}

	// Second pass: engage attenuation only on long enough runs.
	engaged := make([]bool, len(voice))
	runStart := -1
	for i := 0; i <= len(flagged); i++ {
		if i < len(flagged) && flagged[i] {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 && i-runStart >= minConsecutiveEchoSamples {
			for j := runStart; j < i; j++ {
				engaged[j] = true
			}
		}
		runStart = -1
	}

	out = make([]int16, len(voice))
	for i := range voice {
		var ref int16
		if i < len(system) {
			ref = system[i]
		}

		nc := normalize(voice[i])
		nr := normalize(ref)

		if engaged[i] {
			nc *= 1 - attenuation
			stats.EchoSamples++
		}

		out[i] = clamp(nc*0.4 + nr*0.6)
	}

	stats.EchoPercent = float64(stats.EchoSamples) / float64(len(voice)) * 100

	return out, stats
}
