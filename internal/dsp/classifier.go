// Package dsp implements the signal analysis pipeline: acoustic scenario
// classification, the two-stage echo cancellation engine, and the final
// mixer. All sample math operates on mono signed 16-bit values normalized to
// [-1, 1] for analysis and clamped back on requantization.
package dsp

// ScenarioMode is the acoustic scenario an echo stage operates under.
type ScenarioMode string

const (
	// ModeHeadphones means the listening setup physically prevents output
	// audio from leaking back into the microphone.
	ModeHeadphones ScenarioMode = "headphones"
	// ModeSpeakers means an acoustic echo loop is present.
	ModeSpeakers ScenarioMode = "speakers"
)

// Classification is the per-session result of scenario auto-detection. It is
// ephemeral; nothing persists it beyond the session.
type Classification struct {
	Mode            ScenarioMode
	SimilarityRatio float64
	PresenceRatio   float64
	WindowSize      int
}

// Auto-detection thresholds. Empirically tuned; do not infer "better" values.
const (
	classifyWindow = 1600

	// noiseFloor is the normalized amplitude below which the reference is
	// treated as silent.
	noiseFloor = 0.05

	voiceSimilarityThreshold  = 0.1
	systemSimilarityThreshold = 0.15

	voiceSimilarityCutoff  = 0.3
	voicePresenceCutoff    = 0.2
	systemSimilarityCutoff = 0.25
	systemPresenceCutoff   = 0.2
)

// ClassifyVoice decides headphones-vs-speakers for the voice-echo stage from
// the first samples of both sources.
func ClassifyVoice(mic, system []int16) Classification {
	return classify(mic, system, voiceSimilarityThreshold, voiceSimilarityCutoff, voicePresenceCutoff)
}

// ClassifySystem decides earphones-vs-speakers for the system-echo stage.
// Earphones behave like headphones: no echo loop.
func ClassifySystem(mic, system []int16) Classification {
	return classify(mic, system, systemSimilarityThreshold, systemSimilarityCutoff, systemPresenceCutoff)
}

// classify compares position-aligned sample pairs over the analysis window.
// Echo is considered present when a large enough share of pairs are nearly
// identical while the reference is actually producing sound.
func classify(candidate, reference []int16, simThreshold, simCutoff, presenceCutoff float64) Classification {
	window := classifyWindow
	if len(candidate) < window {
		window = len(candidate)
	}
	if len(reference) < window {
		window = len(reference)
	}

	result := Classification{Mode: ModeHeadphones, WindowSize: window}
	if window == 0 {
		return result
	}

	var similar, present int
	for i := 0; i < window; i++ {
		nc := normalize(candidate[i])
		nr := normalize(reference[i])

		if abs(nc-nr) < simThreshold {
			similar++
		}
		if abs(nr) > noiseFloor {
			present++
		}
	}

	result.SimilarityRatio = float64(similar) / float64(window)
	result.PresenceRatio = float64(present) / float64(window)

	if result.SimilarityRatio > simCutoff && result.PresenceRatio > presenceCutoff {
		result.Mode = ModeSpeakers
	}

	return result
}

func normalize(s int16) float64 {
	return float64(s) / 32768.0
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// clamp requantizes a normalized value to the legal signed 16-bit range.
func clamp(v float64) int16 {
	scaled := v * 32768.0
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
