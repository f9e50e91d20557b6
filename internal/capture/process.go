package capture

import (
	"context"
	"fmt"

	"github.com/audiolibrelab/duocap/internal/config"
)

// ProcessBackend captures one source by spawning a long-lived PulseAudio
// dump process (parec) that writes raw PCM to its stdout.
type ProcessBackend struct {
	pcmPump
	device string
}

// NewProcessBackend creates a dump-process backend for source. An empty
// device uses the default microphone, or the default monitor for the system
// source.
func NewProcessBackend(cfg *config.Config, source Source) *ProcessBackend {
	device := cfg.Capture.MicSource
	if source == SourceSystem {
		device = cfg.Capture.SystemSource
		if device == "" {
			device = "@DEFAULT_MONITOR@"
		}
	}

	return &ProcessBackend{
		pcmPump: newPCMPump(source, cfg.Audio.SampleRate),
		device:  device,
	}
}

// Start spawns the dump process.
func (b *ProcessBackend) Start(ctx context.Context) error {
	args := []string{
		"--format=s16le",
		fmt.Sprintf("--rate=%d", b.sampleRate),
		"--channels=1",
		"--raw",
	}
	if b.device != "" {
		args = append(args, "--device="+b.device)
	}

	return b.startProcess(ctx, "parec", args)
}

// Stop terminates the dump process and drains trailing frames.
func (b *ProcessBackend) Stop() error {
	return b.stopProcess()
}
