package capture

import (
	"context"
	"fmt"

	"github.com/audiolibrelab/duocap/internal/config"
)

// StreamBackend captures the system loopback through a native PipeWire
// stream (pw-record). Unlike the dump process, it attaches to a live node in
// the media graph and therefore requires the node to carry an audio track.
type StreamBackend struct {
	pcmPump
	target   string
	pipewire *PipeWire
}

// NewStreamBackend creates a native-stream backend for source.
func NewStreamBackend(cfg *config.Config, source Source) *StreamBackend {
	target := cfg.Capture.SystemSource
	if source == SourceMicrophone {
		target = cfg.Capture.MicSource
	}

	return &StreamBackend{
		pcmPump:  newPCMPump(source, cfg.Audio.SampleRate),
		target:   target,
		pipewire: NewPipeWire(),
	}
}

// Start probes the target node for an audio track, then attaches the stream.
func (b *StreamBackend) Start(ctx context.Context) error {
	ports, err := b.pipewire.ListAudioPorts()
	if err != nil {
		return fmt.Errorf("%w: pw-link", ErrDependencyMissing)
	}
	if !NodeHasAudioTrack(b.target, ports) {
		return fmt.Errorf("%w: %s", ErrNoAudioTrack, b.target)
	}

	args := []string{
		"--format=s16",
		fmt.Sprintf("--rate=%d", b.sampleRate),
		"--channels=1",
	}
	if b.target != "" {
		args = append(args, "--target="+b.target)
	}
	args = append(args, "-")

	return b.startProcess(ctx, "pw-record", args)
}

// Stop detaches the stream and drains trailing frames.
func (b *StreamBackend) Stop() error {
	return b.stopProcess()
}
