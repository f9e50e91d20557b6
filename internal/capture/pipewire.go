package capture

import (
	"fmt"
	"os/exec"
	"strings"
)

// PipeWire wraps the pw-link / pactl command-line tools used for source
// discovery and loopback stream probing.
type PipeWire struct{}

// NewPipeWire creates a new PipeWire instance.
func NewPipeWire() *PipeWire {
	return &PipeWire{}
}

// SourceInfo describes one discoverable capture source.
type SourceInfo struct {
	Name      string `json:"name"`
	IsMonitor bool   `json:"is_monitor"`
}

// ListSources returns all PulseAudio/PipeWire capture sources. Monitor
// sources are system-loopback candidates; the rest are microphones.
func (pw *PipeWire) ListSources() ([]SourceInfo, error) {
	cmd := exec.Command("pactl", "list", "sources", "short")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list capture sources: %w", err)
	}

	return parseSourceList(string(output)), nil
}

// parseSourceList parses `pactl list sources short` output:
//
//	0	alsa_output.pci-0000_00_1f.3.analog-stereo.monitor	module-alsa-card.c	s16le 2ch 44100Hz	IDLE
//	1	alsa_input.pci-0000_00_1f.3.analog-stereo	module-alsa-card.c	s16le 2ch 44100Hz	IDLE
func parseSourceList(output string) []SourceInfo {
	var sources []SourceInfo

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[1]
		sources = append(sources, SourceInfo{
			Name:      name,
			IsMonitor: strings.HasSuffix(name, ".monitor"),
		})
	}

	return sources
}

// ValidateSource checks that a named source exists.
func (pw *PipeWire) ValidateSource(name string) error {
	if name == "" || strings.HasPrefix(name, "@") {
		// Empty and @DEFAULT_*@ aliases are resolved by the tools.
		return nil
	}

	sources, err := pw.ListSources()
	if err != nil {
		return err
	}

	if !sourceExistsInList(name, sources) {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	return nil
}

func sourceExistsInList(name string, sources []SourceInfo) bool {
	for _, s := range sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ListAudioPorts returns the audio output ports currently in the PipeWire
// graph.
func (pw *PipeWire) ListAudioPorts() ([]string, error) {
	cmd := exec.Command("pw-link", "-o")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list audio ports: %w", err)
	}

	var ports []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ports = append(ports, line)
		}
	}

	return ports, nil
}

// NodeHasAudioTrack reports whether target exposes at least one audio
// output port in the given port list.
func NodeHasAudioTrack(target string, ports []string) bool {
	if target == "" {
		// Default target: any audio port in the graph will do.
		return len(ports) > 0
	}
	for _, port := range ports {
		if strings.HasPrefix(port, target+":") || port == target {
			return true
		}
	}
	return false
}
