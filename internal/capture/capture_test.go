package capture

import (
	"errors"
	"testing"

	"github.com/audiolibrelab/duocap/internal/config"
)

func TestParseSourceList(t *testing.T) {
	output := "0\talsa_output.pci-0000_00_1f.3.analog-stereo.monitor\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tIDLE\n" +
		"1\talsa_input.pci-0000_00_1f.3.analog-stereo\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tIDLE\n" +
		"\n"

	sources := parseSourceList(output)

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if !sources[0].IsMonitor {
		t.Error("Expected first source to be a monitor")
	}
	if sources[1].IsMonitor {
		t.Error("Expected second source to be a microphone")
	}
	if sources[1].Name != "alsa_input.pci-0000_00_1f.3.analog-stereo" {
		t.Errorf("Unexpected source name: %s", sources[1].Name)
	}
}

func TestSourceExistsInList(t *testing.T) {
	sources := []SourceInfo{
		{Name: "alsa_input.usb-mic"},
		{Name: "alsa_output.hdmi.monitor", IsMonitor: true},
	}

	if !sourceExistsInList("alsa_input.usb-mic", sources) {
		t.Error("Expected existing source to be found")
	}
	if sourceExistsInList("bogus", sources) {
		t.Error("Expected missing source to not be found")
	}
}

func TestNodeHasAudioTrack(t *testing.T) {
	ports := []string{
		"Chromium:output_FL",
		"Chromium:output_FR",
		"alsa_output.analog-stereo:monitor_FL",
	}

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"node with ports", "Chromium", true},
		{"node without ports", "Firefox", false},
		{"default target with graph audio", "", true},
		{"exact port name", "Chromium:output_FL", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NodeHasAudioTrack(tt.target, ports); got != tt.want {
				t.Errorf("NodeHasAudioTrack(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}

	if NodeHasAudioTrack("", nil) {
		t.Error("Expected no audio track in an empty graph")
	}
}

func TestClassifyCaptureError(t *testing.T) {
	base := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"permission", "Connection failure: Access denied", ErrPermissionDenied},
		{"permission lowercase", "parec: permission denied", ErrPermissionDenied},
		{"device missing", "Connection failure: No such entity", ErrDeviceNotFound},
		{"device does not exist", "source does not exist", ErrDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyCaptureError(base, tt.stderr)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// Unrecognized stderr wraps the original error.
	err := classifyCaptureError(base, "something odd")
	if !errors.Is(err, base) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
}

func TestDetermineBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    BackendType
	}{
		{"process", BackendTypeProcess},
		{"stream", BackendTypeStream},
		{"auto", BackendTypeProcess},
		{"", BackendTypeProcess},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.Capture.Backend = tt.backend
		if got := determineBackend(cfg); got != tt.want {
			t.Errorf("determineBackend(%q) = %v, want %v", tt.backend, got, tt.want)
		}
	}
}

func TestNewBackend_MicAlwaysProcess(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.Backend = "stream"

	if _, ok := NewBackend(cfg, SourceMicrophone).(*ProcessBackend); !ok {
		t.Error("Expected microphone to use the process backend even with stream strategy")
	}
	if _, ok := NewBackend(cfg, SourceSystem).(*StreamBackend); !ok {
		t.Error("Expected system source to use the stream backend")
	}
}

func TestStopWithoutStart(t *testing.T) {
	b := NewProcessBackend(config.Default(), SourceMicrophone)
	if err := b.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}
}
