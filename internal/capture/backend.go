package capture

import (
	"context"
	"strings"

	"github.com/audiolibrelab/duocap/internal/config"
)

// BackendType represents the capture strategy in use.
type BackendType string

const (
	BackendTypeProcess BackendType = "process"
	BackendTypeStream  BackendType = "stream"
	BackendTypeAuto    BackendType = "auto"
)

// Backend produces a continuous sequence of sample chunks for one physical
// source. Implementations own their process or stream handle exclusively;
// callers only signal them through Start and Stop.
type Backend interface {
	// Start spawns the capture process or stream. Any failure tears down
	// partially-created handles before returning.
	Start(ctx context.Context) error

	// Chunks returns the bounded delivery channel. The backend closes it
	// once the capture stream has fully drained after Stop.
	Chunks() <-chan Chunk

	// Stop terminates capture with a graceful-then-forceful two-step
	// signal and a bounded wait.
	Stop() error
}

// NewBackend builds a backend for the given source using the configured
// strategy. The stream strategy is only meaningful for the system source;
// the microphone always uses the dump-process strategy.
func NewBackend(cfg *config.Config, source Source) Backend {
	backendType := determineBackend(cfg)

	if source == SourceSystem && backendType == BackendTypeStream {
		return NewStreamBackend(cfg, source)
	}
	return NewProcessBackend(cfg, source)
}

// determineBackend picks the capture strategy from configuration.
func determineBackend(cfg *config.Config) BackendType {
	switch strings.ToLower(cfg.Capture.Backend) {
	case "process":
		return BackendTypeProcess
	case "stream":
		return BackendTypeStream
	default:
		// Auto prefers the dump process; it is the most portable strategy.
		return BackendTypeProcess
	}
}

// GetAvailableBackends returns the capture strategies usable on this system.
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypeProcess, BackendTypeStream}
}
