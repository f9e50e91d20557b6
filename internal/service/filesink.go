package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/audiolibrelab/duocap/internal/session"
)

// FileSink is the default upload collaborator: it persists finalized
// containers to the output directory. The engine itself never persists
// audio; that is this collaborator's job.
type FileSink struct {
	directory string
}

// NewFileSink creates a sink writing into directory.
func NewFileSink(directory string) *FileSink {
	return &FileSink{directory: directory}
}

// Upload writes the container to a timestamped file.
func (f *FileSink) Upload(ctx context.Context, result *session.Result) error {
	if err := os.MkdirAll(f.directory, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("recording_%s.wav", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(f.directory, name)

	if err := os.WriteFile(path, result.Container, 0644); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}

	slog.Info("Recording saved", "file", path, "duration", result.Duration,
		"sample_rate", result.SampleRate)
	return nil
}

// LastPathIn returns the newest recording in directory, for playback.
func LastPathIn(directory string) (string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(directory, entry.Name())
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no recordings found in %s", directory)
	}
	return newest, nil
}
