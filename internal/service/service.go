// Package service exposes the capture engine to the CLI and the web server
// behind one interface.
package service

import (
	"context"
	"sync"

	"github.com/audiolibrelab/duocap/internal/capture"
	"github.com/audiolibrelab/duocap/internal/config"
	"github.com/audiolibrelab/duocap/internal/session"
)

// Service is the core DuoCap service interface.
type Service interface {
	// Recording operations
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (*session.Result, error)
	Status() (session.State, *session.Info)

	// Configuration operations
	GetConfig() *config.Config
	UpdateConfig(updates map[string]string) error

	// Information operations
	ListSources() ([]capture.SourceInfo, error)
	GetLastError() string
}

// CaptureService is the main service implementation.
type CaptureService struct {
	cfg        *config.Config
	configFile string
	controller *session.Controller
	pipewire   *capture.PipeWire

	errMutex  sync.RWMutex
	lastError string
}

// New creates a service over cfg. configFile is where configuration updates
// are persisted; empty disables persistence.
func New(cfg *config.Config, configFile string) *CaptureService {
	svc := &CaptureService{
		cfg:        cfg,
		configFile: configFile,
		controller: session.NewController(cfg),
		pipewire:   capture.NewPipeWire(),
	}
	svc.controller.SetUploader(NewFileSink(cfg.Output.Directory))
	return svc
}

// SetUploader replaces the collaborator receiving finalized recordings.
func (s *CaptureService) SetUploader(u session.Uploader) {
	s.controller.SetUploader(u)
}

// StartRecording begins a capture session.
func (s *CaptureService) StartRecording(ctx context.Context) error {
	if err := s.controller.Start(ctx); err != nil {
		s.setLastError(err.Error())
		return err
	}
	s.setLastError("")
	return nil
}

// StopRecording ends the session and returns the finalized result, or
// (nil, nil) when nothing was recording.
func (s *CaptureService) StopRecording(ctx context.Context) (*session.Result, error) {
	result, err := s.controller.Stop(ctx)
	if err != nil {
		s.setLastError(err.Error())
	}
	return result, err
}

// Status returns the controller state and session info.
func (s *CaptureService) Status() (session.State, *session.Info) {
	return s.controller.Status()
}

// GetConfig returns the live configuration.
func (s *CaptureService) GetConfig() *config.Config {
	return s.cfg
}

// UpdateConfig applies partial updates and persists them. An in-flight
// session is unaffected; it recorded a snapshot at start.
func (s *CaptureService) UpdateConfig(updates map[string]string) error {
	if err := s.cfg.ApplyUpdates(updates); err != nil {
		s.setLastError(err.Error())
		return err
	}
	if s.configFile != "" {
		if err := s.cfg.Save(s.configFile); err != nil {
			s.setLastError(err.Error())
			return err
		}
	}
	return nil
}

// ListSources returns discoverable capture sources.
func (s *CaptureService) ListSources() ([]capture.SourceInfo, error) {
	return s.pipewire.ListSources()
}

// GetLastError returns the most recent error message, if any.
func (s *CaptureService) GetLastError() string {
	s.errMutex.RLock()
	defer s.errMutex.RUnlock()
	return s.lastError
}

func (s *CaptureService) setLastError(msg string) {
	s.errMutex.Lock()
	s.lastError = msg
	s.errMutex.Unlock()
}
