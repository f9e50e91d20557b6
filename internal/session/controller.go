// Package session owns the capture session lifecycle: it starts the platform
// backends, accumulates their chunks, and on stop runs the finalize pipeline
// (classify, echo-cancel, mix, encode, validate).
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/audiolibrelab/duocap/internal/capture"
	"github.com/audiolibrelab/duocap/internal/config"
	"github.com/audiolibrelab/duocap/internal/dsp"
	"github.com/audiolibrelab/duocap/internal/wav"
)

// State is the controller's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
)

// minDurationSeconds gates finalize: shorter recordings are unusable.
const minDurationSeconds = 0.5

// drainTimeout bounds the grace window for trailing frames after stop.
const drainTimeout = 1 * time.Second

// Info describes the active session.
type Info struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	SystemAudio bool      `json:"system_audio"`
}

// Result is what crosses the boundary to the upload collaborator.
type Result struct {
	Container  []byte
	Duration   time.Duration
	SampleRate int
}

// Uploader is the external collaborator receiving a finalized recording.
type Uploader interface {
	Upload(ctx context.Context, result *Result) error
}

// backendFactory builds a capture backend; injectable for tests.
type backendFactory func(cfg *config.Config, source capture.Source) capture.Backend

// session holds everything owned by one recording. The accumulation buffers
// are guarded by bufMu; finalize freezes them so a drain goroutine outliving
// the grace window can never write into a buffer being read.
type session struct {
	id        string
	startedAt time.Time
	audio     config.AudioConfig

	micBackend capture.Backend
	sysBackend capture.Backend

	bufMu  sync.Mutex
	frozen bool
	micBuf []int16
	sysBuf []int16

	drainWG sync.WaitGroup
}

// Controller runs at most one capture session at a time.
type Controller struct {
	cfg        *config.Config
	newBackend backendFactory

	// op serializes entire Start/Stop sequences end to end; two sessions
	// can never run concurrently. mutex guards the fields below for
	// concurrent Status readers.
	op sync.Mutex

	mutex    sync.Mutex
	state    State
	current  *session
	uploader Uploader
}

// NewController creates an idle controller over cfg.
func NewController(cfg *config.Config) *Controller {
	return &Controller{
		cfg:        cfg,
		state:      StateIdle,
		newBackend: capture.NewBackend,
	}
}

// SetUploader attaches the collaborator that receives finalized recordings.
func (c *Controller) SetUploader(u Uploader) {
	c.mutex.Lock()
	c.uploader = u
	c.mutex.Unlock()
}

// Status returns the current state and a copy of the active session info.
func (c *Controller) Status() (State, *Info) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.current == nil {
		return c.state, nil
	}
	return c.state, &Info{
		ID:          c.current.id,
		StartedAt:   c.current.startedAt,
		SystemAudio: c.current.sysBackend != nil,
	}
}

// Start begins a new capture session. If a session is already recording it
// is stopped to completion first; two sessions never run concurrently. A
// microphone start failure aborts with the originating error; a system-audio
// failure degrades the session to mic-only.
func (c *Controller) Start(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	if _, err := c.stopCurrent(ctx); err != nil && !errors.Is(err, ErrRecordingTooShort) {
		slog.Warn("Previous session stop reported error", "error", err)
	}

	c.mutex.Lock()
	c.state = StateStarting
	s := &session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		audio:     c.cfg.Audio, // immutable snapshot for this session
	}
	c.current = s
	c.mutex.Unlock()

	s.micBackend = c.newBackend(c.cfg, capture.SourceMicrophone)
	if err := s.micBackend.Start(ctx); err != nil {
		c.mutex.Lock()
		c.state = StateIdle
		c.current = nil
		c.mutex.Unlock()
		return fmt.Errorf("failed to start microphone capture: %w", err)
	}
	s.drainWG.Add(1)
	go s.drain(s.micBackend.Chunks(), &s.micBuf)

	if s.audio.SystemAudioEnabled {
		sys := c.newBackend(c.cfg, capture.SourceSystem)
		if err := sys.Start(ctx); err != nil {
			slog.Warn("System audio capture unavailable, continuing mic-only", "error", err)
		} else {
			s.sysBackend = sys
			s.drainWG.Add(1)
			go s.drain(sys.Chunks(), &s.sysBuf)
		}
	}

	c.mutex.Lock()
	c.state = StateRecording
	c.mutex.Unlock()

	slog.Info("Recording started", "session", s.id, "system_audio", s.sysBackend != nil,
		"sample_rate", s.audio.SampleRate)
	return nil
}

// drain appends chunks to the accumulation buffer strictly in arrival order.
// Chunks arriving after finalize froze the session are discarded.
func (s *session) drain(chunks <-chan capture.Chunk, buf *[]int16) {
	defer s.drainWG.Done()
	for chunk := range chunks {
		s.bufMu.Lock()
		if !s.frozen {
			*buf = append(*buf, chunk.Payload...)
		}
		s.bufMu.Unlock()
	}
}

// Stop ends the active session and runs the finalize pipeline. It is
// idempotent: stopping an idle controller returns (nil, nil), "no data".
func (c *Controller) Stop(ctx context.Context) (*Result, error) {
	c.op.Lock()
	defer c.op.Unlock()
	return c.stopCurrent(ctx)
}

// stopCurrent does the actual stop work; callers hold c.op.
func (c *Controller) stopCurrent(ctx context.Context) (*Result, error) {
	c.mutex.Lock()
	if c.state != StateRecording && c.state != StateStarting {
		c.mutex.Unlock()
		return nil, nil
	}
	c.state = StateStopping
	s := c.current
	c.mutex.Unlock()

	if s.micBackend != nil {
		if err := s.micBackend.Stop(); err != nil {
			slog.Warn("Microphone backend stop reported error", "error", err)
		}
	}
	if s.sysBackend != nil {
		if err := s.sysBackend.Stop(); err != nil {
			slog.Warn("System backend stop reported error", "error", err)
		}
	}

	// Grace window for trailing frames already in flight.
	drained := make(chan struct{})
	go func() {
		s.drainWG.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		slog.Warn("Chunk drain did not complete within grace window", "session", s.id)
	}

	result, err := c.finalize(s)

	c.mutex.Lock()
	c.state = StateIdle
	c.current = nil
	uploader := c.uploader
	c.mutex.Unlock()

	if result != nil && uploader != nil {
		if uploadErr := uploader.Upload(ctx, result); uploadErr != nil {
			slog.Error("Upload collaborator failed", "session", s.id, "error", uploadErr)
		}
	}

	return result, err
}

// finalize runs classify -> voice echo stage -> system echo stage -> mix ->
// encode -> validate over the frozen buffers.
func (c *Controller) finalize(s *session) (*Result, error) {
	// Freeze the buffers; a drain goroutine that outlived the grace window
	// discards anything arriving after this point.
	s.bufMu.Lock()
	s.frozen = true
	mic, sys := s.micBuf, s.sysBuf
	s.bufMu.Unlock()

	rate := s.audio.SampleRate

	voice := mic
	if s.audio.EchoCancellationEnabled && len(mic) > 0 && len(sys) > 0 {
		voiceMode := resolveVoiceMode(s.audio.VoiceRecordingMode, mic, sys)
		sysMode := resolveSystemMode(s.audio.SystemAudioScenario, mic, sys)

		voice = dsp.CancelVoiceEcho(mic, sys, voiceMode)

		var stats dsp.Stats
		voice, stats = dsp.CancelSystemEcho(voice, sys, dsp.Sensitivity(s.audio.EchoSensitivity), sysMode)
		slog.Debug("Echo cancellation applied", "session", s.id,
			"voice_mode", voiceMode, "system_mode", sysMode,
			"echo_samples", stats.EchoSamples, "echo_percent", fmt.Sprintf("%.1f", stats.EchoPercent))
	}

	mixed := dsp.Mix(voice, sys)

	minSamples := int(minDurationSeconds * float64(rate))
	if len(mixed) < minSamples {
		slog.Info("No usable recording", "session", s.id, "samples", len(mixed), "minimum", minSamples)
		return nil, ErrRecordingTooShort
	}

	container := wav.EncodeSamples(rate, mixed)
	if !wav.IsValid(container) {
		return nil, wav.ErrInvalidContainer
	}

	result := &Result{
		Container:  container,
		Duration:   wav.Duration(container),
		SampleRate: rate,
	}

	slog.Info("Recording finalized", "session", s.id,
		"duration", result.Duration, "bytes", len(result.Container))
	return result, nil
}

// resolveVoiceMode honors a manual voice recording mode; auto classifies.
// The manual value always short-circuits detection.
func resolveVoiceMode(mode config.ScenarioMode, mic, sys []int16) dsp.ScenarioMode {
	switch mode {
	case config.ScenarioHeadphones:
		return dsp.ModeHeadphones
	case config.ScenarioSpeakers:
		return dsp.ModeSpeakers
	}
	c := dsp.ClassifyVoice(mic, sys)
	slog.Debug("Voice scenario classified", "mode", c.Mode,
		"similarity", fmt.Sprintf("%.3f", c.SimilarityRatio),
		"presence", fmt.Sprintf("%.3f", c.PresenceRatio))
	return c.Mode
}

// resolveSystemMode honors a manual system audio scenario; auto classifies.
// Earphones behave like headphones: no echo loop.
func resolveSystemMode(mode config.ScenarioMode, mic, sys []int16) dsp.ScenarioMode {
	switch mode {
	case config.ScenarioEarphones:
		return dsp.ModeHeadphones
	case config.ScenarioSpeakers:
		return dsp.ModeSpeakers
	}
	c := dsp.ClassifySystem(mic, sys)
	slog.Debug("System scenario classified", "mode", c.Mode,
		"similarity", fmt.Sprintf("%.3f", c.SimilarityRatio),
		"presence", fmt.Sprintf("%.3f", c.PresenceRatio))
	return c.Mode
}
