package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/audiolibrelab/duocap/internal/capture"
	"github.com/audiolibrelab/duocap/internal/config"
	"github.com/audiolibrelab/duocap/internal/session"
)

// stubService implements service.Service with canned responses.
type stubService struct {
	cfg       *config.Config
	state     session.State
	startErr  error
	stopRes   *session.Result
	stopErr   error
	updates   map[string]string
	updateErr error
}

func (s *stubService) StartRecording(ctx context.Context) error { return s.startErr }
func (s *stubService) StopRecording(ctx context.Context) (*session.Result, error) {
	return s.stopRes, s.stopErr
}
func (s *stubService) Status() (session.State, *session.Info) { return s.state, nil }
func (s *stubService) GetConfig() *config.Config              { return s.cfg }
func (s *stubService) UpdateConfig(updates map[string]string) error {
	s.updates = updates
	return s.updateErr
}
func (s *stubService) ListSources() ([]capture.SourceInfo, error) {
	return []capture.SourceInfo{{Name: "mic"}, {Name: "out.monitor", IsMonitor: true}}, nil
}
func (s *stubService) GetLastError() string { return "" }

func newTestServer(svc *stubService) *Server {
	if svc.cfg == nil {
		svc.cfg = config.Default()
	}
	if svc.state == "" {
		svc.state = session.StateIdle
	}
	return NewServer(svc, "0")
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(&stubService{state: session.StateRecording})

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.State != session.StateRecording {
		t.Errorf("state = %q, want %q", resp.State, session.StateRecording)
	}
}

func TestHandleStatus_RejectsPost(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleStart_ConflictOnError(t *testing.T) {
	srv := newTestServer(&stubService{startErr: errors.New("microphone busy")})

	rec := httptest.NewRecorder()
	srv.handleStart(rec, httptest.NewRequest(http.MethodPost, "/api/start", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandleStop_ReportsResult(t *testing.T) {
	srv := newTestServer(&stubService{
		stopRes: &session.Result{
			Container:  make([]byte, 44+32000),
			Duration:   time.Second,
			SampleRate: 16000,
		},
	})

	rec := httptest.NewRecorder()
	srv.handleStop(rec, httptest.NewRequest(http.MethodPost, "/api/stop", nil))

	var resp StopResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Recorded {
		t.Error("expected recorded=true")
	}
	if resp.DurationMs != 1000 {
		t.Errorf("duration_ms = %d, want 1000", resp.DurationMs)
	}
	if resp.SizeBytes != 44+32000 {
		t.Errorf("size_bytes = %d, want %d", resp.SizeBytes, 44+32000)
	}
}

func TestHandleStop_IdleIsNotAnError(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.handleStop(rec, httptest.NewRequest(http.MethodPost, "/api/stop", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StopResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Recorded {
		t.Error("expected recorded=false for idle stop")
	}
}

func TestHandleConfig_Update(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)

	body := strings.NewReader(`{"audio.echo_sensitivity":"high"}`)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, httptest.NewRequest(http.MethodPut, "/api/config", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.updates["audio.echo_sensitivity"] != "high" {
		t.Errorf("updates = %v, want echo_sensitivity=high", svc.updates)
	}
}

func TestHandleConfig_BadBody(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.handleConfig(rec, httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSources(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.handleSources(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))

	var resp SourcesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(resp.Sources))
	}
	if !resp.Sources[1].IsMonitor {
		t.Error("expected second source to be a monitor")
	}
}
