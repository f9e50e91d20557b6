package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	// chunkChannelDepth bounds in-flight chunks between a backend and the
	// session controller.
	chunkChannelDepth = 64

	// readBufferSize is the size of one stdout read from the dump process.
	readBufferSize = 4096

	// drainWait bounds how long Stop waits for trailing frames after the
	// graceful signal before force-killing the process.
	drainWait = 2 * time.Second

	// exitWait bounds how long Stop waits for the process to exit.
	exitWait = 5 * time.Second
)

// pcmPump owns one capture process writing raw 16-bit LE PCM to its stdout
// and pumps reassembled sample chunks onto a bounded channel. It is embedded
// by the concrete backends.
type pcmPump struct {
	source     Source
	sampleRate int

	mutex      sync.Mutex
	cmd        *exec.Cmd
	chunks     chan Chunk
	readerDone chan struct{}
	stderrBuf  strings.Builder
	seq        int
}

func newPCMPump(source Source, sampleRate int) pcmPump {
	return pcmPump{
		source:     source,
		sampleRate: sampleRate,
		chunks:     make(chan Chunk, chunkChannelDepth),
		readerDone: make(chan struct{}),
	}
}

// Chunks returns the delivery channel; closed once the stream drains.
func (p *pcmPump) Chunks() <-chan Chunk {
	return p.chunks
}

// startProcess spawns tool with args and begins pumping its stdout. On any
// failure the partially-created process is torn down before returning. The
// context only covers the synchronous start phase; the spawned process lives
// until stopProcess so a caller's short-lived context cannot kill a running
// capture.
func (p *pcmPump) startProcess(ctx context.Context, tool string, args []string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDependencyMissing, tool)
	}

	cmd := exec.Command(path, args...)
	cmd.Stderr = &p.stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	slog.Debug("Starting capture process", "source", p.source, "command", path+" "+strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		stdout.Close()
		return classifyCaptureError(err, p.stderrBuf.String())
	}

	p.cmd = cmd
	go p.readLoop(stdout)

	return nil
}

// readLoop reads stdout until EOF, reassembling frames and delivering
// chunks strictly in read order.
func (p *pcmPump) readLoop(r io.ReadCloser) {
	defer close(p.readerDone)
	defer close(p.chunks)
	defer r.Close()

	var asm frameAssembler
	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if samples := asm.Push(buf[:n]); len(samples) > 0 {
				p.chunks <- Chunk{
					Source:     p.source,
					Payload:    samples,
					SampleRate: p.sampleRate,
					Seq:        p.seq,
				}
				p.seq++
			}
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("Capture stream read ended", "source", p.source, "error", err)
			}
			if asm.Pending() > 0 {
				slog.Debug("Discarding trailing partial frame", "source", p.source, "bytes", asm.Pending())
			}
			return
		}
	}
}

// stopProcess terminates the capture process gracefully, waits for trailing
// frames to drain, and force-kills on timeout.
func (p *pcmPump) stopProcess() error {
	p.mutex.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mutex.Unlock()

	if cmd == nil {
		return ErrNotRunning
	}

	if cmd.Process != nil {
		slog.Debug("Sending interrupt to capture process", "source", p.source)
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			slog.Debug("Failed to send interrupt, falling back to kill", "source", p.source, "error", err)
			cmd.Process.Kill()
		}
	}

	// Let the reader drain any in-flight frames before the pipe is torn
	// down; a stuck process gets killed after the bounded wait.
	select {
	case <-p.readerDone:
	case <-time.After(drainWait):
		slog.Warn("Capture process did not drain within timeout, force killing", "source", p.source)
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-p.readerDone
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !isSignalExit(err) {
			slog.Debug("Capture process stderr", "source", p.source, "output", p.stderrBuf.String())
			return fmt.Errorf("%w: %v", ErrBackendCrashed, err)
		}
		return nil

	case <-time.After(exitWait):
		slog.Warn("Capture process did not exit within timeout, force killing", "source", p.source)
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-done
		return nil
	}
}

// isSignalExit reports whether err is the normal result of our own
// graceful-then-forceful termination signals.
func isSignalExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	if exitErr.ExitCode() == 255 {
		return true
	}
	if exitErr.ProcessState != nil {
		state := exitErr.ProcessState.String()
		if state == "signal: interrupt" || state == "signal: killed" || state == "signal: terminated" {
			return true
		}
	}
	return false
}

// classifyCaptureError maps a process start failure onto the capture error
// taxonomy using the tool's stderr output.
func classifyCaptureError(err error, stderr string) error {
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "access denied"),
		strings.Contains(lower, "not authorized"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, strings.TrimSpace(stderr))
	case strings.Contains(lower, "no such device"),
		strings.Contains(lower, "no such entity"),
		strings.Contains(lower, "device not found"),
		strings.Contains(lower, "does not exist"):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, strings.TrimSpace(stderr))
	}

	return fmt.Errorf("failed to start capture process: %w", err)
}
