package capture

import "errors"

var (
	// ErrDependencyMissing indicates the external recording tool is not
	// installed.
	ErrDependencyMissing = errors.New("required recording tool not found")

	// ErrPermissionDenied indicates microphone or capture permission has
	// not been granted.
	ErrPermissionDenied = errors.New("audio capture permission denied")

	// ErrDeviceNotFound indicates the requested capture device does not
	// exist.
	ErrDeviceNotFound = errors.New("audio device not found")

	// ErrNoAudioTrack indicates the requested loopback stream carries no
	// audio.
	ErrNoAudioTrack = errors.New("stream has no audio track")

	// ErrBackendCrashed indicates the capture process exited unexpectedly
	// while recording.
	ErrBackendCrashed = errors.New("capture backend crashed")

	// ErrNotRunning indicates Stop was called on a backend that never
	// started.
	ErrNotRunning = errors.New("capture backend not running")
)
