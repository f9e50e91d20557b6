package session

import "errors"

// ErrRecordingTooShort indicates the finalized buffer carries less than the
// minimum usable duration. It means "no usable recording", not a crash.
var ErrRecordingTooShort = errors.New("recording too short")
