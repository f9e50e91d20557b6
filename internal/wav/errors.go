package wav

import "errors"

var (
	// ErrInvalidContainer indicates a buffer that is not a well-formed
	// 44-byte-header PCM container.
	ErrInvalidContainer = errors.New("invalid audio container")

	// ErrConversionFailed indicates the external converter exited with an
	// error or produced no usable output.
	ErrConversionFailed = errors.New("audio conversion failed")
)
