package c565

import "errors"

var (
	ErrInvalidMagic      = errors.New("c565: invalid magic")
	ErrShortHeader       = errors.New("c565: short header")
	ErrFieldOverflow     = errors.New("c565: value exceeds header field width")
	ErrDimensionMismatch = errors.New("c565: chunk dimensions do not divide image dimensions")
	ErrNotBaked          = errors.New("c565: chunk dimensions not baked")
	ErrPayloadSize       = errors.New("c565: payload size does not match chunk geometry")
	ErrOutOfRange        = errors.New("c565: chunk index out of range")

	// ErrEndOfStream signals that a session has consumed its last chunk.
	// It is not a fault.
	ErrEndOfStream = errors.New("c565: end of stream")
)
