package tonemap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned (wrapped) for a bad exposure, a bad
	// normalization factor, or a malformed image.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownOperator is returned by Apply for a name not in Operators().
	ErrUnknownOperator = errors.New("unknown tonemapper")
)

// A DecodeError comes from the decoder boundary, not from the pipeline. It
// is passed through unchanged; nothing is rendered from a failed decode.
type DecodeError struct {
	Path string // may be empty for in-memory sources
	Msg  string // human-readable, safe to show to a viewer
	Err  error  // underlying cause, if any
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode: " + e.Msg
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }
