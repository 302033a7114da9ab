package qpack

import (
	"errors"
	"fmt"
)

// An EncoderStreamError is an error on the encoder stream. It is fatal to
// the connection (H3_QPACK_ENCODER_STREAM_ERROR).
type EncoderStreamError struct {
	Err error
}

func (e EncoderStreamError) Error() string { return "encoder stream error: " + e.Err.Error() }
func (e EncoderStreamError) Unwrap() error { return e.Err }

// A DecoderStreamError is an error on the decoder stream. It is fatal to
// the connection (H3_QPACK_DECODER_STREAM_ERROR).
type DecoderStreamError struct {
	Err error
}

func (e DecoderStreamError) Error() string { return "decoder stream error: " + e.Err.Error() }
func (e DecoderStreamError) Unwrap() error { return e.Err }

// A decodingError is an error defined as a decoding error by RFC 9204.
// It renders a single header block unusable, but leaves the connection
// intact.
type decodingError struct {
	err error
}

func (de decodingError) Error() string {
	return fmt.Sprintf("decoding error: %v", de.err)
}

func (de decodingError) Unwrap() error { return de.err }

// An invalidIndexError is returned when a representation references a
// table entry that does not exist.
type invalidIndexError int

func (e invalidIndexError) Error() string {
	return fmt.Sprintf("invalid indexed representation index %d", int(e))
}

var (
	errNeedMore = errors.New("need more data")

	errIntegerTooLarge      = errors.New("integer too large")
	errStringLiteralTooLong = errors.New("string literal too long")

	errIncompleteHeaderBlock      = errors.New("incomplete header block")
	errIncompleteHeaderDataPrefix = errors.New("incomplete header data prefix")
)
