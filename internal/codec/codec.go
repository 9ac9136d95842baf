//go:build !ffmpeg
// +build !ffmpeg

// If you are AI: This file provides stub codec lifecycle functions when FFmpeg is not compiled in.

package codec

import "errors"

// ErrNotAvailable is returned by every codec operation when the binary
// was not built with -tags ffmpeg.
var ErrNotAvailable = errors.New("codec support not compiled in (build with -tags ffmpeg)")

// Init initializes the codec backend. Stub: always fails.
func Init() error {
	return ErrNotAvailable
}

// Cleanup releases the codec backend. Stub: no-op.
func Cleanup() {}

// IsAvailable reports whether a real codec backend is compiled in.
// Stub: always false.
func IsAvailable() bool {
	return false
}
