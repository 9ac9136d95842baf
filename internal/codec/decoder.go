//go:build !ffmpeg
// +build !ffmpeg

// If you are AI: This file stubs the low-level per-frame decoder collaborator when FFmpeg is not compiled in.

package codec

import "nonchalant/internal/bot"

// NewDecoder builds a Decoder for the given codec parameters and target
// pixel format. Stub: always fails.
func NewDecoder(params bot.CodecParameters, format bot.PixelFormat) (Decoder, error) {
	return nil, ErrNotAvailable
}
