//go:build !ffmpeg
// +build !ffmpeg

// If you are AI: This file stubs the VP9 encoder collaborator used by internal/transcode when FFmpeg is not compiled in.

package codec

// NewVP9Encoder builds an Encoder targeting VP9 at the given geometry.
// Stub: always fails.
func NewVP9Encoder(width, height int) (Encoder, error) {
	return nil, ErrNotAvailable
}
