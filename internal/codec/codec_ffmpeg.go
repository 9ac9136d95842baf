//go:build ffmpeg
// +build ffmpeg

// If you are AI: This file provides the codec lifecycle when built with FFmpeg support: package-level init/cleanup.

package codec

var initialized = false

// Init initializes the FFmpeg-backed codec libraries. Must be called
// before NewDecoder, NewVP9Encoder, or OpenDemuxer.
func Init() error {
	// NOTE: a full build would call avformat_network_init() and
	// av_register_all()-equivalent setup here; this module isolates all
	// cgo surface behind this build tag.
	initialized = true
	return nil
}

// Cleanup releases FFmpeg global state.
func Cleanup() {
	initialized = false
}

// IsAvailable reports whether Init has run successfully.
func IsAvailable() bool {
	return initialized
}
