//go:build !ffmpeg
// +build !ffmpeg

// If you are AI: This file stubs file/camera demuxing (non-RTMP URLSource schemes) when FFmpeg is not compiled in.

package codec

import (
	"nonchalant/internal/bot"
	"nonchalant/internal/reactive"
)

// OpenDemuxer opens a file or device URL (any scheme other than
// rtmp://, which URLSource handles itself) and returns a Publisher of
// encoded packets, delegating demuxing to this codec collaborator.
// Stub: always fails.
func OpenDemuxer(url string) (reactive.Publisher[bot.EncodedPacket], error) {
	return nil, ErrNotAvailable
}
