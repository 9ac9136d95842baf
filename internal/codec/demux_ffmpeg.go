//go:build ffmpeg
// +build ffmpeg

// If you are AI: This file scaffolds FFmpeg-backed file/camera demuxing, isolating its cgo surface behind a build tag.

package codec

import (
	"errors"

	"nonchalant/internal/bot"
	"nonchalant/internal/reactive"
)

// OpenDemuxer opens a file or device URL and returns a Publisher of
// encoded packets.
func OpenDemuxer(url string) (reactive.Publisher[bot.EncodedPacket], error) {
	if !initialized {
		return nil, errors.New("codec.Init was not called")
	}
	// NOTE: a full implementation would call avformat_open_input,
	// avformat_find_stream_info, and drive av_read_frame from the
	// generator's pump, mirroring videosource's rtmpStreamState.
	return nil, errors.New("ffmpeg demux not implemented")
}
