//go:build ffmpeg
// +build ffmpeg

// If you are AI: This file scaffolds the FFmpeg-backed VP9 encoder, isolating its cgo surface behind a build tag.

package codec

import (
	"errors"

	"nonchalant/internal/bot"
)

// ffmpegVP9Encoder wraps an AVCodecContext configured for VP9.
type ffmpegVP9Encoder struct {
	width, height int
	// NOTE: a full implementation would hold *C.AVCodecContext here.
}

// NewVP9Encoder builds an Encoder targeting VP9 at the given geometry.
func NewVP9Encoder(width, height int) (Encoder, error) {
	if !initialized {
		return nil, errors.New("codec.Init was not called")
	}
	// NOTE: a full implementation would call avcodec_find_encoder(AV_CODEC_ID_VP9)
	// and avcodec_open2 with a libvpx-vp9 configuration here.
	return &ffmpegVP9Encoder{width: width, height: height}, nil
}

// Encode compresses one frame.
func (e *ffmpegVP9Encoder) Encode(frame bot.OwnedImageFrame) (*bot.EncodedFrame, error) {
	// NOTE: a full implementation would call avcodec_send_frame /
	// avcodec_receive_packet here.
	return nil, errors.New("ffmpeg vp9 encode not implemented")
}

// Parameters returns the codec parameters announcing this encoder's
// output (name and any extradata produced by libvpx-vp9).
func (e *ffmpegVP9Encoder) Parameters() bot.CodecParameters {
	return bot.CodecParameters{Name: "vp9"}
}

// Close releases the encoder context.
func (e *ffmpegVP9Encoder) Close() error {
	return nil
}
