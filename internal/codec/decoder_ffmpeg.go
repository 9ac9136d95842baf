//go:build ffmpeg
// +build ffmpeg

// If you are AI: This file scaffolds the FFmpeg-backed per-frame decoder, isolating its cgo surface behind a build tag.

package codec

import (
	"errors"

	"nonchalant/internal/bot"
)

// ffmpegDecoder wraps an AVCodecContext. Full cgo bindings are not
// vendored into this module; the struct documents the fields a real
// binding would hold.
type ffmpegDecoder struct {
	params bot.CodecParameters
	format bot.PixelFormat
	// NOTE: a full implementation would hold *C.AVCodecContext and a
	// reusable *C.AVFrame/*C.AVPacket pair here.
}

// NewDecoder builds a Decoder for the given codec parameters and target
// pixel format.
func NewDecoder(params bot.CodecParameters, format bot.PixelFormat) (Decoder, error) {
	if !initialized {
		return nil, errors.New("codec.Init was not called")
	}
	// NOTE: a full implementation would call avcodec_find_decoder_by_name,
	// avcodec_alloc_context3, and avcodec_open2 with params.ExtraData here.
	return &ffmpegDecoder{params: params, format: format}, nil
}

// Decode decodes one encoded frame.
func (d *ffmpegDecoder) Decode(pkt bot.EncodedFrame) (*bot.OwnedImageFrame, error) {
	// NOTE: a full implementation would call avcodec_send_packet /
	// avcodec_receive_frame and convert planes via sws_scale into d.format.
	return nil, errors.New("ffmpeg decode not implemented")
}

// Close releases the decoder context.
func (d *ffmpegDecoder) Close() error {
	return nil
}
