// If you are AI: This file implements VP9Transcoder, the re-encode stage between decode and the container sink.

package transcode

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/codec"
	"nonchalant/internal/logging"
	"nonchalant/internal/reactive"
)

// VP9Transcoder re-encodes a stream of owned image frames into a VP9
// encoded-packet stream, for the container-recording pipeline when
// transcoding is enabled; that pipeline runs no bot instance. Follows the
// same build-tag isolation pattern as internal/codec, narrowed to a
// single fixed target codec.
type VP9Transcoder struct {
	log *logrus.Entry
}

// NewVP9Transcoder builds a VP9Transcoder.
func NewVP9Transcoder() *VP9Transcoder {
	return &VP9Transcoder{log: logging.For("transcode.vp9")}
}

// transcoderState holds the lazily-built encoder, keyed by the first
// frame's geometry; a geometry change tears down and rebuilds it.
type transcoderState struct {
	encoder  codec.Encoder
	geometry *bot.ImageMetadata
	sentCP   bool
}

// Run wraps src with the VP9 re-encode stage.
func (t *VP9Transcoder) Run(src reactive.Publisher[bot.OwnedImageFrame]) reactive.Publisher[bot.EncodedPacket] {
	state := &transcoderState{}
	handler := func(frame bot.OwnedImageFrame) reactive.Publisher[bot.EncodedPacket] {
		return reactive.FromSlice(t.handle(state, frame))
	}
	return reactive.Flatten[bot.EncodedPacket](reactive.MapPublishers(src, handler))
}

// handle encodes one frame, emitting a CodecParameters packet ahead of
// the first EncodedFrame and whenever geometry changes.
func (t *VP9Transcoder) handle(state *transcoderState, frame bot.OwnedImageFrame) []bot.EncodedPacket {
	if state.geometry == nil || !state.geometry.Equal(frame.Metadata) {
		if state.encoder != nil {
			_ = state.encoder.Close()
		}
		enc, err := codec.NewVP9Encoder(frame.Metadata.Width, frame.Metadata.Height)
		if err != nil {
			t.log.WithError(err).Warn("vp9 encoder initialization failed, frame dropped")
			state.encoder = nil
			return nil
		}
		state.encoder = enc
		geom := frame.Metadata
		state.geometry = &geom
		state.sentCP = false
	}
	if state.encoder == nil {
		return nil
	}

	out := make([]bot.EncodedPacket, 0, 2)
	if !state.sentCP {
		out = append(out, state.encoder.Parameters())
		state.sentCP = true
	}
	ef, err := state.encoder.Encode(frame)
	if err != nil {
		t.log.WithError(err).Warn(fmt.Sprintf("vp9 encode failed for frame %+v", frame.ID))
		return out
	}
	if ef != nil {
		ef.ID = frame.ID
		out = append(out, *ef)
	}
	return out
}
