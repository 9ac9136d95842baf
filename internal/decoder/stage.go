// If you are AI: This file implements the decoder stage: codec-parameter-triggered reinit, pixel format conversion, and geometry consistency. Each encoded frame yields at most one decoded frame; there is no drain step at end of stream, so upstream completion passes straight through.

package decoder

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/codec"
	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
	"nonchalant/internal/reactive"
)

// Stage turns a Publisher of encoded packets into a Publisher of owned
// image frames: codec-parameters (re)initialize the underlying
// codec.Decoder, discarding any in-flight partial output from the prior
// parameter set; encoded frames are decoded and converted to the target
// pixel format; geometry is latched once and enforced thereafter.
type Stage struct {
	format  bot.PixelFormat
	metrics *metrics.Registry
	log     *logrus.Entry
}

// NewStage builds a decoder stage targeting the given pixel format.
func NewStage(format bot.PixelFormat, m *metrics.Registry) *Stage {
	return &Stage{format: format, metrics: m, log: logging.For("decoder.stage")}
}

// stageState holds the live codec.Decoder and latched geometry across
// the lifetime of one Run call.
type stageState struct {
	decoder  codec.Decoder
	params   *bot.CodecParameters
	geometry *bot.ImageMetadata
}

// Run wraps src with the decode stage.
func (s *Stage) Run(src reactive.Publisher[bot.EncodedPacket]) reactive.Publisher[bot.OwnedImageFrame] {
	return reactive.Flatten[bot.OwnedImageFrame](reactive.MapPublishers(src, s.handlerFor()))
}

// handlerFor returns a stateful handler closure so every packet shares
// the same stageState across calls, letting Flatten see a fresh
// single-element-or-empty Publisher per packet without losing decoder
// state between packets.
func (s *Stage) handlerFor() func(bot.EncodedPacket) reactive.Publisher[bot.OwnedImageFrame] {
	state := &stageState{}
	return func(pkt bot.EncodedPacket) reactive.Publisher[bot.OwnedImageFrame] {
		frames := s.handle(state, pkt)
		return reactive.FromSlice(frames)
	}
}

// handle dispatches one encoded packet to the parameters or frame path.
func (s *Stage) handle(state *stageState, pkt bot.EncodedPacket) []bot.OwnedImageFrame {
	switch v := pkt.(type) {
	case bot.CodecParameters:
		s.reinit(state, v)
		return nil
	case bot.EncodedFrame:
		return s.decodeFrame(state, v)
	default:
		s.log.Warnf("dropping encoded packet of unrecognized type %T", pkt)
		return nil
	}
}

// reinit tears down any existing decoder and builds a fresh one for the
// new codec parameters, discarding pending partial output.
func (s *Stage) reinit(state *stageState, params bot.CodecParameters) {
	if state.decoder != nil {
		_ = state.decoder.Close()
		state.decoder = nil
	}
	d, err := codec.NewDecoder(params, s.format)
	if err != nil {
		s.log.WithError(err).Warn("decoder reinitialization failed, frames will be dropped until recovered")
		state.params = nil
		return
	}
	state.decoder = d
	state.params = &params
}

// decodeFrame decodes one encoded frame, enforcing the latched geometry
// contract and recording drop/decode metrics.
func (s *Stage) decodeFrame(state *stageState, ef bot.EncodedFrame) []bot.OwnedImageFrame {
	if state.decoder == nil {
		s.log.Warn("dropping encoded frame received before any codec parameters")
		s.countDrop("no_decoder")
		return nil
	}
	frame, err := state.decoder.Decode(ef)
	if err != nil || frame == nil {
		if err != nil {
			s.log.WithError(err).Warn("decode failed")
		}
		s.countDrop("decode_failed")
		return nil
	}
	if state.geometry == nil {
		geom := frame.Metadata
		state.geometry = &geom
	} else if !state.geometry.Equal(frame.Metadata) {
		panic(bot.ContractViolation{Reason: fmt.Sprintf("decoder geometry changed mid-stream: had %+v, got %+v", *state.geometry, frame.Metadata)})
	}
	if s.metrics != nil {
		s.metrics.FramesDecoded.WithLabelValues(string(s.format)).Inc()
	}
	return []bot.OwnedImageFrame{*frame}
}

// countDrop records a dropped-frame metric by reason, if a registry is
// wired.
func (s *Stage) countDrop(reason string) {
	if s.metrics != nil {
		s.metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}
