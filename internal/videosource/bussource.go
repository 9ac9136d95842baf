// If you are AI: This file implements BusSource, subscribing to a metadata and a frames channel and emitting reassembled encoded packets.

package videosource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/busclient"
	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
	"nonchalant/internal/reactive"
)

// wireEvent carries a decoded metadata or frame message across the
// internal channel a bus subscription callback feeds and the generator
// pump drains.
type wireEvent struct {
	meta  *metadataMessage
	frame *frameMessage
}

// BusSource subscribes to a metadata channel and a frames channel via a
// busclient.Client, reassembles multi-chunk NetworkFrames, and emits a
// Publisher of bot.EncodedPacket. The reassembly and gap handling is
// adapted from internal/core/protocol/rtmp/chunk.go's chunk-stream-id
// bookkeeping, here keyed by frame id instead.
type BusSource struct {
	client          busclient.Client
	metadataChannel string
	framesChannel   string
	metrics         *metrics.Registry
	log             *logrus.Entry

	events chan wireEvent
	done   chan struct{}
}

// NewBusSource builds a BusSource bound to the given channels.
func NewBusSource(client busclient.Client, metadataChannel, framesChannel string, m *metrics.Registry) *BusSource {
	return &BusSource{
		client:          client,
		metadataChannel: metadataChannel,
		framesChannel:   framesChannel,
		metrics:         m,
		log:             logging.For("videosource.bus"),
		events:          make(chan wireEvent, 256),
		done:            make(chan struct{}),
	}
}

// Open subscribes to both channels and returns a Publisher that emits
// reassembled packets as demand allows.
func (s *BusSource) Open(ctx context.Context) (reactive.Publisher[bot.EncodedPacket], error) {
	metaSub := &busclient.Subscription{}
	if err := s.client.Subscribe(ctx, s.metadataChannel, metaSub, busclient.DataCallbacks{
		OnMessage: s.onMetadataMessage,
		OnError:   func(err error) { s.log.WithError(err).Error("metadata channel subscription error") },
	}, busclient.RequestCallbacks{}, busclient.SubscriptionOptions{}); err != nil {
		return nil, fmt.Errorf("subscribe to metadata channel %s: %w", s.metadataChannel, err)
	}

	framesSub := &busclient.Subscription{}
	if err := s.client.Subscribe(ctx, s.framesChannel, framesSub, busclient.DataCallbacks{
		OnMessage: s.onFrameMessage,
		OnError:   func(err error) { s.log.WithError(err).Error("frames channel subscription error") },
	}, busclient.RequestCallbacks{}, busclient.SubscriptionOptions{}); err != nil {
		return nil, fmt.Errorf("subscribe to frames channel %s: %w", s.framesChannel, err)
	}

	return reactive.Stateful[*assemblyState, bot.EncodedPacket](
		func() *assemblyState { return &assemblyState{} },
		s.pump,
	), nil
}

// Close stops accepting new wire events and unblocks a pump call
// blocked waiting for one.
func (s *BusSource) Close() {
	close(s.done)
}

// onMetadataMessage decodes an inbound metadata message and forwards it
// to the generator. Parse failures are dropped and logged rather than
// propagated as a stream error.
func (s *BusSource) onMetadataMessage(msg busclient.Message) {
	var m metadataMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		s.log.WithError(err).Warn("dropping malformed metadata message")
		return
	}
	select {
	case s.events <- wireEvent{meta: &m}:
	case <-s.done:
	}
}

// onFrameMessage decodes an inbound frame chunk and forwards it to the
// generator.
func (s *BusSource) onFrameMessage(msg busclient.Message) {
	var f frameMessage
	if err := json.Unmarshal(msg.Data, &f); err != nil {
		s.log.WithError(err).Warn("dropping malformed frame message")
		return
	}
	select {
	case s.events <- wireEvent{frame: &f}:
	case <-s.done:
	}
}

// assemblyState is the generator state: the last announced codec
// parameters and the frame currently being assembled, if any.
type assemblyState struct {
	lastMeta   *bot.CodecParameters
	assembling *frameAssembly
}

// pump drains wireEvents until it can emit exactly one EncodedPacket or
// the source closes, per reactive.Stateful's contract.
func (s *BusSource) pump(state *assemblyState, sink *reactive.Sink[bot.EncodedPacket]) {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				sink.Complete()
				return
			}
			if ev.meta != nil {
				if s.handleMeta(state, ev.meta, sink) {
					return
				}
				continue
			}
			if s.handleFrame(state, ev.frame, sink) {
				return
			}
		case <-s.done:
			sink.Complete()
			return
		}
	}
}

// handleMeta applies a metadata event, emitting a CodecParameters packet
// only when it differs from the last announced one.
func (s *BusSource) handleMeta(state *assemblyState, m *metadataMessage, sink *reactive.Sink[bot.EncodedPacket]) bool {
	extra, err := base64.StdEncoding.DecodeString(m.ExtraDataBase64)
	if err != nil {
		s.log.WithError(err).Warn("dropping metadata message with malformed extra_data_base64")
		return false
	}
	cp := bot.CodecParameters{Name: m.Codec, ExtraData: extra}
	if state.lastMeta != nil && state.lastMeta.Name == cp.Name && string(state.lastMeta.ExtraData) == string(cp.ExtraData) {
		return false
	}
	state.lastMeta = &cp
	state.assembling = nil
	sink.Next(cp)
	return true
}

// handleFrame applies a frame chunk: discards it if no metadata has
// been observed yet, drops a stale in-flight assembly only when a
// genuinely newer frame id arrives (a forward gap), drops a lone
// out-of-order older chunk without disturbing the current assembly, and
// emits a completed EncodedFrame once every expected chunk has arrived.
func (s *BusSource) handleFrame(state *assemblyState, f *frameMessage, sink *reactive.Sink[bot.EncodedPacket]) bool {
	if state.lastMeta == nil {
		s.log.Warn("dropping frame chunk received before any metadata")
		return false
	}
	id := bot.FrameID{I1: f.I[0], I2: f.I[1]}
	if state.assembling != nil && state.assembling.id != id {
		cur := state.assembling.id
		if id.I1 < cur.I1 || (id.I1 == cur.I1 && id.I2 < cur.I2) {
			s.log.WithField("assembling_id", state.assembling.id).WithField("stale_id", id).Warn("dropping out-of-order chunk for an older frame id")
			if s.metrics != nil {
				s.metrics.FramesDropped.WithLabelValues("stale_chunk").Inc()
			}
			return false
		}
		s.log.WithField("dropped_id", state.assembling.id).WithField("next_id", id).Warn("frame chunk gap, dropping partial frame")
		if s.metrics != nil {
			s.metrics.FramesDropped.WithLabelValues("chunk_gap").Inc()
		}
		state.assembling = nil
	}
	if state.assembling == nil {
		state.assembling = newFrameAssembly(id, f.Chunks, f.Key)
	}
	data, err := base64.StdEncoding.DecodeString(f.D)
	if err != nil {
		s.log.WithError(err).Warn("dropping frame chunk with malformed base64 payload")
		state.assembling = nil
		return false
	}
	if !state.assembling.addChunk(data) {
		return false
	}
	frame := state.assembling.complete(f.T)
	state.assembling = nil
	sink.Next(frame)
	return true
}
