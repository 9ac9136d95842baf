// If you are AI: This file turns a raw RTMP connection's reassembled video messages into bot.EncodedPacket values; audio messages are skipped.

package videosource

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/core/protocol/rtmp"
	"nonchalant/internal/reactive"
)

// millisToTimeOrigin anchors millisToTime's wall-clock conversion to
// process start.
var millisToTimeOrigin = time.Now()

// millisToTime converts an RTMP message timestamp (milliseconds since
// stream start) to a wall-clock arrival time anchored at process start.
func millisToTime(ms uint32) time.Time {
	return millisToTimeOrigin.Add(time.Duration(ms) * time.Millisecond)
}

// rtmpStreamState is the generator state driving an RTMP playback
// connection: read one chunk at a time until a video message completes,
// then translate it into an encoded packet.
type rtmpStreamState struct {
	conn       net.Conn
	parser     *rtmp.ChunkParser
	log        *logrus.Entry
	haveParams bool
}

// pumpRTMPStream reads chunks until a complete AVC video message is
// available (audio and other messages are skipped), emitting a
// CodecParameters packet for each AVC sequence header and an
// EncodedFrame for every video NALU payload after the first sequence
// header. Its signature matches reactive.Stateful's pump contract.
func pumpRTMPStream(state *rtmpStreamState, sink *reactive.Sink[bot.EncodedPacket]) {
	for {
		csID, err := state.parser.ReadChunk(state.conn)
		if err != nil {
			sink.Complete()
			return
		}
		body, msgType, timestamp, complete := state.parser.GetCompleteMessage(csID)
		if !complete {
			continue
		}
		if msgType == rtmp.MessageTypeSetChunkSize {
			if size, err := rtmp.ParseSetChunkSize(body); err == nil {
				state.parser.SetChunkSize(size)
			}
			continue
		}
		if msgType != rtmp.MessageTypeVideo {
			continue
		}
		packet, ok := state.decodeVideoTag(body, timestamp)
		if !ok {
			continue
		}
		sink.Next(packet)
		return
	}
}

// decodeVideoTag parses an FLV-style video tag body: frame type and
// codec id in the first byte, AVC packet type and composition time for
// AVC payloads, matching the convention internal/core/protocol/flv uses
// for its own tag bodies.
func (s *rtmpStreamState) decodeVideoTag(body []byte, timestampMillis uint32) (bot.EncodedPacket, bool) {
	if len(body) < 1 {
		return nil, false
	}
	frameType := body[0] >> 4
	codecID := body[0] & 0x0f
	if codecID != 7 || len(body) < 5 {
		return nil, false
	}
	avcPacketType := body[1]
	payload := body[5:]

	if avcPacketType == 0 {
		s.haveParams = true
		return bot.CodecParameters{Name: "avc1", ExtraData: append([]byte(nil), payload...)}, true
	}
	if !s.haveParams {
		return nil, false
	}
	return bot.EncodedFrame{
		Data:        append([]byte(nil), payload...),
		KeyFrame:    frameType == 1,
		ArrivalTime: millisToTime(timestampMillis),
	}, true
}
