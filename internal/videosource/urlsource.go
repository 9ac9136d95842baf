// If you are AI: This file implements URLSource, pulling encoded video from a URL, using the real RTMP client stack for rtmp:// schemes.

package videosource

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/codec"
	"nonchalant/internal/core/protocol/amf0"
	"nonchalant/internal/core/protocol/rtmp"
	"nonchalant/internal/logging"
	"nonchalant/internal/reactive"
)

// URLSource pulls encoded video from a URL. An rtmp:// URL is played
// over a real RTMP client connection built from the internal/core/
// protocol/rtmp stack; any other scheme is handed to the codec
// collaborator (internal/codec.OpenDemuxer), which covers file and
// device URLs; there are no separate file or camera source types.
type URLSource struct {
	rawURL string
	log    *logrus.Entry
}

// NewURLSource builds a URLSource for rawURL.
func NewURLSource(rawURL string) *URLSource {
	return &URLSource{rawURL: rawURL, log: logging.For("videosource.url")}
}

// Open dials rawURL and returns a Publisher of encoded packets.
func (s *URLSource) Open() (reactive.Publisher[bot.EncodedPacket], error) {
	u, err := url.Parse(s.rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url %q: %w", s.rawURL, err)
	}
	if strings.EqualFold(u.Scheme, "rtmp") {
		return s.openRTMP(u)
	}
	return codec.OpenDemuxer(s.rawURL)
}

// openRTMP dials u, performs the client handshake, issues
// connect/createStream/play, and returns a generator publishing each
// reassembled AVC video message as an encoded packet; audio messages
// are skipped.
func (s *URLSource) openRTMP(u *url.URL) (reactive.Publisher[bot.EncodedPacket], error) {
	addr := u.Host
	if !strings.Contains(addr, ":") {
		addr += ":1935"
	}
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial rtmp %s: %w", addr, err)
	}
	if err := rtmp.PerformClientHandshake(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("rtmp handshake with %s: %w", addr, err)
	}

	parser := rtmp.NewChunkParser()
	appName := strings.Trim(u.Path, "/")
	if err := sendConnect(conn, u, appName); err != nil {
		conn.Close()
		return nil, err
	}
	streamID, err := sendCreateStream(conn, parser)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := sendPlay(conn, streamID, appName); err != nil {
		conn.Close()
		return nil, err
	}

	state := &rtmpStreamState{conn: conn, parser: parser, log: s.log}
	return reactive.Stateful[*rtmpStreamState, bot.EncodedPacket](
		func() *rtmpStreamState { return state },
		pumpRTMPStream,
	), nil
}

// sendConnect issues the RTMP "connect" command against the connection.
func sendConnect(conn net.Conn, u *url.URL, appName string) error {
	body, err := amf0.EncodeCommand(amf0.Array{
		"connect", float64(1),
		amf0.Object{"app": appName, "tcUrl": u.String(), "type": "nonprivate"},
	})
	if err != nil {
		return fmt.Errorf("encode connect command: %w", err)
	}
	return rtmp.WriteChunk(conn, 3, rtmp.MessageTypeCommandAMF0, 0, 0, body, rtmp.DefaultChunkSize)
}

// sendCreateStream issues "createStream" and reads the peer's "_result"
// reply to learn the stream id it actually allocated.
func sendCreateStream(conn net.Conn, parser *rtmp.ChunkParser) (uint32, error) {
	body, err := amf0.EncodeCommand(amf0.Array{"createStream", float64(2), nil})
	if err != nil {
		return 0, fmt.Errorf("encode createStream command: %w", err)
	}
	if err := rtmp.WriteChunk(conn, 3, rtmp.MessageTypeCommandAMF0, 0, 0, body, rtmp.DefaultChunkSize); err != nil {
		return 0, err
	}
	return readCreateStreamResult(conn, parser)
}

// readCreateStreamResult reads messages until the peer's "_result" reply
// to createStream arrives, applying any Set Chunk Size control message
// seen along the way, and returns the allocated stream id.
func readCreateStreamResult(conn net.Conn, parser *rtmp.ChunkParser) (uint32, error) {
	const maxMessages = 64
	for i := 0; i < maxMessages; i++ {
		csID, err := parser.ReadChunk(conn)
		if err != nil {
			return 0, fmt.Errorf("read createStream reply: %w", err)
		}
		body, msgType, _, complete := parser.GetCompleteMessage(csID)
		if !complete {
			continue
		}
		switch msgType {
		case rtmp.MessageTypeSetChunkSize:
			if size, err := rtmp.ParseSetChunkSize(body); err == nil {
				parser.SetChunkSize(size)
			}
		case rtmp.MessageTypeCommandAMF0:
			cmd, err := amf0.DecodeCommand(bytes.NewReader(body))
			if err != nil {
				continue
			}
			if streamID, ok := createStreamResult(cmd); ok {
				return streamID, nil
			}
		}
	}
	return 0, fmt.Errorf("no createStream _result reply within %d messages", maxMessages)
}

// createStreamResult extracts the allocated stream id from a decoded
// "_result" reply to createStream: ["_result", txnID, properties, streamID].
func createStreamResult(cmd amf0.Array) (uint32, bool) {
	if len(cmd) < 4 {
		return 0, false
	}
	name, ok := cmd[0].(string)
	if !ok || name != "_result" {
		return 0, false
	}
	id, ok := cmd[3].(float64)
	if !ok {
		return 0, false
	}
	return uint32(id), true
}

// sendPlay issues "play" for streamKey on the created stream.
func sendPlay(conn net.Conn, streamID uint32, streamKey string) error {
	body, err := amf0.EncodeCommand(amf0.Array{"play", float64(0), nil, streamKey})
	if err != nil {
		return fmt.Errorf("encode play command: %w", err)
	}
	return rtmp.WriteChunk(conn, 8, rtmp.MessageTypeCommandAMF0, 0, streamID, body, rtmp.DefaultChunkSize)
}
