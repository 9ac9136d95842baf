// If you are AI: This file implements ContainerSink, writing an encoded packet stream to an FLV-style container file.

package sink

import (
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/core/protocol/amf0"
	"nonchalant/internal/core/protocol/flv"
	"nonchalant/internal/logging"
	"nonchalant/internal/reactive"
)

// EscapeChannelName escapes a channel name's slashes so it can be used
// as a single path segment in a container output path.
func EscapeChannelName(channel string) string {
	return strings.ReplaceAll(channel, "/", "{slash}")
}

// ContainerSink writes a stream of encoded video packets to an
// FLV-style container, using internal/core/protocol/flv (header/tag/mux)
// plus its amf0 package for the leading onMetaData script tag.
type ContainerSink struct {
	w         io.Writer
	log       *logrus.Entry
	wroteOpen bool
	haveCP    bool
	origin    time.Time
}

// NewContainerSink builds a ContainerSink writing to w.
func NewContainerSink(w io.Writer) *ContainerSink {
	return &ContainerSink{w: w, log: logging.For("sink.container")}
}

// Drain subscribes to src with unbounded demand and writes every packet
// to the container until src completes, returning the first write error
// encountered.
func (c *ContainerSink) Drain(src reactive.Publisher[bot.EncodedPacket]) error {
	errCh := make(chan error, 1)
	done := make(chan struct{})
	fail := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}
	src.Subscribe(reactive.Funcs[bot.EncodedPacket]{
		Subscribe: func(sub reactive.Subscription) { sub.Request(1 << 30) },
		Next: func(v bot.EncodedPacket) {
			if err := c.write(v); err != nil {
				fail(err)
			}
		},
		Err:      func(err error) { fail(err); close(done) },
		Complete: func() { close(done) },
	})
	<-done
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// write encodes one packet to a tag and appends it to the container,
// opening the container (header + onMetaData) on the first call.
func (c *ContainerSink) write(pkt bot.EncodedPacket) error {
	if !c.wroteOpen {
		c.origin = time.Now()
		if err := c.open(); err != nil {
			return err
		}
		c.wroteOpen = true
	}

	var tag *flv.Tag
	switch v := pkt.(type) {
	case bot.CodecParameters:
		tag = flv.MuxCodecParameters(v.ExtraData, 0)
		c.haveCP = true
	case bot.EncodedFrame:
		if !c.haveCP {
			c.log.Warn("dropping encoded frame written to container before codec parameters")
			return nil
		}
		tag = flv.MuxVideoFrame(v.Data, v.KeyFrame, c.millisSinceOrigin(v.ArrivalTime))
	default:
		c.log.Warnf("dropping container packet of unrecognized type %T", pkt)
		return nil
	}
	_, err := c.w.Write(tag.Bytes())
	return err
}

// open writes the FLV header, the leading zero previous-tag-size, and a
// minimal onMetaData script tag.
func (c *ContainerSink) open() error {
	header := flv.NewHeader(false, true)
	if _, err := c.w.Write(header.Bytes()); err != nil {
		return err
	}
	prevTagSize := make([]byte, 4)
	if _, err := c.w.Write(prevTagSize); err != nil {
		return err
	}
	script, err := encodeOnMetaData()
	if err != nil {
		return err
	}
	_, err = c.w.Write(flv.MuxScript(script, 0).Bytes())
	return err
}

// millisSinceOrigin converts an absolute arrival time into the
// container's relative millisecond timeline, clamping negative deltas
// (out-of-order arrival) to zero.
func (c *ContainerSink) millisSinceOrigin(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	d := t.Sub(c.origin)
	if d < 0 {
		return 0
	}
	return uint32(d.Milliseconds())
}

// encodeOnMetaData builds the AMF0 "onMetaData" script body written
// once at the start of every container.
func encodeOnMetaData() ([]byte, error) {
	var buf strings.Builder
	if err := amf0.Encode(&buf, "onMetaData"); err != nil {
		return nil, err
	}
	if err := amf0.Encode(&buf, amf0.Object{"videocodecid": float64(flv.VideoCodecAVC)}); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
