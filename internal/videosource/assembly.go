// If you are AI: This file implements multi-chunk frame reassembly for the bus source, adapted from RTMP chunk-stream reassembly.

package videosource

import (
	"time"

	"nonchalant/internal/bot"
)

// frameAssembly accumulates the chunks of a single in-flight frame,
// concatenated in order of arrival (not by chunk index), mirroring
// rtmp.ChunkStream's buffer-and-bytesRead bookkeeping.
type frameAssembly struct {
	id       bot.FrameID
	expected int
	received int
	keyFrame bool
	buf      []byte
}

// newFrameAssembly starts assembling a fresh frame from its first chunk.
func newFrameAssembly(id bot.FrameID, expected int, keyFrame bool) *frameAssembly {
	return &frameAssembly{id: id, expected: expected, keyFrame: keyFrame}
}

// addChunk appends one chunk's payload and reports whether the frame is
// now complete.
func (a *frameAssembly) addChunk(data []byte) bool {
	a.buf = append(a.buf, data...)
	a.received++
	return a.received >= a.expected
}

// complete builds the final EncodedFrame from accumulated chunks.
func (a *frameAssembly) complete(arrivalTimeMillis int64) bot.EncodedFrame {
	return bot.EncodedFrame{
		ID:          a.id,
		Data:        a.buf,
		KeyFrame:    a.keyFrame,
		ArrivalTime: time.UnixMilli(arrivalTimeMillis),
	}
}
