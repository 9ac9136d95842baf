// If you are AI: This file declares the codec collaborator interfaces shared by both the stub and FFmpeg-backed builds.

package codec

import "nonchalant/internal/bot"

// Decoder turns encoded frames into owned image frames at a fixed
// target pixel format, at most one decoded frame per Decode call; it has
// no flush call for frames still buffered at end of stream.
// internal/decoder wraps this collaborator with geometry latching and
// parameter-change teardown.
type Decoder interface {
	Decode(pkt bot.EncodedFrame) (*bot.OwnedImageFrame, error)
	Close() error
}

// Encoder compresses owned image frames into a target codec's encoded
// frames. internal/transcode's VP9Transcoder wraps this collaborator.
type Encoder interface {
	Encode(frame bot.OwnedImageFrame) (*bot.EncodedFrame, error)
	Parameters() bot.CodecParameters
	Close() error
}
