// If you are AI: This file provides FLV muxing helpers for converting encoded video packets to FLV tags.
// Muxing preserves original payloads without transcoding.

package flv

// wrapAVCPayload builds the 5-byte AVC video-tag prefix (frame type +
// codec id nibble, AVCPacketType, zero composition time) ahead of the
// raw payload.
func wrapAVCPayload(frameType, packetType byte, payload []byte) []byte {
	out := make([]byte, 5+len(payload))
	out[0] = (frameType << 4) | VideoCodecAVC
	out[1] = packetType
	copy(out[5:], payload)
	return out
}

// MuxCodecParameters converts an AVC sequence header (extra data) into an
// FLV video tag announcing the decoder configuration.
// Allocation: Creates tag structure and a fresh payload buffer.
func MuxCodecParameters(extraData []byte, timestamp uint32) *Tag {
	payload := wrapAVCPayload(VideoFrameKeyFrame, AVCPacketTypeSequenceHeader, extraData)
	return NewTag(TagTypeVideo, timestamp, payload)
}

// MuxVideoFrame converts one encoded AVC frame into an FLV video tag.
// Allocation: Creates tag structure and a fresh payload buffer.
func MuxVideoFrame(data []byte, keyFrame bool, timestamp uint32) *Tag {
	frameType := byte(VideoFrameInterFrame)
	if keyFrame {
		frameType = VideoFrameKeyFrame
	}
	payload := wrapAVCPayload(frameType, AVCPacketTypeNALU, data)
	return NewTag(TagTypeVideo, timestamp, payload)
}

// MuxScript wraps an already AMF0-encoded onMetaData payload in an FLV
// script tag. The payload is used directly without modification.
func MuxScript(data []byte, timestamp uint32) *Tag {
	return NewTag(TagTypeScript, timestamp, data)
}
