// If you are AI: This file defines the data model shared by the bot instance: frame identifiers, image/encoded-packet types, and the bot input/output sum types.

package bot

import "time"

// FrameID is a half-open interval of monotonically increasing sequence
// numbers identifying the encoded packets that compose a frame.
type FrameID struct {
	I1 int64
	I2 int64
}

// IsUnassigned reports whether this id is the zero value, meaning "no
// frame context". Distinct from IsSynthetic: both are not a real
// assigned range, but they are produced by different code paths (the
// zero value vs. a deliberately negative synthetic id) and are kept
// separate rather than merged into one sentinel.
func (f FrameID) IsUnassigned() bool {
	return f.I1 == 0 && f.I2 == 0
}

// IsSynthetic reports whether this id is negative, marking it as not
// tied to any input frame. The instance never creates such ids itself;
// they only arrive from a caller of QueueMessage.
func (f FrameID) IsSynthetic() bool {
	return f.I1 < 0
}

// PixelFormat names a decoded plane layout.
type PixelFormat string

// Pixel formats the decoder stage knows how to produce.
const (
	PixelFormatRGB0 PixelFormat = "RGB0"
	PixelFormatBGR  PixelFormat = "BGR"
	PixelFormatI420 PixelFormat = "I420"
)

// ImageMetadata describes the geometry of every frame in a pipeline. It
// is latched exactly once by the first frame observed; later frames
// must match it exactly or the pipeline aborts (see ContractViolation).
type ImageMetadata struct {
	Width        int
	Height       int
	PlaneStrides [4]int
	PixelFormat  PixelFormat
}

// Equal reports whether two ImageMetadata values describe the same
// geometry and pixel format.
func (m ImageMetadata) Equal(other ImageMetadata) bool {
	return m.Width == other.Width && m.Height == other.Height && m.PixelFormat == other.PixelFormat
}

// OwnedImageFrame is a fully decoded frame with up to four owned plane
// buffers. It satisfies both BatchItem (a batch may contain it) and
// BotOutput (a processed frame is re-emitted downstream unchanged).
type OwnedImageFrame struct {
	ID       FrameID
	Metadata ImageMetadata
	// PlaneData holds up to 4 owned plane buffers; unused planes are
	// nil/empty.
	PlaneData [4][]byte
}

// isBatchItem marks OwnedImageFrame as a BatchItem.
func (OwnedImageFrame) isBatchItem() {}

// isBotOutput marks OwnedImageFrame as a BotOutput.
func (OwnedImageFrame) isBotOutput() {}

// EncodedPacket is the sum type a video source/decoder exchanges:
// either CodecParameters (a stream or parameter-change announcement) or
// EncodedFrame (one frame's compressed bytes).
type EncodedPacket interface {
	isEncodedPacket()
}

// CodecParameters announces the start of a stream or a change in codec
// parameters.
type CodecParameters struct {
	Name      string
	ExtraData []byte
}

// isEncodedPacket marks CodecParameters as an EncodedPacket.
func (CodecParameters) isEncodedPacket() {}

// EncodedFrame carries one compressed frame's bytes and identity.
type EncodedFrame struct {
	ID          FrameID
	Data        []byte
	KeyFrame    bool
	ArrivalTime time.Time
}

// isEncodedPacket marks EncodedFrame as an EncodedPacket.
func (EncodedFrame) isEncodedPacket() {}

// NetworkFrame is the wire shape of a chunk on the frames channel,
// before chunk reassembly in internal/videosource.
type NetworkFrame struct {
	ID           FrameID
	Chunk        int
	Chunks       int
	Data         []byte
	KeyFrame     bool
	CodecParamRef *string
}

// MessageKind is the kind of a bot message: analysis, debug, or
// control.
type MessageKind int

// The three message kinds a bot may emit.
const (
	Analysis MessageKind = iota
	Debug
	Control
)

// String renders a MessageKind for logging and channel selection.
func (k MessageKind) String() string {
	switch k {
	case Analysis:
		return "analysis"
	case Debug:
		return "debug"
	case Control:
		return "control"
	default:
		return "unknown"
	}
}

// BotMessage is a structured message a bot emits, stamped with frame
// and bot identity before being drained downstream.
type BotMessage struct {
	Kind    MessageKind
	Data    map[string]any
	FrameID FrameID
}

// isBotOutput marks BotMessage as a BotOutput.
func (BotMessage) isBotOutput() {}

// BotOutput is the sum type emitted downstream by run_bot: either a
// decoded frame passed through unchanged, or a stamped bot message.
type BotOutput interface {
	isBotOutput()
}

// BatchItem is an element of a Batch: either a decoded frame (routed to
// the image callback) or a PacketPassthrough (forwarded verbatim,
// bypassing the callback — non-frame packets pass through a batch
// untouched).
type BatchItem interface {
	isBatchItem()
}

// PacketPassthrough wraps any BotOutput that arrived bundled in a batch
// but isn't itself a decodable frame (for example a codec-parameters
// marker the upstream pipeline wants mirrored downstream without
// running it through the user's image callback).
type PacketPassthrough struct {
	Output BotOutput
}

// isBatchItem marks PacketPassthrough as a BatchItem.
func (PacketPassthrough) isBatchItem() {}

// BotInput is the sum type run_bot consumes: either a Batch of frames
// (and passthrough items) or a ControlMessage.
type BotInput interface {
	isBotInput()
}

// Batch is the unit of work delivered to the image callback: an
// ordered list of batch items that arrived contiguously.
type Batch []BatchItem

// isBotInput marks Batch as a BotInput.
func (Batch) isBotInput() {}

// ControlMessage carries the raw decoded value of a control input. Its
// Value may be a map[string]any (a single control object) or a []any
// (an array of control objects, recursed element-wise) — keeping Value
// as `any` rather than forcing a Go array variant lets the bot instance
// itself perform that recursion instead of pushing array fan-out onto
// the caller.
type ControlMessage struct {
	Value any
}

// isBotInput marks ControlMessage as a BotInput.
func (ControlMessage) isBotInput() {}
