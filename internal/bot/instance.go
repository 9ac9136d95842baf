// If you are AI: This file implements Instance, the bot state machine: batch/control dispatch, message stamping, and the configure handshake.

package bot

import (
	"sync"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
)

// Instance is the heart of the system: it aggregates decoded frames
// into batches, invokes the user callback, collects emitted messages,
// tags them with the current frame identifier and bot identity, and
// emits them as downstream elements.
type Instance struct {
	mu sync.Mutex

	botID           string
	imageMetadata   *ImageMetadata
	messageBuffer   []BotMessage
	currentFrameID  FrameID
	configured      bool
	imageCallback   ImageCallback
	controlCallback ControlCallback

	metrics *metrics.Registry
	log     *logrus.Entry
}

// Config bundles the constructor arguments for NewInstance.
type Config struct {
	BotID           string
	ImageCallback   ImageCallback
	ControlCallback ControlCallback
	// Configuration, when non-nil, is dispatched synchronously at
	// startup as {"action":"configure","body":Configuration}. A
	// non-nil Configuration with a nil ControlCallback is a contract
	// violation.
	Configuration map[string]any
	Metrics       *metrics.Registry
}

// NewInstance constructs a bot Instance and performs the startup
// configure handshake synchronously.
func NewInstance(cfg Config) *Instance {
	inst := &Instance{
		botID:           cfg.BotID,
		imageCallback:   cfg.ImageCallback,
		controlCallback: cfg.ControlCallback,
		metrics:         cfg.Metrics,
		log:             logging.WithFields("bot", logrus.Fields{"bot_id": cfg.BotID}),
	}
	inst.configure(cfg.Configuration)
	return inst
}

// configure performs the startup handshake: if a control callback is
// present, synthesize {action:"configure", body: cfg-or-empty} and
// dispatch it synchronously, queuing any non-null response as DEBUG.
// If no control callback is present but a non-null configuration was
// supplied, this is a contract violation.
func (inst *Instance) configure(cfg map[string]any) {
	if inst.controlCallback == nil {
		if cfg != nil {
			abort("configuration supplied but no control callback registered")
		}
		return
	}
	body := cfg
	if body == nil {
		body = map[string]any{}
	}
	resp := inst.controlCallback(map[string]any{"action": "configure", "body": body})
	inst.configured = true
	if resp != nil {
		inst.QueueMessage(Debug, resp, FrameID{})
	}
}

// CurrentFrameID reports the frame id the image callback is currently
// (or most recently was) processing.
func (inst *Instance) CurrentFrameID() FrameID {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.currentFrameID
}

// BotID reports the instance's bot identity.
func (inst *Instance) BotID() string {
	return inst.botID
}

// Configured reports whether the startup configure handshake has run.
func (inst *Instance) Configured() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.configured
}

// QueueMessage appends a message to the pending buffer. If id is the
// unassigned sentinel (0,0) but the instance has a non-unassigned
// current frame id, the current id is substituted; otherwise id is
// used verbatim (including a synthetic, negative id passed explicitly).
func (inst *Instance) QueueMessage(kind MessageKind, data map[string]any, id FrameID) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if id.IsUnassigned() && !inst.currentFrameID.IsUnassigned() {
		id = inst.currentFrameID
	}
	inst.messageBuffer = append(inst.messageBuffer, BotMessage{Kind: kind, Data: data, FrameID: id})
}

// handleBatch handles a Batch input: build the frame list for the
// image callback while forwarding non-frame items verbatim, dispatch
// the callback, then drain and emit messages.
func (inst *Instance) handleBatch(batch Batch) []BotOutput {
	var frames []OwnedImageFrame
	output := make([]BotOutput, 0, len(batch))

	for _, item := range batch {
		switch v := item.(type) {
		case OwnedImageFrame:
			inst.latchOrCheckGeometry(v.Metadata)
			frames = append(frames, v)
			output = append(output, v)
		case PacketPassthrough:
			output = append(output, v.Output)
		}
	}

	if len(frames) > 0 {
		inst.mu.Lock()
		inst.currentFrameID = frames[len(frames)-1].ID
		inst.mu.Unlock()

		if inst.imageCallback != nil {
			inst.imageCallback(inst, frames)
		}
	}

	return append(output, inst.drain()...)
}

// latchOrCheckGeometry sets image_metadata on the first frame observed
// and fatally aborts if a later frame's geometry disagrees, per the
// "metadata is set exactly once" invariant.
func (inst *Instance) latchOrCheckGeometry(m ImageMetadata) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.imageMetadata == nil {
		latched := m
		inst.imageMetadata = &latched
		return
	}
	if !inst.imageMetadata.Equal(m) {
		abort("frame geometry changed after latch: had %dx%d (%s), got %dx%d (%s)",
			inst.imageMetadata.Width, inst.imageMetadata.Height, inst.imageMetadata.PixelFormat,
			m.Width, m.Height, m.PixelFormat)
	}
}

// handleControlInput handles a ControlMessage input: recurse over
// arrays, validate shape, route by "to", and dispatch the user's
// control callback.
func (inst *Instance) handleControlInput(value any) []BotOutput {
	switch v := value.(type) {
	case []any:
		var out []BotOutput
		for _, elem := range v {
			out = append(out, inst.handleControlInput(elem)...)
		}
		return out
	case map[string]any:
		return inst.handleControlObject(v)
	default:
		inst.log.Warn("dropping control input: not an object or array")
		return nil
	}
}

// handleControlObject routes a single control object to the control
// callback, if addressed to this bot, and drains the buffer afterward.
func (inst *Instance) handleControlObject(obj map[string]any) []BotOutput {
	toRaw, hasTo := obj["to"]
	if !hasTo {
		inst.log.Warn("dropping control message: missing \"to\" field")
		return nil
	}
	to, ok := toRaw.(string)
	if !ok {
		inst.log.Warn("dropping control message: \"to\" field is not a string")
		return nil
	}
	if inst.botID != "" && to != inst.botID {
		return nil
	}

	if inst.controlCallback != nil {
		resp := inst.controlCallback(obj)
		if resp != nil {
			if reqID, ok := obj["request_id"]; ok {
				resp["request_id"] = reqID
			}
			inst.QueueMessage(Control, resp, FrameID{})
		}
	}
	return inst.drain()
}

// drain stamps and emits every buffered message, recording the "sent"
// metric by kind, then clears the buffer.
func (inst *Instance) drain() []BotOutput {
	inst.mu.Lock()
	pending := inst.messageBuffer
	inst.messageBuffer = nil
	botID := inst.botID
	inst.mu.Unlock()

	out := make([]BotOutput, 0, len(pending))
	for _, msg := range pending {
		inst.stamp(&msg, botID)
		if inst.metrics != nil {
			inst.metrics.MessagesSent.WithLabelValues(msg.Kind.String(), botID).Inc()
		}
		out = append(out, msg)
	}
	return out
}

// stamp applies the drain-time stamping rules: data must be an object
// (fatal otherwise), the "i" field is set when the frame id is neither
// synthetic nor unassigned, and "from" is set when the bot has a
// non-empty id.
func (inst *Instance) stamp(msg *BotMessage, botID string) {
	if msg.Data == nil {
		abort("queued message data is not an object (kind=%s)", msg.Kind)
	}
	if !msg.FrameID.IsSynthetic() && !msg.FrameID.IsUnassigned() {
		msg.Data["i"] = [2]int64{msg.FrameID.I1, msg.FrameID.I2}
	}
	if botID != "" {
		msg.Data["from"] = botID
	}
}
