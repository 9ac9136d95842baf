// If you are AI: This file defines the user-supplied image/control callback function types the bot instance dispatches into.

package bot

// ImageCallback is invoked once per batch with the frames it contains,
// in arrival order. During the call, Instance.CurrentFrameID reports
// the last frame's id, and any call to Instance.QueueMessage appends to
// the pending message buffer drained right after the callback returns.
type ImageCallback func(inst *Instance, frames []OwnedImageFrame)

// ControlCallback handles a single control object (never an array —
// array fan-out is performed by the instance before this is invoked)
// and returns either a response object or nil. It is also used,
// synthesized, for the startup configure handshake and the shutdown
// handshake.
type ControlCallback func(msg map[string]any) map[string]any
