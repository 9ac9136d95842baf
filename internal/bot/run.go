// If you are AI: This file implements RunBot, the single reactive operator that drives an Instance, and its shutdown generator.

package bot

import "nonchalant/internal/reactive"

// RunBot transforms a publisher of BotInput into a publisher of
// BotOutput: the main stream dispatches each input through the
// instance (batch or control handling), concatenated with a shutdown
// generator that performs the shutdown handshake on first pull and
// then drains any remaining buffered messages one per pull.
func (inst *Instance) RunBot(src reactive.Publisher[BotInput]) reactive.Publisher[BotOutput] {
	mainStream := reactive.Flatten[BotOutput](reactive.Map(src, func(in BotInput) reactive.Publisher[BotOutput] {
		return reactive.FromSlice(inst.dispatch(in))
	}))
	return reactive.Concat[BotOutput](mainStream, inst.shutdownGenerator())
}

// dispatch routes a single BotInput to its handler.
func (inst *Instance) dispatch(in BotInput) []BotOutput {
	switch v := in.(type) {
	case Batch:
		return inst.handleBatch(v)
	case ControlMessage:
		return inst.handleControlInput(v.Value)
	default:
		inst.log.Warnf("dropping bot input of unrecognized type %T", in)
		return nil
	}
}

// shutdownState tracks whether the shutdown handshake has already run.
type shutdownState struct {
	handshakeDone bool
}

// shutdownGenerator builds the stateful generator that runs the
// shutdown handshake: on first pull, invoke the control callback with
// {"action":"shutdown"}, queuing any non-null response as DEBUG; then
// drain the message buffer one message per pull until it is empty, at
// which point the generator completes.
func (inst *Instance) shutdownGenerator() reactive.Publisher[BotOutput] {
	return reactive.Stateful[*shutdownState, BotOutput](
		func() *shutdownState { return &shutdownState{} },
		func(state *shutdownState, sink *reactive.Sink[BotOutput]) {
			if !state.handshakeDone {
				state.handshakeDone = true
				inst.runShutdownHandshake()
				return
			}
			inst.mu.Lock()
			empty := len(inst.messageBuffer) == 0
			inst.mu.Unlock()
			if empty {
				sink.Complete()
				return
			}
			drained := inst.drainOne()
			if drained != nil {
				sink.Next(drained)
			}
		},
	)
}

// runShutdownHandshake invokes the user's control callback with the
// shutdown action, queuing any non-null response as DEBUG.
func (inst *Instance) runShutdownHandshake() {
	if inst.controlCallback == nil {
		return
	}
	resp := inst.controlCallback(map[string]any{"action": "shutdown"})
	if resp != nil {
		inst.QueueMessage(Debug, resp, FrameID{})
	}
}

// drainOne stamps and removes exactly one message from the front of
// the buffer, or returns nil if the buffer is empty.
func (inst *Instance) drainOne() BotOutput {
	inst.mu.Lock()
	if len(inst.messageBuffer) == 0 {
		inst.mu.Unlock()
		return nil
	}
	msg := inst.messageBuffer[0]
	inst.messageBuffer = inst.messageBuffer[1:]
	botID := inst.botID
	inst.mu.Unlock()

	inst.stamp(&msg, botID)
	if inst.metrics != nil {
		inst.metrics.MessagesSent.WithLabelValues(msg.Kind.String(), botID).Inc()
	}
	return msg
}
