package sink

import (
	"bytes"
	"testing"

	"nonchalant/internal/bot"
	"nonchalant/internal/core/protocol/flv"
	"nonchalant/internal/reactive"
)

// TestContainerSinkWritesHeaderAndTags confirms the container opens
// with an FLV header and that codec parameters/frames become video
// tags in order, with a frame arriving before any parameters dropped.
func TestContainerSinkWritesHeaderAndTags(t *testing.T) {
	var buf bytes.Buffer
	sink := NewContainerSink(&buf)

	src := reactive.FromSlice([]bot.EncodedPacket{
		bot.EncodedFrame{Data: []byte{0xAA}},
		bot.CodecParameters{Name: "avc1", ExtraData: []byte{0x01, 0x02}},
		bot.EncodedFrame{Data: []byte{0xBB, 0xCC}, KeyFrame: true},
	})

	if err := sink.Drain(src); err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}

	out := buf.Bytes()
	if len(out) < flv.FLVHeaderSize {
		t.Fatalf("output shorter than an FLV header: %d bytes", len(out))
	}
	if string(out[:3]) != flv.FLVSignature {
		t.Fatalf("missing FLV signature, got %q", out[:3])
	}
	if !bytes.Contains(out, []byte{0x01, 0x02}) {
		t.Error("expected sequence header extra data to appear in output")
	}
	if !bytes.Contains(out, []byte{0xBB, 0xCC}) {
		t.Error("expected the keyframe after codec parameters to appear in output")
	}
}

// TestEscapeChannelNameEscapesSlashes confirms the collaborator-facing
// path-segment escaping rule.
func TestEscapeChannelNameEscapesSlashes(t *testing.T) {
	got := EscapeChannelName("bot/session/42")
	want := "bot{slash}session{slash}42"
	if got != want {
		t.Errorf("EscapeChannelName() = %q, want %q", got, want)
	}
}
