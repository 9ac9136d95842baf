package decoder

import (
	"testing"

	"nonchalant/internal/bot"
	"nonchalant/internal/metrics"
	"nonchalant/internal/reactive"
)

// TestFramesBeforeParametersAreDropped exercises the "no decoder yet"
// path: an encoded frame arriving before any codec parameters must be
// dropped rather than panicking, with a drop metric recorded.
func TestFramesBeforeParametersAreDropped(t *testing.T) {
	m := metrics.New()
	stage := NewStage(bot.PixelFormatI420, m)

	src := reactive.FromSlice([]bot.EncodedPacket{
		bot.EncodedFrame{ID: bot.FrameID{I1: 1, I2: 2}},
	})
	out := stage.Run(src)

	var got []bot.OwnedImageFrame
	done := make(chan struct{})
	out.Subscribe(reactive.Funcs[bot.OwnedImageFrame]{
		Subscribe: func(s reactive.Subscription) { s.Request(10) },
		Next:      func(v bot.OwnedImageFrame) { got = append(got, v) },
		Err:       func(err error) { t.Fatalf("unexpected error: %v", err) },
		Complete:  func() { close(done) },
	})
	<-done

	if len(got) != 0 {
		t.Fatalf("expected no frames decoded without a codec backend, got %v", got)
	}
}

// TestCodecParametersPacketEmitsNoFrame confirms a parameters packet by
// itself never reaches the downstream frame stream.
func TestCodecParametersPacketEmitsNoFrame(t *testing.T) {
	stage := NewStage(bot.PixelFormatRGB0, metrics.New())
	src := reactive.FromSlice([]bot.EncodedPacket{
		bot.CodecParameters{Name: "h264"},
	})
	out := stage.Run(src)

	var got []bot.OwnedImageFrame
	done := make(chan struct{})
	out.Subscribe(reactive.Funcs[bot.OwnedImageFrame]{
		Subscribe: func(s reactive.Subscription) { s.Request(10) },
		Next:      func(v bot.OwnedImageFrame) { got = append(got, v) },
		Err:       func(err error) { t.Fatalf("unexpected error: %v", err) },
		Complete:  func() { close(done) },
	})
	<-done

	if len(got) != 0 {
		t.Fatalf("expected no frames from a bare parameters packet, got %v", got)
	}
}
