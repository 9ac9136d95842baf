package videosource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"nonchalant/internal/bot"
	"nonchalant/internal/busclient"
	"nonchalant/internal/metrics"
	"nonchalant/internal/reactive"
)

// fakeBusClient records the data callbacks registered per channel so a
// test can inject wire messages directly, without a real bus.
type fakeBusClient struct {
	onMessage map[string]func(busclient.Message)
}

func newFakeBusClient() *fakeBusClient {
	return &fakeBusClient{onMessage: make(map[string]func(busclient.Message))}
}

func (f *fakeBusClient) Start(ctx context.Context) error { return nil }
func (f *fakeBusClient) Stop(ctx context.Context) error  { return nil }

func (f *fakeBusClient) Publish(ctx context.Context, channel string, data []byte, cb busclient.RequestCallbacks) error {
	return nil
}

func (f *fakeBusClient) Subscribe(ctx context.Context, channel string, sub *busclient.Subscription, data busclient.DataCallbacks, req busclient.RequestCallbacks, opts busclient.SubscriptionOptions) error {
	f.onMessage[channel] = data.OnMessage
	return nil
}

func (f *fakeBusClient) Unsubscribe(ctx context.Context, sub *busclient.Subscription, cb busclient.RequestCallbacks) error {
	return nil
}

func (f *fakeBusClient) publishMeta(t *testing.T, channel string, m metadataMessage) {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	f.onMessage[channel](busclient.Message{Channel: channel, Data: data})
}

func (f *fakeBusClient) publishFrame(t *testing.T, channel string, fr frameMessage) {
	t.Helper()
	data, err := json.Marshal(fr)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	f.onMessage[channel](busclient.Message{Channel: channel, Data: data})
}

// collectN subscribes to src, requests enough demand for n elements up
// front, and returns the first n packets received.
func collectN(t *testing.T, src reactive.Publisher[bot.EncodedPacket], n int) []bot.EncodedPacket {
	t.Helper()
	var got []bot.EncodedPacket
	done := make(chan struct{})
	src.Subscribe(reactive.Funcs[bot.EncodedPacket]{
		Subscribe: func(s reactive.Subscription) { s.Request(int64(n)) },
		Next: func(v bot.EncodedPacket) {
			got = append(got, v)
			if len(got) == n {
				close(done)
			}
		},
		Err: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})
	<-done
	return got
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// TestFrameAssemblyConcatenatesInOrderChunks exercises the in-order half
// of scenario 5: three chunks of one frame id concatenate into a single
// EncodedFrame.
func TestFrameAssemblyConcatenatesInOrderChunks(t *testing.T) {
	client := newFakeBusClient()
	src := NewBusSource(client, "meta", "frames", metrics.New())
	pub, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	client.publishMeta(t, "meta", metadataMessage{Codec: "avc1"})
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 6}, Chunk: 0, Chunks: 3, D: b64([]byte("a"))})
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 6}, Chunk: 1, Chunks: 3, D: b64([]byte("b"))})
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 6}, Chunk: 2, Chunks: 3, D: b64([]byte("c"))})

	got := collectN(t, pub, 2) // CodecParameters, then the assembled frame
	frame, ok := got[1].(bot.EncodedFrame)
	if !ok {
		t.Fatalf("expected an EncodedFrame, got %T", got[1])
	}
	if string(frame.Data) != "abc" {
		t.Fatalf("expected concatenated data \"abc\", got %q", frame.Data)
	}
}

// TestFrameChunkGapDropsPartialAndStartsNext exercises the gap half of
// scenario 5: a missing middle chunk followed by a newer frame id drops
// the stale partial assembly and starts fresh on the newer id.
func TestFrameChunkGapDropsPartialAndStartsNext(t *testing.T) {
	client := newFakeBusClient()
	src := NewBusSource(client, "meta", "frames", metrics.New())
	pub, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	client.publishMeta(t, "meta", metadataMessage{Codec: "avc1"})
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 6}, Chunk: 0, Chunks: 3, D: b64([]byte("x"))})
	// (5,7) arrives before (5,6) completes: the gap drops (5,6) and
	// starts fresh assembly on (5,7).
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 7}, Chunk: 0, Chunks: 1, D: b64([]byte("y"))})

	got := collectN(t, pub, 2) // CodecParameters, then the (5,7) frame
	frame, ok := got[1].(bot.EncodedFrame)
	if !ok {
		t.Fatalf("expected an EncodedFrame, got %T", got[1])
	}
	if frame.ID != (bot.FrameID{I1: 5, I2: 7}) {
		t.Fatalf("expected frame id (5,7), got %v", frame.ID)
	}
	if string(frame.Data) != "y" {
		t.Fatalf("expected data \"y\", got %q", frame.Data)
	}
}

// TestStaleOutOfOrderChunkDoesNotDisturbCurrentAssembly guards against a
// lone out-of-order older chunk restarting an in-progress assembly: it
// must be dropped on its own, leaving the newer in-flight frame intact.
func TestStaleOutOfOrderChunkDoesNotDisturbCurrentAssembly(t *testing.T) {
	client := newFakeBusClient()
	src := NewBusSource(client, "meta", "frames", metrics.New())
	pub, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	client.publishMeta(t, "meta", metadataMessage{Codec: "avc1"})
	// Start assembling (5,7) first.
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 7}, Chunk: 0, Chunks: 2, D: b64([]byte("p"))})
	// A stale chunk for an older id (5,6) arrives out of order; it must
	// be dropped without resetting the (5,7) assembly in progress.
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 6}, Chunk: 0, Chunks: 1, D: b64([]byte("stale"))})
	// The second (5,7) chunk completes the original assembly.
	client.publishFrame(t, "frames", frameMessage{I: [2]int64{5, 7}, Chunk: 1, Chunks: 2, D: b64([]byte("q"))})

	got := collectN(t, pub, 2) // CodecParameters, then the completed (5,7) frame
	frame, ok := got[1].(bot.EncodedFrame)
	if !ok {
		t.Fatalf("expected an EncodedFrame, got %T", got[1])
	}
	if frame.ID != (bot.FrameID{I1: 5, I2: 7}) {
		t.Fatalf("expected frame id (5,7), got %v", frame.ID)
	}
	if string(frame.Data) != "pq" {
		t.Fatalf("expected concatenated data \"pq\" (stale chunk excluded), got %q", frame.Data)
	}
}
