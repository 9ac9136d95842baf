package busclient

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"nonchalant/internal/metrics"
)

// fakeClient is an in-memory Client used to drive ResilientClient
// through restart scenarios without a real bus.
type fakeClient struct {
	mu   sync.Mutex
	subs []string
}

func (f *fakeClient) Start(ctx context.Context) error { return nil }
func (f *fakeClient) Stop(ctx context.Context) error  { return nil }

func (f *fakeClient) Publish(ctx context.Context, channel string, data []byte, cb RequestCallbacks) error {
	return nil
}

func (f *fakeClient) Subscribe(ctx context.Context, channel string, sub *Subscription, data DataCallbacks, req RequestCallbacks, opts SubscriptionOptions) error {
	f.mu.Lock()
	f.subs = append(f.subs, channel)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Unsubscribe(ctx context.Context, sub *Subscription, cb RequestCallbacks) error {
	return nil
}

// TestResilientClientReplaysSubscriptionsInOrderAfterRestart exercises
// scenario 6: after two subscriptions are recorded against the first
// delegate, a reported subscription error triggers a rebuild via the
// factory and both subscriptions are replayed, in original order,
// against the fresh delegate.
func TestResilientClientReplaysSubscriptionsInOrderAfterRestart(t *testing.T) {
	var built []*fakeClient
	var buildMu sync.Mutex
	factory := func() (Client, error) {
		buildMu.Lock()
		defer buildMu.Unlock()
		c := &fakeClient{}
		built = append(built, c)
		return c, nil
	}

	rc := NewResilientClient(factory, RequestCallbacks{}, metrics.New())
	if err := rc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var gotErr error
	dataCB := DataCallbacks{OnError: func(err error) {
		gotErr = err
	}}

	subA := &Subscription{}
	subB := &Subscription{}
	if err := rc.Subscribe(context.Background(), "chan-a", subA, dataCB, RequestCallbacks{}, SubscriptionOptions{}); err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	if err := rc.Subscribe(context.Background(), "chan-b", subB, dataCB, RequestCallbacks{}, SubscriptionOptions{}); err != nil {
		t.Fatalf("subscribe b: %v", err)
	}

	// The recorded DataCallbacks.OnError is invoked directly here rather
	// than through a real delegate callback goroutine; restart runs
	// synchronously within it, so the replay below is already complete.
	rc.mu.Lock()
	onErr := rc.subs[1].data.OnError
	rc.mu.Unlock()
	onErr(fmt.Errorf("connection lost"))
	if gotErr == nil {
		t.Fatalf("expected the original error to reach the caller's OnError")
	}

	buildMu.Lock()
	defer buildMu.Unlock()
	if len(built) < 2 {
		t.Fatalf("expected a fresh delegate to be built, got %d", len(built))
	}
	second := built[1]
	second.mu.Lock()
	defer second.mu.Unlock()
	if len(second.subs) != 2 || second.subs[0] != "chan-a" || second.subs[1] != "chan-b" {
		t.Fatalf("expected replay in original order [chan-a chan-b], got %v", second.subs)
	}
}

func TestChannelPositionRoundTripsAndMalformedParsesToZero(t *testing.T) {
	p := ChannelPosition{Gen: 7, Pos: 42}
	if got := ParsePosition(p.String()); got != p {
		t.Fatalf("round trip mismatch: %v -> %v -> %v", p, p.String(), got)
	}
	for _, bad := range []string{"", "noseparator", "a:1", "1:b", "1:2:3"} {
		if got := ParsePosition(bad); got != (ChannelPosition{}) {
			t.Fatalf("expected zero value for malformed %q, got %v", bad, got)
		}
	}
}
