package sink

import (
	"context"
	"encoding/json"
	"testing"

	"nonchalant/internal/bot"
	"nonchalant/internal/busclient"
	"nonchalant/internal/reactive"
)

// fakeClient records every published (channel, data) pair.
type fakeClient struct {
	published []struct {
		channel string
		data    []byte
	}
}

func (f *fakeClient) Publish(ctx context.Context, channel string, data []byte, cb busclient.RequestCallbacks) error {
	f.published = append(f.published, struct {
		channel string
		data    []byte
	}{channel, data})
	return nil
}

func (f *fakeClient) Subscribe(ctx context.Context, channel string, sub *busclient.Subscription, data busclient.DataCallbacks, req busclient.RequestCallbacks, opts busclient.SubscriptionOptions) error {
	return nil
}
func (f *fakeClient) Unsubscribe(ctx context.Context, sub *busclient.Subscription, cb busclient.RequestCallbacks) error {
	return nil
}
func (f *fakeClient) Start(ctx context.Context) error { return nil }
func (f *fakeClient) Stop(ctx context.Context) error  { return nil }

// TestBusMessageSinkRoutesByKind confirms each message kind is published
// on its own configured channel, and non-message output is skipped.
func TestBusMessageSinkRoutesByKind(t *testing.T) {
	client := &fakeClient{}
	channels := map[bot.MessageKind]string{
		bot.Analysis: "bot.analysis",
		bot.Debug:    "bot.debug",
	}
	s := NewBusMessageSink(client, channels)

	elems := []bot.BotOutput{
		bot.BotMessage{Kind: bot.Analysis, Data: map[string]any{"score": 0.5}},
		bot.OwnedImageFrame{},
		bot.BotMessage{Kind: bot.Debug, Data: map[string]any{"note": "hi"}},
	}
	src := reactive.FromSlice(elems)

	if err := s.Drain(context.Background(), src); err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}

	if len(client.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(client.published))
	}
	if client.published[0].channel != "bot.analysis" {
		t.Errorf("expected first publish on bot.analysis, got %s", client.published[0].channel)
	}
	if client.published[1].channel != "bot.debug" {
		t.Errorf("expected second publish on bot.debug, got %s", client.published[1].channel)
	}

	var got map[string]any
	if err := json.Unmarshal(client.published[0].data, &got); err != nil {
		t.Fatalf("unmarshal published data: %v", err)
	}
	if got["score"] != 0.5 {
		t.Errorf("expected score 0.5, got %v", got["score"])
	}
}

// TestBusMessageSinkMissingChannelErrors confirms an unconfigured kind
// surfaces as a Drain error rather than being silently dropped.
func TestBusMessageSinkMissingChannelErrors(t *testing.T) {
	client := &fakeClient{}
	s := NewBusMessageSink(client, map[bot.MessageKind]string{})
	src := reactive.FromSlice([]bot.BotOutput{
		bot.BotMessage{Kind: bot.Control, Data: map[string]any{}},
	})

	if err := s.Drain(context.Background(), src); err == nil {
		t.Fatal("expected error for unconfigured message kind")
	}
}
