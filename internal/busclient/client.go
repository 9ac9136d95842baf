// If you are AI: This file defines the Client interface every messaging-bus binding implements, and the subscription option/callback shapes it accepts.

package busclient

import "context"

// Message is a single published unit: raw bytes plus the channel it
// arrived on or is destined for.
type Message struct {
	Channel string
	Data    []byte
}

// DataCallbacks receives delivered messages and terminal signals for a
// single subscription.
type DataCallbacks struct {
	OnMessage func(msg Message)
	OnError   func(err error)
}

// RequestCallbacks receives the outcome of a subscribe/unsubscribe/
// publish request itself (acknowledgement), distinct from the ongoing
// data callbacks of a subscription.
type RequestCallbacks struct {
	OnSuccess func()
	OnError   func(err error)
}

// HistoryOpts requests replay of previously published messages on
// subscribe.
type HistoryOpts struct {
	Count *int64
	Age   *int64 // seconds
}

// SubscriptionOptions controls how Subscribe joins a channel: force an
// existing subscription aside, fast-forward to the newest position,
// request history replay, or resume from an explicit position.
type SubscriptionOptions struct {
	Force       bool
	FastForward bool
	History     *HistoryOpts
	Position    *ChannelPosition
}

// Client is a messaging-bus client: publish, subscribe, unsubscribe,
// and the lifecycle methods start/stop. Concrete bindings (NATSClient)
// and the resilient wrapper (ResilientClient) both implement it.
type Client interface {
	Publish(ctx context.Context, channel string, data []byte, cb RequestCallbacks) error
	Subscribe(ctx context.Context, channel string, sub *Subscription, data DataCallbacks, req RequestCallbacks, opts SubscriptionOptions) error
	Unsubscribe(ctx context.Context, sub *Subscription, cb RequestCallbacks) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Subscription is the handle returned by Subscribe; it identifies one
// live subscription for Unsubscribe and for the resilient wrapper's
// replay table.
type Subscription struct {
	ID      uint64
	Channel string
}

// Factory constructs a fresh delegate Client, used by ResilientClient
// to rebuild its delegate after a reported failure.
type Factory func() (Client, error)
