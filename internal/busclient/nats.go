// If you are AI: This file implements NATSClient, the concrete messaging-bus binding backed by NATS/JetStream.

package busclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"nonchalant/internal/logging"
)

// NATSClient is a Client backed by a NATS connection, using JetStream
// when a subscription requests history or a resume position and core
// NATS pub/sub otherwise. Grounded on other_examples' natspubsub
// client/stream-provisioning pattern, narrowed from its typed-topic
// generics down to the raw-bytes Client shape this package defines.
type NATSClient struct {
	url string
	log *logrus.Entry

	mu   sync.Mutex
	nc   *nats.Conn
	js   nats.JetStreamContext
	subs map[uint64]*nats.Subscription
}

// NewNATSClient builds a Factory that dials url on Start.
func NewNATSClient(url string) Factory {
	return func() (Client, error) {
		return &NATSClient{url: url, log: logging.For("busclient.nats"), subs: make(map[uint64]*nats.Subscription)}, nil
	}
}

// Start dials the NATS server and opens a JetStream context.
func (c *NATSClient) Start(ctx context.Context) error {
	nc, err := nats.Connect(c.url, nats.MaxReconnects(0))
	if err != nil {
		return fmt.Errorf("connect to nats at %s: %w", c.url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("open jetstream context: %w", err)
	}
	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()
	c.log.WithField("url", c.url).Info("nats client started")
	return nil
}

// Stop drains and closes the connection.
func (c *NATSClient) Stop(ctx context.Context) error {
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if nc == nil {
		return nil
	}
	return nc.Drain()
}

// Publish sends data as a core NATS message on channel.
func (c *NATSClient) Publish(ctx context.Context, channel string, data []byte, cb RequestCallbacks) error {
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if nc == nil {
		return fmt.Errorf("nats client not started")
	}
	if err := nc.Publish(channel, data); err != nil {
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}
	if cb.OnSuccess != nil {
		cb.OnSuccess()
	}
	return nil
}

// Subscribe binds to channel. History or an explicit resume position
// route through a JetStream consumer with a start policy;
// plain subscriptions use core NATS.
func (c *NATSClient) Subscribe(ctx context.Context, channel string, sub *Subscription, data DataCallbacks, req RequestCallbacks, opts SubscriptionOptions) error {
	c.mu.Lock()
	nc, js := c.nc, c.js
	c.mu.Unlock()
	if nc == nil {
		return fmt.Errorf("nats client not started")
	}

	handler := func(msg *nats.Msg) {
		if data.OnMessage != nil {
			data.OnMessage(Message{Channel: channel, Data: msg.Data})
		}
	}

	var natsSub *nats.Subscription
	var err error
	if opts.History != nil || opts.Position != nil {
		subOpts := []nats.SubOpt{nats.AckNone()}
		switch {
		case opts.Position != nil:
			subOpts = append(subOpts, nats.StartSequence(opts.Position.Pos))
		case opts.History != nil && opts.History.Age != nil:
			subOpts = append(subOpts, nats.StartTime(time.Now().Add(-time.Duration(*opts.History.Age)*time.Second)))
		case opts.History != nil && opts.History.Count != nil:
			subOpts = append(subOpts, nats.DeliverLast())
		}
		natsSub, err = js.Subscribe(channel, handler, subOpts...)
	} else {
		natsSub, err = nc.Subscribe(channel, handler)
	}
	if err != nil {
		if req.OnError != nil {
			req.OnError(err)
		}
		return err
	}

	c.mu.Lock()
	c.subs[sub.ID] = natsSub
	c.mu.Unlock()
	if req.OnSuccess != nil {
		req.OnSuccess()
	}
	return nil
}

// Unsubscribe drops the subscription identified by sub.
func (c *NATSClient) Unsubscribe(ctx context.Context, sub *Subscription, cb RequestCallbacks) error {
	c.mu.Lock()
	natsSub, ok := c.subs[sub.ID]
	delete(c.subs, sub.ID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := natsSub.Unsubscribe(); err != nil {
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}
	if cb.OnSuccess != nil {
		cb.OnSuccess()
	}
	return nil
}
