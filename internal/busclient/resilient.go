// If you are AI: This file implements ResilientClient, wrapping a delegate Client with reconnect, subscription replay, and I/O-thread affinity enforcement.

package busclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
)

// recordedSubscription is one entry in the resilient client's replay
// table, in the insertion order subscriptions must be replayed in.
type recordedSubscription struct {
	channel string
	sub     *Subscription
	data    DataCallbacks
	req     RequestCallbacks
	opts    SubscriptionOptions
}

// ResilientClient interposes identically to the Client it wraps and
// additionally records every live subscription, restarts the delegate
// (stop, recreate via Factory, start, replay) on any reported delegate
// error, and runs Start, Stop, Publish, Subscribe and Unsubscribe on a
// single I/O goroutine — cross-goroutine calls are transparently
// re-posted to it. A restart is not re-posted: it runs on whichever
// goroutine reported the delegate error. On any reported delegate error it stops the old delegate, rebuilds a
// fresh one via Factory, and replays every subscription recorded in its
// in-memory table, in insertion order.
type ResilientClient struct {
	factory        Factory
	errorCallbacks RequestCallbacks
	metrics        *metrics.Registry
	log            *logrus.Entry

	io     chan func()
	stopCh chan struct{}

	mu         sync.Mutex
	delegate   Client
	subs       []*recordedSubscription
	nextSubID  uint64
	restarting bool
}

// NewResilientClient constructs a ResilientClient. The delegate is not
// created until Start is called.
func NewResilientClient(factory Factory, errorCallbacks RequestCallbacks, m *metrics.Registry) *ResilientClient {
	return &ResilientClient{
		factory:        factory,
		errorCallbacks: errorCallbacks,
		metrics:        m,
		log:            logging.For("busclient.resilient"),
		io:             make(chan func()),
		stopCh:         make(chan struct{}),
	}
}

// Start builds the first delegate via the factory and launches the I/O
// goroutine that all mutating calls are re-posted to.
func (r *ResilientClient) Start(ctx context.Context) error {
	go r.ioLoop()
	return r.post(func() error {
		delegate, err := r.factory()
		if err != nil {
			return fmt.Errorf("build initial bus delegate: %w", err)
		}
		if err := delegate.Start(ctx); err != nil {
			return fmt.Errorf("start initial bus delegate: %w", err)
		}
		r.mu.Lock()
		r.delegate = delegate
		r.mu.Unlock()
		return nil
	})
}

// Stop stops the delegate and shuts down the I/O goroutine.
func (r *ResilientClient) Stop(ctx context.Context) error {
	err := r.post(func() error {
		r.mu.Lock()
		delegate := r.delegate
		r.mu.Unlock()
		if delegate == nil {
			return nil
		}
		return delegate.Stop(ctx)
	})
	close(r.stopCh)
	return err
}

// ioLoop runs on the dedicated goroutine that owns every mutating call,
// a single-threaded event-loop convention.
func (r *ResilientClient) ioLoop() {
	for {
		select {
		case job := <-r.io:
			job()
		case <-r.stopCh:
			return
		}
	}
}

// post re-posts fn to the I/O goroutine and blocks for its result,
// regardless of which goroutine called it.
func (r *ResilientClient) post(fn func() error) error {
	result := make(chan error, 1)
	select {
	case r.io <- func() { result <- fn() }:
	case <-r.stopCh:
		return fmt.Errorf("resilient client stopped")
	}
	return <-result
}

// Publish forwards to the current delegate on the I/O goroutine.
func (r *ResilientClient) Publish(ctx context.Context, channel string, data []byte, cb RequestCallbacks) error {
	return r.post(func() error {
		r.mu.Lock()
		delegate := r.delegate
		r.mu.Unlock()
		if delegate == nil {
			return fmt.Errorf("resilient client has no active delegate")
		}
		return delegate.Publish(ctx, channel, data, cb)
	})
}

// Subscribe records the subscription for replay, wraps the caller's
// error callback so a reported error also triggers a restart, and
// forwards to the current delegate.
func (r *ResilientClient) Subscribe(ctx context.Context, channel string, sub *Subscription, data DataCallbacks, req RequestCallbacks, opts SubscriptionOptions) error {
	return r.post(func() error {
		r.mu.Lock()
		r.nextSubID++
		sub.ID = r.nextSubID
		sub.Channel = channel
		delegate := r.delegate
		record := &recordedSubscription{channel: channel, sub: sub, data: r.wrapDataCallbacks(channel, data), req: req, opts: opts}
		r.subs = append(r.subs, record)
		if r.metrics != nil {
			r.metrics.SubscriptionsActive.Set(float64(len(r.subs)))
		}
		r.mu.Unlock()
		if delegate == nil {
			return fmt.Errorf("resilient client has no active delegate")
		}
		return delegate.Subscribe(ctx, channel, sub, record.data, req, opts)
	})
}

// Unsubscribe removes the subscription from the replay table and
// forwards to the current delegate.
func (r *ResilientClient) Unsubscribe(ctx context.Context, sub *Subscription, cb RequestCallbacks) error {
	return r.post(func() error {
		r.mu.Lock()
		for i, rec := range r.subs {
			if rec.sub == sub {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		delegate := r.delegate
		if r.metrics != nil {
			r.metrics.SubscriptionsActive.Set(float64(len(r.subs)))
		}
		r.mu.Unlock()
		if delegate == nil {
			return nil
		}
		return delegate.Unsubscribe(ctx, sub, cb)
	})
}

// wrapDataCallbacks wraps the caller's OnError so a reported delegate
// error both reaches the caller and triggers a restart.
func (r *ResilientClient) wrapDataCallbacks(channel string, data DataCallbacks) DataCallbacks {
	orig := data.OnError
	return DataCallbacks{
		OnMessage: data.OnMessage,
		OnError: func(err error) {
			if orig != nil {
				orig(err)
			}
			r.restart(channel)
		},
	}
}

// restart stops the current delegate, builds a fresh one via the
// factory, starts it, and replays every recorded subscription in
// insertion order. Errors during restart are fatal and surface to the
// outer error callback. It runs on the calling goroutine, not the I/O
// goroutine.
func (r *ResilientClient) restart(triggerChannel string) {
	r.mu.Lock()
	if r.restarting {
		r.mu.Unlock()
		return
	}
	r.restarting = true
	old := r.delegate
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.BusReconnects.WithLabelValues(triggerChannel).Inc()
	}

	ctx := context.Background()
	if old != nil {
		_ = old.Stop(ctx)
	}

	fresh, err := r.factory()
	if err != nil {
		r.fatal(fmt.Errorf("rebuild bus delegate: %w", err))
		return
	}
	if err := fresh.Start(ctx); err != nil {
		r.fatal(fmt.Errorf("start rebuilt bus delegate: %w", err))
		return
	}

	r.mu.Lock()
	r.delegate = fresh
	snapshot := append([]*recordedSubscription(nil), r.subs...)
	r.restarting = false
	r.mu.Unlock()

	for _, rec := range snapshot {
		if err := fresh.Subscribe(ctx, rec.channel, rec.sub, rec.data, rec.req, rec.opts); err != nil {
			r.fatal(fmt.Errorf("replay subscription %s: %w", rec.channel, err))
			return
		}
	}
	r.log.Infof("bus client restarted, replayed %d subscriptions", len(snapshot))
}

// fatal reports an unrecoverable restart failure to the outer error
// callback.
func (r *ResilientClient) fatal(err error) {
	r.log.WithError(err).Error("resilient bus client restart failed")
	if r.errorCallbacks.OnError != nil {
		r.errorCallbacks.OnError(err)
	}
}
