// If you are AI: This file implements the concat operator, subscribing to each publisher in order as the previous one completes.

package reactive

import "sync"

// Concat subscribes to pubs[0]; when it completes, subscribes to
// pubs[1], and so on. An error from any publisher is forwarded
// downstream immediately and stops the chain. Completion is emitted
// once after the last publisher completes.
func Concat[T any](pubs ...Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		c := &concatenator[T]{downstream: sub, remaining: pubs}
		c.advance()
	})
}

// concatenator tracks which publisher in the chain is currently active
// and the downstream demand not yet satisfied by a delivered element,
// which is handed to each newly subscribed publisher.
type concatenator[T any] struct {
	mu            sync.Mutex
	downstream    Subscriber[T]
	remaining     []Publisher[T]
	current       Subscription
	demand        int64
	cancelled     bool
	subscribedOut bool
	cancelOnce    sync.Once
}

// advance subscribes to the next publisher in the chain, or completes
// downstream if the chain is exhausted.
func (c *concatenator[T]) advance() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	if len(c.remaining) == 0 {
		c.mu.Unlock()
		c.downstream.OnComplete()
		return
	}
	next := c.remaining[0]
	c.remaining = c.remaining[1:]
	c.mu.Unlock()

	c.subscribeTo(next)
}

// subscribeTo subscribes to a single publisher in the chain and wires
// demand forwarding.
func (c *concatenator[T]) subscribeTo(pub Publisher[T]) {
	pub.Subscribe(Funcs[T]{
		Subscribe: func(s Subscription) {
			c.mu.Lock()
			c.current = s
			pending := c.demand
			first := !c.subscribedOut
			c.subscribedOut = true
			c.mu.Unlock()
			if first {
				c.downstream.OnSubscribe(subFunc{request: c.request, cancel: c.cancel})
			}
			if pending > 0 {
				s.Request(pending)
			}
		},
		Next: func(v T) {
			c.mu.Lock()
			if c.demand > 0 {
				c.demand--
			}
			c.mu.Unlock()
			c.downstream.OnNext(v)
		},
		Err: c.downstream.OnError,
		Complete: func() {
			c.mu.Lock()
			c.current = nil
			c.mu.Unlock()
			c.advance()
		},
	})
}

// request records demand and forwards it to the currently active
// publisher, if any; a publisher subscribed later receives whatever of
// it is still outstanding.
func (c *concatenator[T]) request(n int64) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	cur := c.current
	c.demand += n
	c.mu.Unlock()
	if cur != nil {
		cur.Request(n)
	}
}

// cancel cancels the currently active publisher and stops the chain
// from advancing further. Idempotent.
func (c *concatenator[T]) cancel() {
	c.cancelOnce.Do(func() {
		c.mu.Lock()
		c.cancelled = true
		cur := c.current
		c.mu.Unlock()
		if cur != nil {
			cur.Cancel()
		}
	})
}
