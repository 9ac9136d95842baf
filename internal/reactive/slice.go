// If you are AI: This file implements FromSlice, a demand-driven publisher over an in-memory slice, used mainly by tests and small fixed sources.

package reactive

import "sync"

// FromSlice returns a Publisher that emits each element of items in
// order, completing after the last one. Elements are only emitted as
// demand allows, grounded on the pack's SlicePublisher
// (other_examples' reactive operators file), adapted to this package's
// generic Subscriber/Subscription contract.
func FromSlice[T any](items []T) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		p := &slicePublisher[T]{items: items}
		sub.OnSubscribe(subFunc{request: p.request(sub), cancel: p.cancel})
	})
}

// slicePublisher tracks the emission cursor and cancellation state for
// one FromSlice subscription.
type slicePublisher[T any] struct {
	mu        sync.Mutex
	items     []T
	pos       int
	cancelled bool
	completed bool
}

// request returns a closure bound to sub that emits up to n elements
// immediately (FromSlice has no asynchronous source, so demand is
// satisfied synchronously within the Request call).
func (p *slicePublisher[T]) request(sub Subscriber[T]) func(int64) {
	return func(n int64) {
		if n <= 0 {
			return
		}
		for i := int64(0); i < n; i++ {
			p.mu.Lock()
			if p.cancelled || p.completed {
				p.mu.Unlock()
				return
			}
			if p.pos >= len(p.items) {
				p.completed = true
				p.mu.Unlock()
				sub.OnComplete()
				return
			}
			v := p.items[p.pos]
			p.pos++
			p.mu.Unlock()
			sub.OnNext(v)
		}
	}
}

// cancel marks the publisher cancelled. Idempotent.
func (p *slicePublisher[T]) cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = true
}
