// If you are AI: This file implements the flatten operator over a publisher of publishers, with at most one inner subscription active at a time.

package reactive

import "sync"

// Flatten subscribes to the outer publisher, then for each inner
// publisher it emits, subscribes and forwards its elements downstream.
// At most one inner subscription is active at once. An inner error
// becomes the outer error; the outer publisher completes only after its
// last inner publisher has completed.
func Flatten[T any](outer Publisher[Publisher[T]]) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		f := &flattener[T]{downstream: sub}
		f.start(outer)
	})
}

// flattener holds the mutable state shared between the outer and
// current inner subscription. demand is the running count of downstream
// demand not yet satisfied by a delivered element: it survives across
// inner subscriptions, so a later inner picks up exactly the demand an
// earlier inner left outstanding.
type flattener[T any] struct {
	mu         sync.Mutex
	downstream Subscriber[T]
	outerSub   Subscription
	innerSub   Subscription
	outerDone  bool
	demand     int64
	cancelled  bool
	cancelOnce sync.Once
}

// start subscribes to the outer publisher and wires the downstream
// subscription.
func (f *flattener[T]) start(outer Publisher[Publisher[T]]) {
	f.downstream.OnSubscribe(subFunc{
		request: f.request,
		cancel:  f.cancel,
	})

	outer.Subscribe(Funcs[Publisher[T]]{
		Subscribe: func(s Subscription) {
			f.mu.Lock()
			f.outerSub = s
			f.mu.Unlock()
			s.Request(1)
		},
		Next: func(inner Publisher[T]) {
			f.subscribeInner(inner)
		},
		Err: func(err error) {
			f.downstream.OnError(err)
		},
		Complete: func() {
			f.mu.Lock()
			f.outerDone = true
			noInner := f.innerSub == nil
			f.mu.Unlock()
			if noInner {
				f.downstream.OnComplete()
			}
		},
	})
}

// subscribeInner subscribes to a newly emitted inner publisher and
// forwards the demand still outstanding from whatever came before it.
func (f *flattener[T]) subscribeInner(inner Publisher[T]) {
	inner.Subscribe(Funcs[T]{
		Subscribe: func(s Subscription) {
			f.mu.Lock()
			f.innerSub = s
			outstanding := f.demand
			f.mu.Unlock()
			if outstanding > 0 {
				s.Request(outstanding)
			}
		},
		Next: func(v T) {
			f.mu.Lock()
			if f.demand > 0 {
				f.demand--
			}
			f.mu.Unlock()
			f.downstream.OnNext(v)
		},
		Err: func(err error) {
			f.downstream.OnError(err)
		},
		Complete: func() {
			f.mu.Lock()
			f.innerSub = nil
			done := f.outerDone
			outerSub := f.outerSub
			f.mu.Unlock()
			if done {
				f.downstream.OnComplete()
				return
			}
			if outerSub != nil {
				outerSub.Request(1)
			}
		},
	})
}

// request adds n to the outstanding demand count and, if an inner
// subscription is active, forwards n to it; otherwise it stays recorded
// in demand until the next inner subscribes.
func (f *flattener[T]) request(n int64) {
	if n <= 0 {
		return
	}
	f.mu.Lock()
	f.demand += n
	inner := f.innerSub
	f.mu.Unlock()
	if inner != nil {
		inner.Request(n)
	}
}

// cancel cancels both the outer and any active inner subscription, at
// most once.
func (f *flattener[T]) cancel() {
	f.cancelOnce.Do(func() {
		f.mu.Lock()
		outer, inner := f.outerSub, f.innerSub
		f.cancelled = true
		f.mu.Unlock()
		if inner != nil {
			inner.Cancel()
		}
		if outer != nil {
			outer.Cancel()
		}
	})
}
