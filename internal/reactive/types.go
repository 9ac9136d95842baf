// If you are AI: This file defines the core publisher/subscriber/subscription contracts the rest of the package's operators build on.

package reactive

// Subscription is the handle a publisher gives a subscriber at
// subscribe time. The bearer may request additive demand or cancel.
// Cancel is idempotent: calling it more than once has the same
// observable effect as calling it once.
type Subscription interface {
	// Request adds n to the outstanding demand. n must be positive;
	// implementations ignore non-positive values rather than letting
	// demand go negative.
	Request(n int64)
	// Cancel stops element delivery. Safe to call more than once and
	// safe to call after the subscriber has already received a terminal
	// signal.
	Cancel()
}

// Subscriber receives exactly one OnSubscribe call, followed by zero or
// more OnNext calls, terminated by at most one of OnComplete or OnError.
// A subscriber must never receive more OnNext calls than the total
// demand it has requested.
type Subscriber[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Publisher produces elements of T to a single Subscriber. Each
// publisher value is consumed at most once: Subscribe is called one
// time, not repeated for re-subscription.
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// PublisherFunc adapts a plain function into a Publisher, the way
// http.HandlerFunc adapts a function into an http.Handler.
type PublisherFunc[T any] func(sub Subscriber[T])

// Subscribe invokes the underlying function.
func (f PublisherFunc[T]) Subscribe(sub Subscriber[T]) {
	f(sub)
}

// Funcs is a Subscriber built from closures, for tests and small sinks
// that don't want to declare a named type per callback set. A nil field
// is treated as a no-op.
type Funcs[T any] struct {
	Subscribe func(sub Subscription)
	Next      func(v T)
	Err       func(err error)
	Complete  func()
}

// OnSubscribe invokes Subscribe if set.
func (f Funcs[T]) OnSubscribe(sub Subscription) {
	if f.Subscribe != nil {
		f.Subscribe(sub)
	}
}

// OnNext invokes Next if set.
func (f Funcs[T]) OnNext(v T) {
	if f.Next != nil {
		f.Next(v)
	}
}

// OnError invokes Err if set.
func (f Funcs[T]) OnError(err error) {
	if f.Err != nil {
		f.Err(err)
	}
}

// OnComplete invokes Complete if set.
func (f Funcs[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

// subFunc adapts plain Request/Cancel closures into a Subscription,
// used internally by operators that forward demand without additional
// bookkeeping.
type subFunc struct {
	request func(int64)
	cancel  func()
}

// Request forwards to the underlying closure.
func (s subFunc) Request(n int64) {
	if s.request != nil {
		s.request(n)
	}
}

// Cancel forwards to the underlying closure.
func (s subFunc) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
