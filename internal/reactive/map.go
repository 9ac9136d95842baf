// If you are AI: This file implements the map operator: apply f per element, propagate completion/error unchanged.

package reactive

// Map returns a Publisher that applies f to every element of src before
// forwarding it downstream. Completion and error signals pass through
// unchanged; demand is forwarded unchanged since map neither buffers
// nor drops elements.
func Map[T, R any](src Publisher[T], f func(T) R) Publisher[R] {
	return PublisherFunc[R](func(sub Subscriber[R]) {
		src.Subscribe(Funcs[T]{
			Subscribe: func(s Subscription) {
				sub.OnSubscribe(s)
			},
			Next: func(v T) {
				sub.OnNext(f(v))
			},
			Err: func(err error) {
				sub.OnError(err)
			},
			Complete: func() {
				sub.OnComplete()
			},
		})
	})
}

// MapPublishers is the "f returning a publisher" variant of Map: map
// turns the output into a stream of publishers, typically consumed next
// by Flatten.
func MapPublishers[T, R any](src Publisher[T], f func(T) Publisher[R]) Publisher[Publisher[R]] {
	return Map(src, f)
}

// Filter returns a Publisher that forwards only elements for which pred
// returns true. Demand accounting stays correct from the subscriber's
// point of view: each filtered-out element still consumes one unit of
// the demand it arrived under, and Filter re-requests one replacement
// element from upstream so the subscriber is never starved below its
// outstanding demand.
func Filter[T any](src Publisher[T], pred func(T) bool) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		var upstream Subscription
		src.Subscribe(Funcs[T]{
			Subscribe: func(s Subscription) {
				upstream = s
				sub.OnSubscribe(s)
			},
			Next: func(v T) {
				if pred(v) {
					sub.OnNext(v)
					return
				}
				if upstream != nil {
					upstream.Request(1)
				}
			},
			Err:      sub.OnError,
			Complete: sub.OnComplete,
		})
	})
}
