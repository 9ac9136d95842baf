// If you are AI: This file implements signal_breaker, cancelling upstream and completing downstream on the first matching process signal.

package reactive

import (
	"os"
	"os/signal"
	"sync"
)

// SignalBreaker installs handlers for the given process signals (e.g.
// syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT). On the first
// signal received, it cancels src's subscription and completes the
// downstream subscriber, as a reusable operator rather than a one-shot
// blocking wait.
func SignalBreaker[T any](signals []os.Signal, src Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		b := &breaker[T]{downstream: sub}
		b.start(signals, src)
	})
}

// breaker holds the state for one SignalBreaker subscription.
type breaker[T any] struct {
	mu         sync.Mutex
	downstream Subscriber[T]
	upstream   Subscription
	sigCh      chan os.Signal
	tripped    bool
	cancelOnce sync.Once
}

// start subscribes to src, arms the signal channel, and spawns the
// watcher goroutine.
func (b *breaker[T]) start(signals []os.Signal, src Publisher[T]) {
	b.sigCh = make(chan os.Signal, 1)
	signal.Notify(b.sigCh, signals...)

	src.Subscribe(Funcs[T]{
		Subscribe: func(s Subscription) {
			b.mu.Lock()
			b.upstream = s
			b.mu.Unlock()
			b.downstream.OnSubscribe(subFunc{request: s.Request, cancel: b.cancel})
		},
		Next: func(v T) {
			b.mu.Lock()
			tripped := b.tripped
			b.mu.Unlock()
			if !tripped {
				b.downstream.OnNext(v)
			}
		},
		Err:      b.downstream.OnError,
		Complete: b.downstream.OnComplete,
	})

	go b.watch()
}

// watch blocks until a signal arrives or the subscription is cancelled
// through other means, then trips the breaker.
func (b *breaker[T]) watch() {
	_, ok := <-b.sigCh
	if !ok {
		return
	}
	b.trip()
}

// trip cancels the upstream subscription and completes downstream. Safe
// to call at most effectively once; subsequent signals are ignored
// since Notify only delivers to a channel of capacity 1 and watch exits
// after the first receive.
func (b *breaker[T]) trip() {
	b.mu.Lock()
	if b.tripped {
		b.mu.Unlock()
		return
	}
	b.tripped = true
	up := b.upstream
	b.mu.Unlock()

	if up != nil {
		up.Cancel()
	}
	b.downstream.OnComplete()
}

// cancel stops signal delivery and cancels the upstream subscription.
// Idempotent.
func (b *breaker[T]) cancel() {
	b.cancelOnce.Do(func() {
		signal.Stop(b.sigCh)
		close(b.sigCh)
		b.mu.Lock()
		up := b.upstream
		b.mu.Unlock()
		if up != nil {
			up.Cancel()
		}
	})
}
