// If you are AI: This file implements generators::stateful — a demand-driven generator whose pump runs once per outstanding unit of demand.

package reactive

import "sync"

// Sink is what a Stateful generator's pump function emits through: at
// most one of Next or Complete per pump invocation.
type Sink[T any] struct {
	next     func(T)
	complete func()
	emitted  bool
	done     bool
}

// Next emits one element downstream. Calling it more than once per pump
// invocation is a programming error in the generator and is ignored
// after the first call.
func (s *Sink[T]) Next(v T) {
	if s.emitted || s.done {
		return
	}
	s.emitted = true
	s.next(v)
}

// Complete signals that the generator has no more elements. Idempotent.
func (s *Sink[T]) Complete() {
	if s.done {
		return
	}
	s.done = true
	s.complete()
}

// maxPumpSpins bounds the internal retry loop used when a pump
// invocation neither emits nor completes (it is bookkeeping-only, e.g.
// the bot shutdown generator's first handshake call). This guards
// against a buggy pump looping forever instead of deadlocking the
// pipeline.
const maxPumpSpins = 100000

// Stateful builds a Publisher whose state is created lazily by init the
// first time any demand arrives, and whose elements are produced by
// pump: each unit of outstanding demand invokes pump(state, sink) until
// pump emits an element (consuming that unit) or calls sink.Complete().
// A pump call that does neither is assumed to be pure bookkeeping (such
// as the bot's shutdown handshake) and is retried immediately without
// consuming demand.
func Stateful[S, T any](init func() S, pump func(state S, sink *Sink[T])) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		g := &generator[S, T]{init: init, pump: pump, downstream: sub}
		sub.OnSubscribe(subFunc{request: g.request, cancel: g.cancel})
	})
}

// generator holds the lazily-created state and outstanding demand for a
// single Stateful subscription.
type generator[S, T any] struct {
	mu         sync.Mutex
	init       func() S
	pump       func(state S, sink *Sink[T])
	downstream Subscriber[T]
	state      S
	started    bool
	demand     int64
	cancelled  bool
	terminal   bool
	draining   bool
	spins      int
}

// request adds n to outstanding demand and drives the pump loop. A
// reentrancy guard (draining) keeps nested Request calls made from
// within OnNext from recursing into the pump loop.
func (g *generator[S, T]) request(n int64) {
	if n <= 0 {
		return
	}
	g.mu.Lock()
	if g.cancelled || g.terminal {
		g.mu.Unlock()
		return
	}
	g.demand += n
	if g.draining {
		g.mu.Unlock()
		return
	}
	g.draining = true
	g.mu.Unlock()

	g.drain()
}

// drain runs the pump loop while demand remains outstanding.
func (g *generator[S, T]) drain() {
	for {
		g.mu.Lock()
		if g.cancelled || g.terminal || g.demand <= 0 {
			g.draining = false
			g.mu.Unlock()
			return
		}
		if !g.started {
			g.state = g.init()
			g.started = true
		}
		state := g.state
		g.mu.Unlock()

		emitted, done := g.pumpOnce(state)

		g.mu.Lock()
		if done {
			g.terminal = true
			g.draining = false
			g.mu.Unlock()
			g.downstream.OnComplete()
			return
		}
		if emitted {
			g.demand--
			g.spins = 0
		}
		g.mu.Unlock()

		if !emitted {
			// Bookkeeping-only pump call; retry immediately up to the
			// spin cap rather than stalling with unmet demand.
			if spun := g.spin(); spun >= maxPumpSpins {
				return
			}
		}
	}
}

// spin tracks consecutive no-op pump calls; defined separately so drain
// stays readable.
func (g *generator[S, T]) spin() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spins++
	return g.spins
}

// pumpOnce invokes the pump function once and reports what it did.
func (g *generator[S, T]) pumpOnce(state S) (emitted, done bool) {
	var emittedVal T
	sink := &Sink[T]{
		next: func(v T) {
			emittedVal = v
			g.downstream.OnNext(emittedVal)
		},
		complete: func() {},
	}
	g.pump(state, sink)
	return sink.emitted, sink.done
}

// cancel marks the generator cancelled; idempotent per Subscription's
// contract.
func (g *generator[S, T]) cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = true
}
