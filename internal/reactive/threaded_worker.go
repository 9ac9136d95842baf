// If you are AI: This file implements threaded_worker, decoupling upstream and downstream across a dedicated goroutine and a bounded queue.

package reactive

import "sync"

// item is a single slot in a ThreadedWorker's internal queue: either a
// value, or one of the two terminal signals.
type item[T any] struct {
	val        T
	err        error
	isError    bool
	isComplete bool
}

// ThreadedWorker decouples src from its downstream subscriber via a
// bounded single-producer single-consumer queue serviced by a dedicated
// worker goroutine named by name (used only for diagnostics/logging).
// Back-pressure withholds upstream demand once the queue is full rather
// than dropping elements: upstream is only ever asked for as many
// elements as there is free queue capacity, so the producer side never
// actually blocks on a channel send.
//
// The bounded single-producer single-consumer discipline here is
// expressed with a buffered channel rather than hand-rolled atomic
// read/write cursors over a ring buffer, since T is generic.
func ThreadedWorker[T any](name string, capacity int, src Publisher[T]) Publisher[T] {
	if capacity < 1 {
		capacity = 1
	}
	return PublisherFunc[T](func(sub Subscriber[T]) {
		w := &worker[T]{
			name:     name,
			queue:    make(chan item[T], capacity),
			capacity: capacity,
		}
		w.demandCond = sync.NewCond(&w.mu)
		w.start(src, sub)
	})
}

// worker holds the state for one ThreadedWorker subscription.
type worker[T any] struct {
	name     string
	queue    chan item[T]
	capacity int

	mu         sync.Mutex
	demandCond *sync.Cond
	upstream   Subscription
	inFlight   int64 // elements requested from upstream but not yet dequeued
	downDemand int64
	cancelled  bool
	cancelOnce sync.Once
}

// start wires the upstream subscription, launches the worker goroutine,
// and hands the downstream its subscription handle.
func (w *worker[T]) start(src Publisher[T], sub Subscriber[T]) {
	sub.OnSubscribe(subFunc{request: w.request, cancel: w.cancel})

	src.Subscribe(Funcs[T]{
		Subscribe: func(s Subscription) {
			w.mu.Lock()
			w.upstream = s
			w.mu.Unlock()
			w.fillQueue()
		},
		Next: func(v T) {
			w.queue <- item[T]{val: v}
		},
		Err: func(err error) {
			w.queue <- item[T]{err: err, isError: true}
		},
		Complete: func() {
			w.queue <- item[T]{isComplete: true}
		},
	})

	go w.run(sub)
}

// fillQueue requests as many elements from upstream as there is free
// queue capacity not already in flight.
func (w *worker[T]) fillQueue() {
	w.mu.Lock()
	free := int64(w.capacity) - w.inFlight - int64(len(w.queue))
	if free <= 0 || w.upstream == nil || w.cancelled {
		w.mu.Unlock()
		return
	}
	w.inFlight += free
	up := w.upstream
	w.mu.Unlock()
	up.Request(free)
}

// run is the dedicated worker goroutine: it drains the queue and
// delivers elements to downstream as demand allows.
func (w *worker[T]) run(sub Subscriber[T]) {
	for it := range w.queue {
		w.mu.Lock()
		w.inFlight--
		w.mu.Unlock()

		if it.isComplete {
			sub.OnComplete()
			return
		}
		if it.isError {
			sub.OnError(it.err)
			return
		}

		w.waitForDemand()
		if w.isCancelled() {
			return
		}
		w.consumeDemand()
		sub.OnNext(it.val)
		w.fillQueue()
	}
}

// waitForDemand blocks the worker goroutine until the downstream
// subscriber has outstanding demand or the subscription is cancelled.
func (w *worker[T]) waitForDemand() {
	w.mu.Lock()
	for w.downDemand <= 0 && !w.cancelled {
		w.demandCond.Wait()
	}
	w.mu.Unlock()
}

// consumeDemand decrements outstanding downstream demand by one.
func (w *worker[T]) consumeDemand() {
	w.mu.Lock()
	if w.downDemand > 0 {
		w.downDemand--
	}
	w.mu.Unlock()
}

// isCancelled reports whether the subscription has been cancelled.
func (w *worker[T]) isCancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelled
}

// request adds n to outstanding downstream demand.
func (w *worker[T]) request(n int64) {
	if n <= 0 {
		return
	}
	w.mu.Lock()
	w.downDemand += n
	w.mu.Unlock()
	w.demandCond.Broadcast()
}

// cancel stops the worker and cancels the upstream subscription.
// Idempotent.
func (w *worker[T]) cancel() {
	w.cancelOnce.Do(func() {
		w.mu.Lock()
		w.cancelled = true
		up := w.upstream
		w.mu.Unlock()
		w.demandCond.Broadcast()
		if up != nil {
			up.Cancel()
		}
	})
}
