package reactive

import (
	"errors"
	"sync"
	"testing"
)

func collect[T any](t *testing.T, pub Publisher[T], demand int64) (vals []T, completed bool, gotErr error) {
	t.Helper()
	var mu sync.Mutex
	var sub Subscription
	done := make(chan struct{})
	pub.Subscribe(Funcs[T]{
		Subscribe: func(s Subscription) {
			sub = s
			s.Request(demand)
		},
		Next: func(v T) {
			mu.Lock()
			vals = append(vals, v)
			mu.Unlock()
		},
		Err: func(err error) {
			gotErr = err
			close(done)
		},
		Complete: func() {
			completed = true
			close(done)
		},
	})
	_ = sub
	<-done
	return
}

func TestMapAppliesFunctionAndPropagatesCompletion(t *testing.T) {
	src := FromSlice([]int{1, 2, 3})
	mapped := Map(src, func(v int) int { return v * 10 })

	vals, completed, err := collect[int](t, mapped, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	want := []int{10, 20, 30}
	if len(vals) != len(want) {
		t.Fatalf("got %v want %v", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("got %v want %v", vals, want)
		}
	}
}

func TestFilterSkipsElementsWithoutStarvingDemand(t *testing.T) {
	src := FromSlice([]int{1, 2, 3, 4, 5, 6})
	evens := Filter(src, func(v int) bool { return v%2 == 0 })

	vals, completed, err := collect[int](t, evens, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	want := []int{2, 4, 6}
	if len(vals) != len(want) {
		t.Fatalf("got %v want %v", vals, want)
	}
}

func TestConcatSubscribesInOrder(t *testing.T) {
	a := FromSlice([]string{"a1", "a2"})
	b := FromSlice([]string{"b1"})
	chained := Concat[string](a, b)

	vals, completed, err := collect[string](t, chained, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	want := []string{"a1", "a2", "b1"}
	if len(vals) != len(want) {
		t.Fatalf("got %v want %v", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("got %v want %v", vals, want)
		}
	}
}

func TestConcatForwardsErrorFromEitherStage(t *testing.T) {
	boom := errors.New("boom")
	a := PublisherFunc[int](func(sub Subscriber[int]) {
		sub.OnSubscribe(subFunc{})
		sub.OnError(boom)
	})
	b := FromSlice([]int{1})
	chained := Concat[int](a, b)

	_, completed, err := collect[int](t, chained, 10)
	if completed {
		t.Fatalf("expected error, not completion")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v want %v", err, boom)
	}
}

func TestFlattenForwardsInnerElementsInOrder(t *testing.T) {
	inners := []Publisher[int]{
		FromSlice([]int{1, 2}),
		FromSlice([]int{3}),
	}
	outer := FromSlice(inners)
	flat := Flatten[int](outer)

	vals, completed, err := collect[int](t, flat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	want := []int{1, 2, 3}
	if len(vals) != len(want) {
		t.Fatalf("got %v want %v", vals, want)
	}
}

func TestStatefulGeneratorEmitsOnePerPullUntilEmpty(t *testing.T) {
	buffer := []string{"m1", "m2", "m3"}
	pos := 0
	gen := Stateful[struct{}, string](
		func() struct{} { return struct{}{} },
		func(_ struct{}, sink *Sink[string]) {
			if pos >= len(buffer) {
				sink.Complete()
				return
			}
			sink.Next(buffer[pos])
			pos++
		},
	)

	vals, completed, err := collect[string](t, gen, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	if len(vals) != 3 || vals[0] != "m1" || vals[2] != "m3" {
		t.Fatalf("got %v", vals)
	}
}

func TestStatefulGeneratorBookkeepingCallDoesNotStallDemand(t *testing.T) {
	handshakeDone := false
	emitted := false
	gen := Stateful[struct{}, string](
		func() struct{} { return struct{}{} },
		func(_ struct{}, sink *Sink[string]) {
			if !handshakeDone {
				handshakeDone = true
				return // pure bookkeeping, no emit
			}
			if !emitted {
				emitted = true
				sink.Next("only")
				return
			}
			sink.Complete()
		},
	)

	// collect waits for a terminal signal, which never comes here; the
	// generator pumps synchronously inside Request, so subscribe inline.
	var vals []string
	var completed bool
	var err error
	gen.Subscribe(Funcs[string]{
		Subscribe: func(s Subscription) { s.Request(1) },
		Next:      func(v string) { vals = append(vals, v) },
		Err:       func(e error) { err = e },
		Complete:  func() { completed = true },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed {
		t.Fatalf("should not complete yet, demand was only 1")
	}
	if len(vals) != 1 || vals[0] != "only" {
		t.Fatalf("got %v", vals)
	}
}

func TestThreadedWorkerPreservesOrderAndCompletes(t *testing.T) {
	src := FromSlice([]int{1, 2, 3, 4, 5})
	worked := ThreadedWorker[int]("test-worker", 2, src)

	vals, completed, err := collect[int](t, worked, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("expected completion")
	}
	want := []int{1, 2, 3, 4, 5}
	if len(vals) != len(want) {
		t.Fatalf("got %v want %v", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("got %v want %v", vals, want)
		}
	}
}

func TestSubscriptionCancelIsIdempotent(t *testing.T) {
	src := FromSlice([]int{1, 2, 3})
	var sub Subscription
	src.Subscribe(Funcs[int]{
		Subscribe: func(s Subscription) { sub = s },
	})
	sub.Cancel()
	sub.Cancel() // must not panic or misbehave
}
