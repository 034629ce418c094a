package stream

import (
	"context"
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func expectNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestValueDeliversCurrentThenUpdates(t *testing.T) {
	v := NewValue("a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	if got := recv(t, ch); got != "a" {
		t.Fatalf("initial value = %q, want a", got)
	}
	v.Set("b")
	if got := recv(t, ch); got != "b" {
		t.Fatalf("update = %q, want b", got)
	}
}

func TestValueDedupesEqualSets(t *testing.T) {
	v := NewValue(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	recv(t, ch)
	v.Set(1)
	expectNone(t, ch)
}

func TestValueCoalescesToLatest(t *testing.T) {
	v := NewValue(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	recv(t, ch)
	v.Set(1)
	v.Set(2)
	v.Set(3)
	if got := recv(t, ch); got != 3 {
		t.Fatalf("coalesced value = %d, want 3", got)
	}
	expectNone(t, ch)
}

func TestValueUnsubscribeClosesChannel(t *testing.T) {
	v := NewValue("x")
	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Subscribe(ctx)
	recv(t, ch)
	cancel()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("channel never closed after cancel")
		}
	}
}

func TestQueueBuffersUntilConsumed(t *testing.T) {
	q := NewQueue[int]()
	defer q.Close()

	// No consumer attached yet: sends must not block or drop.
	q.Send(1)
	q.Send(2)
	q.Send(3)

	for want := 1; want <= 3; want++ {
		if got := recv(t, q.Events()); got != want {
			t.Fatalf("event = %d, want %d", got, want)
		}
	}
	expectNone(t, q.Events())
}

func TestQueueDeliversExactlyOnce(t *testing.T) {
	q := NewQueue[string]()
	defer q.Close()

	q.Send("only")
	if got := recv(t, q.Events()); got != "only" {
		t.Fatalf("event = %q", got)
	}
	expectNone(t, q.Events())
}

func TestQueueCloseEndsConsumer(t *testing.T) {
	q := NewQueue[int]()
	q.Close()
	select {
	case _, ok := <-q.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel never closed")
	}
}
