// Package stream provides the two delivery shapes the app is built on:
// a latest-value live stream for continuous state and an unbounded
// queue for one-shot events.
package stream

import (
	"context"
	"sync"
)

// Value holds the latest value of a live stream and pushes every
// distinct change to its subscribers. Setting an equal value is a
// no-op; subscribers that lag see only the newest value.
type Value[T comparable] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue returns a live stream seeded with initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and notifies subscribers, unless the
// value is unchanged.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if x == v.cur {
		return
	}
	v.cur = x
	for _, ch := range v.subs {
		offer(ch, x)
	}
}

// Subscribe registers a listener. The returned channel first delivers
// the current value, then every later distinct value. The subscription
// ends, and the channel closes, when ctx is cancelled.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = ch
	ch <- v.cur
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, id)
		close(ch)
		v.mu.Unlock()
	}()
	return ch
}

// offer replaces whatever is buffered in a capacity-1 channel with x.
func offer[T any](ch chan T, x T) {
	for {
		select {
		case ch <- x:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Queue is an unbounded, order-preserving queue for one-shot events.
// Send never blocks and never drops; each event reaches the single
// consumer exactly once, waiting until one is attached.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	wake chan struct{}
	out  chan T
	done chan struct{}
	once sync.Once
}

// NewQueue returns a running queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

// Send enqueues an event. Safe from any goroutine; no-op after Close.
func (q *Queue[T]) Send(v T) {
	select {
	case <-q.done:
		return
	default:
	}
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Events returns the consumer channel. The queue supports exactly one
// consumer; delivered events are gone.
func (q *Queue[T]) Events() <-chan T {
	return q.out
}

// Close stops delivery. Events still queued are discarded.
func (q *Queue[T]) Close() {
	q.once.Do(func() { close(q.done) })
}

func (q *Queue[T]) pump() {
	// pump is the only sender on out, so it alone may close it.
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
			case <-q.done:
				return
			}
			q.mu.Lock()
		}
		v := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- v:
		case <-q.done:
			return
		}
	}
}
