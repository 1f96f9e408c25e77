// Package bus couples channel adapters to the agent loop via two
// independent FIFO queues: inbound (channel -> agent) and outbound
// (agent -> channel).
package bus

import (
	"context"
	"sync"

	"github.com/localloom/corebot/pkg/message"
)

// Bus exposes the two bounded-or-unbounded FIFO queues described in spec.md
// §4.2. Zero-value capacities mean unbounded.
type Bus struct {
	inbound  *queue[message.Inbound]
	outbound *queue[message.Outbound]
}

// New creates a Bus. inboundCap/outboundCap of 0 means unbounded.
func New(inboundCap, outboundCap int) *Bus {
	return &Bus{
		inbound:  newQueue[message.Inbound](inboundCap),
		outbound: newQueue[message.Outbound](outboundCap),
	}
}

// PublishInbound enqueues an inbound message, applying backpressure when the
// queue is at bounded capacity.
func (b *Bus) PublishInbound(ctx context.Context, msg message.Inbound) error {
	return b.inbound.publish(ctx, msg)
}

// ConsumeInbound blocks until a message is available, the context is
// cancelled, or the bus is stopped. ok is false in the latter two cases.
func (b *Bus) ConsumeInbound(ctx context.Context) (message.Inbound, bool) {
	return b.inbound.consume(ctx)
}

// PublishOutbound enqueues an outbound message.
func (b *Bus) PublishOutbound(ctx context.Context, msg message.Outbound) error {
	return b.outbound.publish(ctx, msg)
}

// ConsumeOutbound blocks until a message is available, the context is
// cancelled, or the bus is stopped.
func (b *Bus) ConsumeOutbound(ctx context.Context) (message.Outbound, bool) {
	return b.outbound.consume(ctx)
}

// InboundSize is a best-effort snapshot, not synchronised with in-flight
// consumers.
func (b *Bus) InboundSize() int { return b.inbound.size() }

// OutboundSize is a best-effort snapshot.
func (b *Bus) OutboundSize() int { return b.outbound.size() }

// Stop signals shutdown to both queues. Idempotent; never raises.
func (b *Bus) Stop() {
	b.inbound.stop()
	b.outbound.stop()
}

// queue is a generic FIFO with optional bounded capacity, built on a slice +
// condition variable rather than a Go channel so that "unbounded" doesn't
// require picking an arbitrary buffer size up front.
type queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []T
	cap      int
	stopped  bool
}

func newQueue[T any](capacity int) *queue[T] {
	q := &queue[T]{cap: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *queue[T]) publish(ctx context.Context, item T) error {
	// sync.Cond has no native context support; a watcher goroutine
	// broadcasts on cancellation so a blocked Wait() wakes up to re-check
	// ctx.Err(), mirroring the same pattern consume() uses.
	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.notFull.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()
	}
	defer close(done)

	q.mu.Lock()
	for q.cap > 0 && len(q.items) >= q.cap && !q.stopped {
		if ctx != nil && ctx.Err() != nil {
			q.mu.Unlock()
			return ctx.Err()
		}
		q.notFull.Wait()
	}
	if q.stopped {
		q.mu.Unlock()
		return ErrStopped
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.notEmpty.Signal()
	return nil
}

func (q *queue[T]) consume(ctx context.Context) (T, bool) {
	var zero T

	// Wake the waiter if ctx is cancelled; sync.Cond has no native ctx
	// support, so we poll via a watcher goroutine that broadcasts on
	// cancellation.
	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.notEmpty.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()
	}
	defer close(done)

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		if ctx != nil && ctx.Err() != nil {
			return zero, false
		}
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true
}

func (q *queue[T]) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue[T]) stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
