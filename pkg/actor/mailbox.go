package actor

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("mailbox closed")

// Mailbox is an unbounded FIFO inbox owned by a single receiving goroutine.
// Send never blocks, so it is safe to call from timer callbacks and from
// other processes' handlers.
type Mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	closed bool
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Send enqueues msg. It reports false when the mailbox has been closed,
// in which case the message is dropped.
func (m *Mailbox[T]) Send(msg T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// Receive blocks until a message is available, the mailbox is closed and
// drained, or ctx is done.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			msg := m.queue[0]
			var zero T
			m.queue[0] = zero
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return msg, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.notify:
		}
	}
}

// Close stops accepting messages. Messages already queued can still be received.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
