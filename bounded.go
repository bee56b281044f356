package channels

import (
	"context"
	"sync"
)

// BoundedSender is the sending half of a bounded (fixed-capacity) channel.
// Its method shape — Send taking a context, non-blocking TrySend, Close idempotent via
// sync.Once — follows the same convention as the generic channel wrapper in
// _examples/other_examples/57f012d6_GabrielNunesIT-go-libs__metrics-channel.go.go,
// adapted here to a split sender/receiver pair so that closing one end is
// observable, independently, by the other (the Go substitute for Rust's
// Drop, since a bare chan has no way to signal "the receiver is gone" to a
// blocked sender).
type BoundedSender[T any] struct {
	ch        chan T
	recvDone  <-chan struct{}
	closeOnce *sync.Once
}

// BoundedReceiver is the receiving half of a bounded channel.
type BoundedReceiver[T any] struct {
	ch            <-chan T
	recvDone      chan struct{}
	recvCloseOnce *sync.Once
}

// NewBounded creates a bounded channel pair of the given capacity.
func NewBounded[T any](capacity uint64) (*BoundedSender[T], *BoundedReceiver[T]) {
	ch := make(chan T, capacity)
	recvDone := make(chan struct{})

	tx := &BoundedSender[T]{ch: ch, recvDone: recvDone, closeOnce: &sync.Once{}}
	rx := &BoundedReceiver[T]{ch: ch, recvDone: recvDone, recvCloseOnce: &sync.Once{}}
	return tx, rx
}

// Cap returns the channel's capacity.
func (s *BoundedSender[T]) Cap() int { return cap(s.ch) }

// Send blocks until the value is enqueued, the receiver is closed, or ctx
// is done.
func (s *BoundedSender[T]) Send(ctx context.Context, v T) error {
	select {
	case <-s.recvDone:
		return ErrReceiverClosed
	default:
	}
	select {
	case s.ch <- v:
		return nil
	case <-s.recvDone:
		return ErrReceiverClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend attempts a non-blocking send. It returns false if the buffer is
// full or the receiver has closed.
func (s *BoundedSender[T]) TrySend(v T) bool {
	select {
	case <-s.recvDone:
		return false
	default:
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Close closes the channel, signaling end-of-stream to the receiver. Safe
// to call more than once.
func (s *BoundedSender[T]) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Cap returns the channel's capacity.
func (r *BoundedReceiver[T]) Cap() int { return cap(r.ch) }

// Len returns the number of values currently buffered.
func (r *BoundedReceiver[T]) Len() int { return len(r.ch) }

// Recv blocks until a value is available, the sender closes the channel
// (ErrClosed), or ctx is done.
func (r *BoundedReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryRecv attempts a non-blocking receive.
func (r *BoundedReceiver[T]) TryRecv() (T, bool) {
	var zero T
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, false
		}
		return v, true
	default:
		return zero, false
	}
}

// Close signals to the sender that this end is gone; any subsequent Send
// observes ErrReceiverClosed. Safe to call more than once.
func (r *BoundedReceiver[T]) Close() {
	r.recvCloseOnce.Do(func() { close(r.recvDone) })
}
