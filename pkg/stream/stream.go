// Package stream provides a cancellable live value: a producer goroutine
// publishes full snapshots and consumers read the most recent one.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Next once a stream has stopped without error.
var ErrClosed = errors.New("stream closed")

// Stream delivers snapshots of T until cancelled or until its producer stops.
// Delivery keeps only the most recent undelivered value; a slow consumer
// skips intermediate snapshots instead of queueing them.
type Stream[T any] struct {
	values chan T
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	mu        sync.Mutex
	err       error
	cancelled bool
}

// ProduceFunc publishes values through emit until ctx is done or it fails.
// Returning nil after ctx is done is a clean shutdown.
type ProduceFunc[T any] func(ctx context.Context, emit func(T)) error

// Start runs produce on its own goroutine and returns the stream handle.
func Start[T any](ctx context.Context, produce ProduceFunc[T]) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		values: make(chan T, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.done)
		defer close(s.values)
		defer cancel()

		err := produce(ctx, func(v T) { s.emit(ctx, v) })

		s.mu.Lock()
		if ctx.Err() != nil {
			// a stopped stream must not hand out a snapshot queued before the stop
			s.drain()
		} else if err != nil {
			s.err = err
		}
		s.mu.Unlock()
	}()

	return s
}

// Failed returns a stream that has already stopped with err.
func Failed[T any](err error) *Stream[T] {
	return Start(context.Background(), func(context.Context, func(T)) error {
		return err
	})
}

// emit is only ever called from the producer goroutine. It holds mu so a
// value can never land in the buffer after Cancel has emptied it.
func (s *Stream[T]) emit(ctx context.Context, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || ctx.Err() != nil {
		return
	}
	select {
	case s.values <- v:
		return
	default:
	}
	// drop the stale snapshot still sitting in the buffer
	s.drain()
	select {
	case s.values <- v:
	default:
	}
}

// drain empties the one-slot buffer. Callers hold mu.
func (s *Stream[T]) drain() {
	select {
	case <-s.values:
	default:
	}
}

// Updates is closed when the stream stops; check Err afterwards.
func (s *Stream[T]) Updates() <-chan T {
	return s.values
}

// Done is closed once the producer has returned.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Err reports why the stream stopped. It is nil while running, after Cancel,
// and after a clean end of the producer.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel detaches the producer. It is safe to call more than once and does
// not wait; operations already in flight finish and their results are dropped.
// A snapshot emitted but not yet read is dropped as well, so after Cancel
// returns no further value is delivered.
func (s *Stream[T]) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.drain()
		s.mu.Unlock()
		s.cancel()
	})
}

// Next blocks for the next value. It returns the stream error, or ErrClosed
// when the stream ended cleanly.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.values:
		if !ok {
			if err := s.Err(); err != nil {
				return zero, err
			}
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Map derives a stream by applying fn to every value of src. Cancelling the
// derived stream cancels src; an error from fn stops both.
func Map[T, U any](src *Stream[T], fn func(T) (U, error)) *Stream[U] {
	return Start(context.Background(), func(ctx context.Context, emit func(U)) error {
		defer src.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-src.Updates():
				if !ok {
					return src.Err()
				}
				u, err := fn(v)
				if err != nil {
					return err
				}
				emit(u)
			}
		}
	})
}
