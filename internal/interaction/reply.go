package interaction

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrRejected is returned when the presenter dismisses the interaction
	ErrRejected = errors.New("interaction rejected")
	// ErrTimeout is returned when nobody answered in time
	ErrTimeout = errors.New("interaction timed out")
)

// Reply is a one-shot continuation for a blocking user interaction.
// The presenter settles it exactly once with Resolve or Reject; later calls
// are ignored. A waiter that gives up (timeout or cancellation) rejects it so
// the presenter can stop asking.
type Reply[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	value   T
	err     error
	settled bool
}

// NewReply creates a pending reply
func NewReply[T any]() *Reply[T] {
	return &Reply[T]{done: make(chan struct{})}
}

// Resolve settles the reply with a value. It reports whether this call settled it.
func (r *Reply[T]) Resolve(value T) bool {
	return r.settle(value, nil)
}

// Reject settles the reply without a value
func (r *Reply[T]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	var zero T
	return r.settle(zero, err)
}

func (r *Reply[T]) settle(value T, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return false
	}
	r.value, r.err, r.settled = value, err, true
	close(r.done)
	return true
}

// Done is closed once the reply is settled
func (r *Reply[T]) Done() <-chan struct{} {
	return r.done
}

// Await blocks until the reply settles, ctx is done, or timeout elapses.
// A zero timeout waits indefinitely.
func (r *Reply[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		r.Reject(ctx.Err())
	case <-expired:
		r.Reject(ErrTimeout)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

// ValueOrZero awaits the reply and discards the error, yielding the zero
// value when the interaction was rejected, timed out or cancelled
func (r *Reply[T]) ValueOrZero(ctx context.Context, timeout time.Duration) T {
	v, _ := r.Await(ctx, timeout)
	return v
}
