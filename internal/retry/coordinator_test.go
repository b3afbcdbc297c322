package retry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("connection refused")

func isTransport(err error) bool { return errors.Is(err, errTransport) }

// scriptedConnectivity replays the same events on every subscription and
// counts subscriptions that were released
type scriptedConnectivity struct {
	events        []bool
	subscriptions atomic.Int32
	released      atomic.Int32
}

func (s *scriptedConnectivity) Changes(ctx context.Context) <-chan bool {
	s.subscriptions.Add(1)
	ch := make(chan bool, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	go func() {
		<-ctx.Done()
		s.released.Add(1)
	}()
	return ch
}

type transitions struct {
	mu     sync.Mutex
	states []State
}

func (tr *transitions) record(_, to State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.states = append(tr.states, to)
}

func (tr *transitions) list() []State {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]State(nil), tr.states...)
}

func TestRun_SuccessFirstTime(t *testing.T) {
	var tr transitions
	c := New(Config{Policy: PolicyNone, OnTransition: tr.record})

	err := c.Run(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Attempts())
	assert.Equal(t, StateSucceeded, c.State())
	assert.Equal(t, []State{StateSending, StateSucceeded}, tr.list())
}

func TestRun_PolicyNoneFailsAfterOneAttempt(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{Policy: PolicyNone, Retryable: isTransport, Connectivity: conn})

	err := c.Run(context.Background(), func(context.Context) error { return errTransport })
	assert.ErrorIs(t, err, errTransport)
	assert.Equal(t, 1, c.Attempts())
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, int32(0), conn.subscriptions.Load())
}

func TestRun_NonRetryableErrorIsTerminal(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn})

	other := errors.New("invalid request")
	err := c.Run(context.Background(), func(context.Context) error { return other })
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, c.Attempts())
}

func TestRun_OneResendPerRegainedConnectivity(t *testing.T) {
	// several offline reports and repeated online events queued up
	conn := &scriptedConnectivity{events: []bool{false, false, true, true, true}}
	var tr transitions
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn, OnTransition: tr.record})

	var calls atomic.Int32
	err := c.Run(context.Background(), func(context.Context) error {
		if calls.Add(1) == 1 {
			return errTransport
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Attempts(), "exactly one additional send")
	assert.Equal(t, []State{StateSending, StateWaitingForConnectivity, StateSending, StateSucceeded}, tr.list())

	assert.Equal(t, int32(1), conn.subscriptions.Load())
	assert.Eventually(t, func() bool { return conn.released.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRun_RetriesWithoutCap(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn})

	var calls atomic.Int32
	err := c.Run(context.Background(), func(context.Context) error {
		if calls.Add(1) < 5 {
			return errTransport
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Attempts())
	assert.Equal(t, int32(4), conn.subscriptions.Load())
}

func TestRun_CancelWhileWaiting(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{false}}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool { return c.State() == StateWaitingForConnectivity }, time.Second, time.Millisecond)
		cancel()
	}()

	err := c.Run(ctx, func(context.Context) error { return errTransport })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.Attempts())
	assert.Equal(t, StateFailed, c.State())
	assert.Eventually(t, func() bool { return conn.released.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRun_MaxWaitReturnsLastError(t *testing.T) {
	conn := &scriptedConnectivity{}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn, MaxWait: 30 * time.Millisecond})

	err := c.Run(context.Background(), func(context.Context) error { return errTransport })
	assert.ErrorIs(t, err, errTransport)
	assert.Equal(t, StateFailed, c.State())
}

// A host that stays down while the network is up must not be retried forever
func TestRun_MaxWaitBoundsResendsWhileOnline(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{
		Policy:       PolicyWaitForConnectivity,
		Retryable:    isTransport,
		Connectivity: conn,
		MaxWait:      50 * time.Millisecond,
		MinInterval:  5 * time.Millisecond,
	})

	start := time.Now()
	err := c.Run(context.Background(), func(context.Context) error { return errTransport })
	assert.ErrorIs(t, err, errTransport)
	assert.Equal(t, StateFailed, c.State())
	assert.Greater(t, c.Attempts(), 1)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRun_DelayAppliedOnce(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn, Delay: 40 * time.Millisecond})

	var sends []time.Time
	start := time.Now()
	err := c.Run(context.Background(), func(context.Context) error {
		sends = append(sends, time.Now())
		if len(sends) < 3 {
			return errTransport
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, sends, 3)
	assert.GreaterOrEqual(t, sends[0].Sub(start), 40*time.Millisecond)
	assert.Less(t, sends[2].Sub(sends[0]), 40*time.Millisecond, "retries are not delayed again")
}

func TestRun_DelayCancelled(t *testing.T) {
	c := New(Config{Delay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.Run(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, 0, c.Attempts())
}

func TestRun_MinIntervalSpacesResends(t *testing.T) {
	conn := &scriptedConnectivity{events: []bool{true}}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn, MinInterval: 30 * time.Millisecond})

	var sends []time.Time
	err := c.Run(context.Background(), func(context.Context) error {
		sends = append(sends, time.Now())
		if len(sends) < 2 {
			return errTransport
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, sends, 2)
	assert.GreaterOrEqual(t, sends[1].Sub(sends[0]), 25*time.Millisecond)
}

func TestRun_ClosedConnectivityStream(t *testing.T) {
	conn := closedConnectivity{}
	c := New(Config{Policy: PolicyWaitForConnectivity, Retryable: isTransport, Connectivity: conn})

	err := c.Run(context.Background(), func(context.Context) error { return errTransport })
	assert.ErrorIs(t, err, errTransport)
}

type closedConnectivity struct{}

func (closedConnectivity) Changes(context.Context) <-chan bool {
	ch := make(chan bool)
	close(ch)
	return ch
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "waiting_for_connectivity", StateWaitingForConnectivity.String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateSending.Terminal())
}
