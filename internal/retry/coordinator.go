package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy decides what happens after a retryable failure
type Policy int

const (
	PolicyNone Policy = iota
	PolicyWaitForConnectivity
)

// State is a step of the send state machine
type State int

const (
	StateIdle State = iota
	StateSending
	StateSucceeded
	StateFailed
	StateWaitingForConnectivity
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateWaitingForConnectivity:
		return "waiting_for_connectivity"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Connectivity streams connectivity changes. Every call starts a new
// subscription which ends when ctx is done.
type Connectivity interface {
	Changes(ctx context.Context) <-chan bool
}

// ErrConnectivityUnavailable is returned when the connectivity stream ends
var ErrConnectivityUnavailable = errors.New("connectivity stream closed")

// Config configures a Coordinator
type Config struct {
	Policy Policy
	// Delay is applied once, before the first send
	Delay time.Duration
	// MaxWait bounds the time from the first retryable failure to the last
	// resend, whether or not connectivity was lost meanwhile. 0 retries until
	// ctx is done.
	MaxWait time.Duration
	// MinInterval spaces consecutive sends
	MinInterval time.Duration
	// Retryable classifies failures that may be recovered by waiting
	Retryable    func(error) bool
	Connectivity Connectivity
	OnTransition func(from, to State)
	Logger       *slog.Logger
}

// Coordinator runs one send operation through the retry state machine.
// A Coordinator is used for a single run.
type Coordinator struct {
	cfg     Config
	limiter *rate.Limiter

	mu       sync.Mutex
	state    State
	attempts int
}

// New creates a coordinator in the idle state
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retryable == nil {
		cfg.Retryable = func(error) bool { return false }
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Coordinator{cfg: cfg, limiter: rate.NewLimiter(limit, 1)}
}

// State returns the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many times the operation was sent
func (c *Coordinator) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Coordinator) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	if to == StateSending {
		c.attempts++
	}
	c.mu.Unlock()

	c.cfg.Logger.Debug("retry state", "from", from.String(), "to", to.String())
	if c.cfg.OnTransition != nil {
		c.cfg.OnTransition(from, to)
	}
}

// Run sends the operation until it succeeds, fails terminally, or ctx is
// done. It returns the error of the last attempt, or ctx.Err() on cancellation.
func (c *Coordinator) Run(ctx context.Context, attempt func(ctx context.Context) error) error {
	if c.cfg.Delay > 0 {
		if err := sleep(ctx, c.cfg.Delay); err != nil {
			c.transition(StateFailed)
			return err
		}
	}

	// zero until the first retryable failure when MaxWait is set
	var deadline time.Time
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			c.transition(StateFailed)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.transition(StateSending)
		err := attempt(ctx)
		if err == nil {
			c.transition(StateSucceeded)
			return nil
		}
		if ctx.Err() != nil {
			c.transition(StateFailed)
			return ctx.Err()
		}
		if c.cfg.Policy != PolicyWaitForConnectivity || c.cfg.Connectivity == nil || !c.cfg.Retryable(err) {
			c.transition(StateFailed)
			return err
		}
		if c.cfg.MaxWait > 0 && deadline.IsZero() {
			deadline = time.Now().Add(c.cfg.MaxWait)
		}

		c.transition(StateWaitingForConnectivity)
		c.cfg.Logger.Info("waiting for connectivity", "attempt", c.Attempts(), "error", err)

		if werr := c.awaitConnectivity(ctx, deadline); werr != nil {
			c.transition(StateFailed)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.cfg.Logger.Info("giving up", "attempts", c.Attempts(), "reason", werr)
			return err
		}
	}
}

// awaitConnectivity blocks until the stream reports connectivity or the
// deadline passes. A zero deadline waits for ctx alone. The subscription is
// released on return, so buffered events never cause extra sends.
func (c *Coordinator) awaitConnectivity(ctx context.Context, deadline time.Time) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !deadline.IsZero() {
		if !time.Now().Before(deadline) {
			return context.DeadlineExceeded
		}
		var cancelTimeout context.CancelFunc
		subCtx, cancelTimeout = context.WithDeadline(subCtx, deadline)
		defer cancelTimeout()
	}

	changes := c.cfg.Connectivity.Changes(subCtx)
	for {
		select {
		case online, ok := <-changes:
			if !ok {
				return ErrConnectivityUnavailable
			}
			if online {
				return nil
			}
		case <-subCtx.Done():
			return subCtx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
