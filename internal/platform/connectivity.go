package platform

import (
	"context"
	"log/slog"
	"net"
	"time"
)

const (
	DefaultProbeAddress  = "1.1.1.1:53"
	DefaultProbeInterval = 5 * time.Second
	probeTimeout         = 3 * time.Second
)

// ProbeMonitor reports connectivity by periodically dialing a well-known
// address. Each subscription probes on its own and stops when its ctx is done.
type ProbeMonitor struct {
	address  string
	interval time.Duration
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
	logger   *slog.Logger
}

// ProbeOption configures a ProbeMonitor
type ProbeOption func(*ProbeMonitor)

// WithDialer replaces the dial function used for probing
func WithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) ProbeOption {
	return func(m *ProbeMonitor) { m.dial = dial }
}

func NewProbeMonitor(address string, interval time.Duration, logger *slog.Logger, opts ...ProbeOption) *ProbeMonitor {
	if address == "" {
		address = DefaultProbeAddress
	}
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &net.Dialer{Timeout: probeTimeout}
	m := &ProbeMonitor{address: address, interval: interval, dial: d.DialContext, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Changes emits the current state right away, then every change. The
// channel is closed when ctx is done.
func (m *ProbeMonitor) Changes(ctx context.Context) <-chan bool {
	ch := make(chan bool)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		first := true
		var last bool
		for {
			online := m.probe(ctx)
			if ctx.Err() != nil {
				return
			}
			if first || online != last {
				m.logger.Debug("connectivity", "online", online, "address", m.address)
				select {
				case ch <- online:
				case <-ctx.Done():
					return
				}
				first, last = false, online
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (m *ProbeMonitor) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	conn, err := m.dial(ctx, "tcp", m.address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
