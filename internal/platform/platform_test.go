package platform

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipNet(s string) *net.IPNet {
	return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
}

func TestPickWifiAddress(t *testing.T) {
	ifaces := []Interface{
		{Name: "eth0", Up: true, Addrs: []net.Addr{ipNet("10.0.0.2")}},
		{Name: "wlan1", Up: false, Addrs: []net.Addr{ipNet("192.168.1.9")}},
		{Name: "wlp2s0", Up: true, Addrs: []net.Addr{&net.IPNet{IP: net.ParseIP("fe80::1")}, ipNet("192.168.1.20")}},
	}

	tests := []struct {
		name   string
		ifaces []Interface
		goos   string
		want   string
	}{
		{"linux wireless", ifaces, "linux", "192.168.1.20"},
		{"darwin en0", []Interface{{Name: "en0", Up: true, Addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("172.16.0.4")}}}}, "darwin", "172.16.0.4"},
		{"wired only", ifaces[:1], "linux", ""},
		{"none", nil, "linux", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickWifiAddress(tt.ifaces, tt.goos))
		})
	}
}

func TestLocal_WifiIPAddressListError(t *testing.T) {
	l := NewLocal(nil, nil, WithInterfaces(func() ([]Interface, error) { return nil, errors.New("denied") }))
	assert.Equal(t, "", l.WifiIPAddress(context.Background()))
}

func TestLocal_Clipboard(t *testing.T) {
	var got string
	l := NewLocal(nil, nil, WithClipboard(func(s string) error { got = s; return nil }))
	require.NoError(t, l.ClipboardWrite(context.Background(), "copied"))
	assert.Equal(t, "copied", got)

	failing := NewLocal(nil, nil, WithClipboard(func(string) error { return errors.New("no display") }))
	assert.ErrorContains(t, failing.ClipboardWrite(context.Background(), "x"), "no display")
}

func TestLocal_SpeakAndVibrate(t *testing.T) {
	l := NewLocal(nil, nil)
	assert.NoError(t, l.Speak(context.Background(), "hello"))
	assert.NoError(t, l.Vibrate(context.Background()))
}

type pipeConn struct{ net.Conn }

func (pipeConn) Close() error { return nil }

func TestProbeMonitor_EmitsInitialStateThenChanges(t *testing.T) {
	var online atomic.Bool
	dial := func(context.Context, string, string) (net.Conn, error) {
		if online.Load() {
			return pipeConn{}, nil
		}
		return nil, errors.New("unreachable")
	}
	m := NewProbeMonitor("probe:53", 10*time.Millisecond, nil, WithDialer(dial))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := m.Changes(ctx)

	assert.False(t, <-changes, "initial state is reported")
	online.Store(true)
	assert.True(t, <-changes)
	online.Store(false)
	assert.False(t, <-changes)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestProbeMonitor_SubscriptionsAreIndependent(t *testing.T) {
	var dials atomic.Int32
	dial := func(context.Context, string, string) (net.Conn, error) {
		dials.Add(1)
		return pipeConn{}, nil
	}
	m := NewProbeMonitor("", time.Hour, nil, WithDialer(dial))

	ctx1, cancel1 := context.WithCancel(context.Background())
	assert.True(t, <-m.Changes(ctx1))
	cancel1()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	assert.True(t, <-m.Changes(ctx2), "a new subscription restarts probing")
	assert.Equal(t, int32(2), dials.Load())
}

func TestProbeMonitor_RealDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	m := NewProbeMonitor(ln.Addr().String(), time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.True(t, <-m.Changes(ctx))
}
