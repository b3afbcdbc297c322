package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Local exposes the device facilities available to a terminal process.
// Speech and vibration have no terminal equivalent and are only logged.
type Local struct {
	*ProbeMonitor

	logger         *slog.Logger
	writeClipboard func(string) error
	interfaces     func() ([]Interface, error)
}

// LocalOption configures Local
type LocalOption func(*Local)

// WithClipboard replaces the system clipboard writer
func WithClipboard(write func(string) error) LocalOption {
	return func(l *Local) { l.writeClipboard = write }
}

// WithInterfaces replaces network interface discovery
func WithInterfaces(list func() ([]Interface, error)) LocalOption {
	return func(l *Local) { l.interfaces = list }
}

// NewLocal creates the terminal platform with its connectivity monitor
func NewLocal(monitor *ProbeMonitor, logger *slog.Logger, opts ...LocalOption) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Local{
		ProbeMonitor:   monitor,
		logger:         logger,
		writeClipboard: clipboard.WriteAll,
		interfaces:     SystemInterfaces,
	}
	if clipboard.Unsupported {
		l.writeClipboard = func(string) error {
			return fmt.Errorf("clipboard is not supported on %s", runtime.GOOS)
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Speak(_ context.Context, text string) error {
	l.logger.Debug("speak", "text", text)
	return nil
}

func (l *Local) Vibrate(context.Context) error {
	l.logger.Debug("vibrate")
	return nil
}

func (l *Local) ClipboardWrite(_ context.Context, text string) error {
	if err := l.writeClipboard(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// WifiIPAddress returns the IPv4 address of the first wireless interface
// that is up, or "" when there is none
func (l *Local) WifiIPAddress(context.Context) string {
	ifaces, err := l.interfaces()
	if err != nil {
		l.logger.Debug("failed to list network interfaces", "error", err)
		return ""
	}
	return pickWifiAddress(ifaces, runtime.GOOS)
}

// Interface is the part of a network interface used for address lookup
type Interface struct {
	Name  string
	Up    bool
	Addrs []net.Addr
}

// SystemInterfaces lists the host's network interfaces
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{Name: iface.Name, Up: iface.Flags&net.FlagUp != 0, Addrs: addrs})
	}
	return out, nil
}

func isWireless(name, goos string) bool {
	if goos == "darwin" {
		return name == "en0"
	}
	return strings.HasPrefix(name, "wl") || strings.HasPrefix(name, "wifi") || strings.HasPrefix(name, "Wi-Fi")
}

func pickWifiAddress(ifaces []Interface, goos string) string {
	for _, iface := range ifaces {
		if !iface.Up || !isWireless(iface.Name, goos) {
			continue
		}
		for _, addr := range iface.Addrs {
			var ip net.IP
			switch a := addr.(type) {
			case *net.IPNet:
				ip = a.IP
			case *net.IPAddr:
				ip = a.IP
			}
			if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() {
				return v4.String()
			}
		}
	}
	return ""
}
