package script

import (
	"context"
	"time"
)

// HostAPIVersion identifies the set of functions scripts can call. Functions
// are only ever added under a new version; existing signatures never change.
const HostAPIVersion = 1

// Host is the only channel from a script to the outside world. Every method
// is called on the goroutine running the script and may block; blocking
// calls must return promptly once ctx is done.
type Host interface {
	// ShowToast shows a transient message
	ShowToast(ctx context.Context, message string)
	// ShowDialog shows a message and waits until it is dismissed
	ShowDialog(ctx context.Context, title, message string)
	// Prompt asks for text; "" on timeout or cancel
	Prompt(ctx context.Context, message, defaultValue string) string
	// Confirm asks a yes/no question; false on timeout or cancel
	Confirm(ctx context.Context, message string) bool

	Speak(ctx context.Context, text string)
	Vibrate(ctx context.Context)

	// Wait suspends the calling script, not the process
	Wait(ctx context.Context, d time.Duration)

	// GetVariable returns "" for unknown variables
	GetVariable(ctx context.Context, idOrKey string) string
	// SetVariable is a no-op for unknown variables
	SetVariable(ctx context.Context, idOrKey, value string)

	// TriggerShortcut schedules a nested run of another shortcut
	TriggerShortcut(ctx context.Context, idOrName string)
	// RenameShortcut and ChangeIcon target the current shortcut when id is ""
	RenameShortcut(ctx context.Context, id, name string)
	ChangeIcon(ctx context.Context, id, icon string)

	CopyToClipboard(ctx context.Context, text string)
	// WifiIPAddress returns "" when unavailable
	WifiIPAddress(ctx context.Context) string
}
