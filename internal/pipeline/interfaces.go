package pipeline

import (
	"context"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/feedback"
	"github.com/rocketship-ai/shortcuts/internal/interaction"
	"github.com/rocketship-ai/shortcuts/internal/retry"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Presenter shows messages and asks questions on behalf of a run. Methods
// taking a reply must settle it exactly once, from any goroutine; the engine
// stops waiting on timeout or cancellation and rejects the reply itself.
type Presenter interface {
	Toast(ctx context.Context, message string)
	Dialog(ctx context.Context, title, message string, dismissed *interaction.Reply[struct{}])
	Prompt(ctx context.Context, message, defaultValue string, reply *interaction.Reply[string])
	Confirm(ctx context.Context, message string, reply *interaction.Reply[bool])
	// AskVariable obtains the value of an interactive variable before a run
	AskVariable(ctx context.Context, v shortcut.Variable, reply *interaction.Reply[string])
	// Present displays the outcome of a run whose feedback mode shows it
	Present(ctx context.Context, event feedback.Event)
}

// Platform gives access to device facilities
type Platform interface {
	retry.Connectivity

	Speak(ctx context.Context, text string) error
	Vibrate(ctx context.Context) error
	ClipboardWrite(ctx context.Context, text string) error
	// WifiIPAddress returns "" when unavailable
	WifiIPAddress(ctx context.Context) string
}

// DefaultMaxTriggerDepth bounds chains of triggerShortcut calls
const DefaultMaxTriggerDepth = 5

// Config holds the engine settings resolved from configuration
type Config struct {
	// InteractionTimeout bounds every prompt, confirm and dialog; 0 waits indefinitely
	InteractionTimeout time.Duration
	RetryMinInterval   time.Duration
	// RetryMaxWait bounds how long a failed send keeps being retried; 0 retries until cancelled
	RetryMaxWait    time.Duration
	MaxTriggerDepth int
}
