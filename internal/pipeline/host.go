package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/interaction"
	"github.com/rocketship-ai/shortcuts/internal/script"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

var _ script.Host = (*runHost)(nil)

// runHost serves the script API for one run. Variable writes update the
// run's snapshot, so later phases and the request see them, and are persisted.
type runHost struct {
	engine   *Engine
	shortcut *shortcut.Shortcut
	depth    int
	logger   *slog.Logger

	mu   sync.Mutex
	vars *shortcut.Snapshot
}

func (h *runHost) snapshot() *shortcut.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.vars
}

func (h *runHost) ShowToast(ctx context.Context, message string) {
	h.engine.presenter.Toast(ctx, message)
}

func (h *runHost) ShowDialog(ctx context.Context, title, message string) {
	dismissed := interaction.NewReply[struct{}]()
	h.engine.presenter.Dialog(ctx, title, message, dismissed)
	_, _ = dismissed.Await(ctx, h.engine.cfg.InteractionTimeout)
}

func (h *runHost) Prompt(ctx context.Context, message, defaultValue string) string {
	reply := interaction.NewReply[string]()
	h.engine.presenter.Prompt(ctx, message, defaultValue, reply)
	return reply.ValueOrZero(ctx, h.engine.cfg.InteractionTimeout)
}

func (h *runHost) Confirm(ctx context.Context, message string) bool {
	reply := interaction.NewReply[bool]()
	h.engine.presenter.Confirm(ctx, message, reply)
	return reply.ValueOrZero(ctx, h.engine.cfg.InteractionTimeout)
}

func (h *runHost) Speak(ctx context.Context, text string) {
	if h.engine.platform == nil {
		return
	}
	if err := h.engine.platform.Speak(ctx, text); err != nil {
		h.logger.Warn("speak failed", "error", err)
	}
}

func (h *runHost) Vibrate(ctx context.Context) {
	if h.engine.platform == nil {
		return
	}
	if err := h.engine.platform.Vibrate(ctx); err != nil {
		h.logger.Warn("vibrate failed", "error", err)
	}
}

func (h *runHost) Wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (h *runHost) GetVariable(_ context.Context, idOrKey string) string {
	v, ok := h.snapshot().Lookup(idOrKey)
	if !ok {
		return ""
	}
	return v.Value
}

func (h *runHost) SetVariable(ctx context.Context, idOrKey, value string) {
	h.mu.Lock()
	v, ok := h.vars.Lookup(idOrKey)
	if ok {
		h.vars = h.vars.WithValue(v.ID, value)
	}
	h.mu.Unlock()

	if !ok {
		h.logger.Debug("setVariable ignored for unknown variable", "variable", idOrKey)
		return
	}
	if err := h.engine.store.SetVariableValue(ctx, v.ID, value); err != nil {
		h.logger.Warn("failed to persist variable", "variable", v.Key, "error", err)
	}
}

// TriggerShortcut starts a nested run on its own goroutine. The nested run
// shares ctx with the run that triggered it and is bounded in depth.
func (h *runHost) TriggerShortcut(ctx context.Context, idOrName string) {
	next := h.depth + 1
	if next > h.engine.cfg.MaxTriggerDepth {
		h.logger.Warn("trigger depth exceeded", "target", idOrName, "max_depth", h.engine.cfg.MaxTriggerDepth)
		return
	}

	h.engine.nested.Add(1)
	go func() {
		defer h.engine.nested.Done()
		h.engine.run(ctx, idOrName, next)
	}()
}

func (h *runHost) RenameShortcut(ctx context.Context, id, name string) {
	h.updateShortcut(ctx, id, func(s *shortcut.Shortcut) { s.Name = name })
}

func (h *runHost) ChangeIcon(ctx context.Context, id, icon string) {
	h.updateShortcut(ctx, id, func(s *shortcut.Shortcut) { s.IconName = icon })
}

func (h *runHost) updateShortcut(ctx context.Context, idOrName string, update func(*shortcut.Shortcut)) {
	if idOrName == "" {
		idOrName = h.shortcut.ID
	}
	target, err := h.engine.store.FindShortcut(ctx, idOrName)
	if err != nil {
		h.logger.Warn("shortcut to update not found", "target", idOrName, "error", err)
		return
	}
	update(target)
	if err := h.engine.store.SaveShortcut(ctx, target); err != nil {
		h.logger.Warn("failed to update shortcut", "target", idOrName, "error", err)
	}
}

func (h *runHost) CopyToClipboard(ctx context.Context, text string) {
	if h.engine.platform == nil {
		return
	}
	if err := h.engine.platform.ClipboardWrite(ctx, text); err != nil {
		h.logger.Warn("copy to clipboard failed", "error", err)
	}
}

func (h *runHost) WifiIPAddress(ctx context.Context) string {
	if h.engine.platform == nil {
		return ""
	}
	return h.engine.platform.WifiIPAddress(ctx)
}
