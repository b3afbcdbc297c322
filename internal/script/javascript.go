package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/rocketship-ai/shortcuts/internal/script/runtime"
)

// DefaultMaxWait bounds a single wait() call
const DefaultMaxWait = 60 * time.Second

// JavaScriptExecutor runs shortcut scripts with the goja engine. Every call
// gets a fresh VM whose globals are limited to the host API and scope bindings.
type JavaScriptExecutor struct {
	maxWait time.Duration
	logger  *slog.Logger
}

// Option configures a JavaScriptExecutor
type Option func(*JavaScriptExecutor)

// WithMaxWait sets the upper bound for wait()
func WithMaxWait(d time.Duration) Option {
	return func(e *JavaScriptExecutor) {
		if d > 0 {
			e.maxWait = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *JavaScriptExecutor) { e.logger = l }
}

// NewJavaScriptExecutor creates a new JavaScript executor
func NewJavaScriptExecutor(opts ...Option) *JavaScriptExecutor {
	e := &JavaScriptExecutor{maxWait: DefaultMaxWait, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateScript performs static validation of JavaScript code
func (e *JavaScriptExecutor) ValidateScript(code string) error {
	if _, err := goja.Compile("validation", code, false); err != nil {
		return fmt.Errorf("javascript syntax error: %w", err)
	}
	return nil
}

// Execute runs code in a fresh VM. A thrown exception is returned as
// *ScriptError; cancellation of ctx interrupts the script and returns ctx.Err().
func (e *JavaScriptExecutor) Execute(ctx context.Context, code string, rtCtx *runtime.Context, host Host) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	vm := goja.New()
	if err := e.setupBuiltins(ctx, vm, rtCtx, host); err != nil {
		return fmt.Errorf("failed to setup built-ins: %w", err)
	}
	if err := e.setupRuntimeData(vm, rtCtx); err != nil {
		return fmt.Errorf("failed to setup runtime data: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("javascript panic: %v", r)
			}
		}()

		_, err := vm.RunString(code)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		vm.Interrupt(ctx.Err())
		<-done
		return ctx.Err()
	}

	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) && ctx.Err() != nil {
		return ctx.Err()
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &ScriptError{Phase: rtCtx.Phase, Message: exception.Error()}
	}
	return &ScriptError{Phase: rtCtx.Phase, Message: err.Error()}
}

// setupBuiltins injects the host API into the JavaScript runtime
func (e *JavaScriptExecutor) setupBuiltins(ctx context.Context, vm *goja.Runtime, rtCtx *runtime.Context, host Host) error {
	str := func(call goja.FunctionCall, i int) string {
		return stringify(vm, call.Argument(i))
	}

	builtins := map[string]func(goja.FunctionCall) goja.Value{
		"showToast": func(call goja.FunctionCall) goja.Value {
			host.ShowToast(ctx, str(call, 0))
			return goja.Undefined()
		},
		"showDialog": func(call goja.FunctionCall) goja.Value {
			host.ShowDialog(ctx, str(call, 1), str(call, 0))
			return goja.Undefined()
		},
		"prompt": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(host.Prompt(ctx, str(call, 0), str(call, 1)))
		},
		"confirm": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(host.Confirm(ctx, str(call, 0)))
		},
		"speak": func(call goja.FunctionCall) goja.Value {
			host.Speak(ctx, str(call, 0))
			return goja.Undefined()
		},
		"vibrate": func(call goja.FunctionCall) goja.Value {
			host.Vibrate(ctx)
			return goja.Undefined()
		},
		"wait": func(call goja.FunctionCall) goja.Value {
			host.Wait(ctx, e.clampWait(call.Argument(0).ToFloat()))
			return goja.Undefined()
		},
		"abort": func(call goja.FunctionCall) goja.Value {
			rtCtx.Abort()
			return goja.Undefined()
		},
		"getVariable": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(host.GetVariable(ctx, str(call, 0)))
		},
		"setVariable": func(call goja.FunctionCall) goja.Value {
			host.SetVariable(ctx, str(call, 0), str(call, 1))
			return goja.Undefined()
		},
		"triggerShortcut": func(call goja.FunctionCall) goja.Value {
			host.TriggerShortcut(ctx, str(call, 0))
			return goja.Undefined()
		},
		"renameShortcut": func(call goja.FunctionCall) goja.Value {
			host.RenameShortcut(ctx, str(call, 0), str(call, 1))
			return goja.Undefined()
		},
		"changeIcon": func(call goja.FunctionCall) goja.Value {
			host.ChangeIcon(ctx, str(call, 0), str(call, 1))
			return goja.Undefined()
		},
		"copyToClipboard": func(call goja.FunctionCall) goja.Value {
			host.CopyToClipboard(ctx, str(call, 0))
			return goja.Undefined()
		},
		"getWifiIPAddress": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(host.WifiIPAddress(ctx))
		},
	}
	for name, fn := range builtins {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}

	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = stringify(vm, arg)
		}
		e.logger.Debug("script console", "phase", rtCtx.Phase, "shortcut", rtCtx.Shortcut.Name, "message", strings.Join(parts, " "))
		return goja.Undefined()
	})
	return vm.Set("console", console)
}

// setupRuntimeData injects the scope bindings for the current phase
func (e *JavaScriptExecutor) setupRuntimeData(vm *goja.Runtime, rtCtx *runtime.Context) error {
	if err := vm.Set("HOST_API_VERSION", HostAPIVersion); err != nil {
		return err
	}

	shortcutObj := vm.NewObject()
	_ = shortcutObj.Set("id", rtCtx.Shortcut.ID)
	_ = shortcutObj.Set("name", rtCtx.Shortcut.Name)
	_ = shortcutObj.Set("description", rtCtx.Shortcut.Description)
	if err := vm.Set("shortcut", shortcutObj); err != nil {
		return err
	}

	if rtCtx.Response != nil {
		resp := rtCtx.Response
		respObj := vm.NewObject()
		_ = respObj.Set("body", resp.Body)
		_ = respObj.Set("statusCode", resp.StatusCode)
		_ = respObj.Set("headers", convertToGojaValue(vm, resp.HeaderMap()))
		_ = respObj.Set("cookies", convertToGojaValue(vm, resp.Cookies))
		_ = respObj.Set("getHeader", func(name string) goja.Value {
			if v := resp.Header(name); v != "" {
				return vm.ToValue(v)
			}
			return goja.Null()
		})
		_ = respObj.Set("getCookie", func(name string) goja.Value {
			if v, ok := resp.Cookies[name]; ok {
				return vm.ToValue(v)
			}
			return goja.Null()
		})
		if err := vm.Set("response", respObj); err != nil {
			return err
		}
	}

	if rtCtx.NetworkError != nil {
		if err := vm.Set("networkError", *rtCtx.NetworkError); err != nil {
			return err
		}
	}
	return nil
}

func (e *JavaScriptExecutor) clampWait(ms float64) time.Duration {
	if math.IsNaN(ms) || ms <= 0 {
		return 0
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if d > e.maxWait || d < 0 {
		return e.maxWait
	}
	return d
}

// convertToGojaValue converts string maps to plain JavaScript objects
func convertToGojaValue(vm *goja.Runtime, m map[string]string) goja.Value {
	obj := vm.NewObject()
	for key, val := range m {
		_ = obj.Set(key, val)
	}
	return obj
}

// stringify turns a script value into the string handed to the host:
// primitives use their JavaScript string form, objects are JSON encoded
func stringify(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if _, ok := v.(*goja.Object); !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(v); isFunc {
		return v.String()
	}
	stringifyFn, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return v.String()
	}
	out, err := stringifyFn(goja.Undefined(), v)
	if err != nil || goja.IsUndefined(out) {
		return v.String()
	}
	return out.String()
}
