package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/auth"
	"github.com/rocketship-ai/shortcuts/internal/dsl"
	"github.com/rocketship-ai/shortcuts/internal/feedback"
	"github.com/rocketship-ai/shortcuts/internal/interaction"
	"github.com/rocketship-ai/shortcuts/internal/request"
	"github.com/rocketship-ai/shortcuts/internal/retry"
	"github.com/rocketship-ai/shortcuts/internal/script"
	"github.com/rocketship-ai/shortcuts/internal/script/runtime"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
	"github.com/rocketship-ai/shortcuts/internal/store"
)

// Engine runs shortcuts end to end: variables, scripts, the request and
// the feedback event. It is safe for concurrent use.
type Engine struct {
	store     store.Store
	presenter Presenter
	platform  Platform
	executor  *script.JavaScriptExecutor
	client    *request.Client
	policy    feedback.StatusPolicy
	cfg       Config
	logger    *slog.Logger

	nested sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

func WithExecutor(x *script.JavaScriptExecutor) Option {
	return func(e *Engine) { e.executor = x }
}

func WithClient(c *request.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithStatusPolicy replaces the default status classification
func WithStatusPolicy(p feedback.StatusPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine
func New(st store.Store, presenter Presenter, platform Platform, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		presenter: presenter,
		platform:  platform,
		policy:    feedback.DefaultStatusPolicy,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = script.NewJavaScriptExecutor(script.WithLogger(e.logger))
	}
	if e.client == nil {
		e.client = request.NewClient(request.WithLogger(e.logger))
	}
	if e.cfg.MaxTriggerDepth <= 0 {
		e.cfg.MaxTriggerDepth = DefaultMaxTriggerDepth
	}
	return e
}

// Run executes the shortcut with the given id or name and returns its
// outcome. The event is handed to the presenter when the shortcut's
// feedback mode shows it.
func (e *Engine) Run(ctx context.Context, idOrName string) feedback.Event {
	return e.run(ctx, idOrName, 0)
}

// Wait blocks until every shortcut started by triggerShortcut has finished
func (e *Engine) Wait() {
	e.nested.Wait()
}

func (e *Engine) run(ctx context.Context, idOrName string, depth int) feedback.Event {
	sc, err := e.store.FindShortcut(ctx, idOrName)
	if err != nil {
		event := feedback.Failure(feedback.ErrorConfig, err.Error())
		event.Mode = shortcut.FeedbackFullResponse
		e.logger.Error("failed to load shortcut", "shortcut", idOrName, "error", err)
		e.presenter.Present(ctx, event)
		return event
	}

	logger := e.logger.With("shortcut", sc.Name, "id", sc.ID, "depth", depth)
	logger.Info("running shortcut")
	start := time.Now()

	event := e.execute(ctx, sc, depth, logger)
	event.ShortcutID = sc.ID
	event.Shortcut = sc.Name
	event.Mode = sc.Feedback

	logger.Info("shortcut finished", "outcome", event.String(), "elapsed", time.Since(start))
	if event.Shows() {
		e.presenter.Present(ctx, event)
	}
	return event
}

func (e *Engine) execute(ctx context.Context, sc *shortcut.Shortcut, depth int, logger *slog.Logger) feedback.Event {
	if err := sc.Validate(); err != nil {
		return feedback.Failure(feedback.ErrorConfig, err.Error())
	}
	vars, err := e.store.Variables(ctx)
	if err != nil {
		return feedback.Failure(feedback.ErrorConfig, fmt.Sprintf("failed to load variables: %v", err))
	}

	if sc.RequireConfirmation {
		reply := interaction.NewReply[bool]()
		e.presenter.Confirm(ctx, fmt.Sprintf("Execute %q?", sc.Name), reply)
		if !reply.ValueOrZero(ctx, e.cfg.InteractionTimeout) {
			logger.Info("run declined")
			return feedback.Aborted()
		}
	}

	vars, ok := e.askVariables(ctx, sc, vars, logger)
	if !ok {
		return feedback.Aborted()
	}

	aborted := &atomic.Bool{}
	host := &runHost{engine: e, shortcut: sc, vars: vars, depth: depth, logger: logger}
	info := runtime.ShortcutInfo{ID: sc.ID, Name: sc.Name, Description: sc.Description}

	prepare := runtime.NewContext(runtime.PhasePrepare, info, aborted)
	if err := e.executor.Execute(ctx, sc.CodeOnPrepare, prepare, host); err != nil {
		if ctx.Err() != nil {
			return feedback.Aborted()
		}
		return feedback.Failure(feedback.ErrorScript, err.Error())
	}
	if aborted.Load() {
		logger.Info("aborted by script", "phase", runtime.PhasePrepare)
		return feedback.Aborted()
	}

	if sc.IsScriptOnly() {
		return feedback.Success(nil)
	}

	resolved := dsl.ResolveShortcut(sc, host.snapshot())
	desc, err := request.Build(resolved)
	if err != nil {
		return feedback.Failure(feedback.ErrorConfig, err.Error())
	}

	resp, sendErr := e.send(ctx, sc, desc, logger)
	if sendErr != nil && ctx.Err() != nil {
		return feedback.Aborted()
	}

	var (
		event feedback.Event
		phase = runtime.PhaseSuccess
		code  = sc.CodeOnSuccess
		rtCtx *runtime.Context
	)
	switch {
	case sendErr == nil && e.policy.IsSuccess(resp.StatusCode, desc.FollowsRedirects()):
		event = feedback.Success(summarize(resp))
		rtCtx = runtime.NewContext(phase, info, aborted).WithResponse(responseInfo(resp))
	case sendErr == nil:
		status := &feedback.HttpStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		event = feedback.Failure(feedback.ErrorHTTPStatus, status.Error())
		event.Response = summarize(resp)
		phase, code = runtime.PhaseFailure, sc.CodeOnFailure
		rtCtx = runtime.NewContext(phase, info, aborted).WithResponse(responseInfo(resp))
	case shortcut.IsConfigError(sendErr):
		return feedback.Failure(feedback.ErrorConfig, sendErr.Error())
	default:
		kind := feedback.ErrorTransport
		var challenge *auth.AuthChallengeError
		if errors.As(sendErr, &challenge) {
			kind = feedback.ErrorAuthChallenge
		}
		event = feedback.Failure(kind, sendErr.Error())
		phase, code = runtime.PhaseFailure, sc.CodeOnFailure
		rtCtx = runtime.NewContext(phase, info, aborted).WithNetworkError(sendErr.Error())
	}

	if err := e.executor.Execute(ctx, code, rtCtx, host); err != nil {
		if ctx.Err() != nil {
			return feedback.Aborted()
		}
		logger.Warn("script failed", "phase", phase, "error", err)
		e.presenter.Toast(ctx, err.Error())
		event.ScriptErrors = append(event.ScriptErrors, err.Error())
	}
	if aborted.Load() {
		logger.Info("aborted by script", "phase", phase)
		return feedback.Aborted()
	}
	return event
}

// askVariables obtains values for the interactive variables the shortcut
// references. It reports false when the user dismissed a prompt.
func (e *Engine) askVariables(ctx context.Context, sc *shortcut.Shortcut, vars *shortcut.Snapshot, logger *slog.Logger) (*shortcut.Snapshot, bool) {
	for _, id := range dsl.ReferencedVariableIDs(sc) {
		v, ok := vars.ByID(id)
		if !ok || !v.IsInteractive() {
			continue
		}

		reply := interaction.NewReply[string]()
		e.presenter.AskVariable(ctx, v, reply)
		value, err := reply.Await(ctx, e.cfg.InteractionTimeout)
		if err != nil {
			logger.Info("variable prompt dismissed", "variable", v.Key, "reason", err)
			return vars, false
		}

		vars = vars.WithValue(v.ID, value)
		if v.RememberValue {
			if err := e.store.SetVariableValue(ctx, v.ID, value); err != nil {
				logger.Warn("failed to remember variable value", "variable", v.Key, "error", err)
			}
		}
	}
	return vars, true
}

func (e *Engine) send(ctx context.Context, sc *shortcut.Shortcut, desc *request.Descriptor, logger *slog.Logger) (*request.Response, error) {
	policy := retry.PolicyNone
	if sc.IsWaitForNetwork() {
		policy = retry.PolicyWaitForConnectivity
	}
	var connectivity retry.Connectivity
	if e.platform != nil {
		connectivity = e.platform
	}

	coordinator := retry.New(retry.Config{
		Policy:       policy,
		Delay:        time.Duration(sc.Delay) * time.Millisecond,
		MaxWait:      e.cfg.RetryMaxWait,
		MinInterval:  e.cfg.RetryMinInterval,
		Retryable:    retryable,
		Connectivity: connectivity,
		Logger:       logger,
	})

	var resp *request.Response
	err := coordinator.Run(ctx, func(ctx context.Context) error {
		r, err := e.client.Do(ctx, desc)
		if err != nil {
			logger.Debug("request failed", "attempt", coordinator.Attempts(), "error", err)
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

// retryable reports failures that regained connectivity may fix.
// Certificate problems persist across networks.
func retryable(err error) bool {
	var te *request.TransportError
	return errors.As(err, &te) && te.Op != "tls"
}

func summarize(resp *request.Response) *feedback.ResponseSummary {
	return &feedback.ResponseSummary{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       resp.Body,
		Truncated:  resp.Truncated,
		Cookies:    resp.CookieMap(),
		Elapsed:    resp.Elapsed,
	}
}

func responseInfo(resp *request.Response) *runtime.ResponseInfo {
	return &runtime.ResponseInfo{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(resp.Body),
		Cookies:    resp.CookieMap(),
	}
}
