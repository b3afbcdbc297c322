package runtime

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// Phase identifies which script of a shortcut is running
type Phase string

const (
	PhasePrepare Phase = "onPrepare"
	PhaseSuccess Phase = "onSuccess"
	PhaseFailure Phase = "onFailure"
)

// ShortcutInfo is the read-only view of the running shortcut
type ShortcutInfo struct {
	ID          string
	Name        string
	Description string
}

// ResponseInfo is the response as seen by onSuccess and onFailure
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       string
	Cookies    map[string]string
}

// Header returns the first value of a header, matched case-insensitively
func (r *ResponseInfo) Header(name string) string {
	return r.Headers.Get(name)
}

// HeaderMap flattens multi-value headers into comma separated values
func (r *ResponseInfo) HeaderMap() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		m[k] = strings.Join(v, ", ")
	}
	return m
}

// Context provides the scope bindings for one script invocation
type Context struct {
	Phase    Phase
	Shortcut ShortcutInfo

	// Response is bound only after an HTTP response was received
	Response *ResponseInfo
	// NetworkError is bound only in onFailure after a transport failure
	NetworkError *string

	aborted *atomic.Bool
}

// NewContext creates a context for a phase. The abort flag is shared by all
// phases of one run; nil allocates a private flag.
func NewContext(phase Phase, info ShortcutInfo, aborted *atomic.Bool) *Context {
	if aborted == nil {
		aborted = &atomic.Bool{}
	}
	return &Context{Phase: phase, Shortcut: info, aborted: aborted}
}

// WithResponse binds the response
func (c *Context) WithResponse(r *ResponseInfo) *Context {
	c.Response = r
	return c
}

// WithNetworkError binds the transport failure message
func (c *Context) WithNetworkError(message string) *Context {
	c.NetworkError = &message
	return c
}

// Abort marks the run as aborted; the current script still runs to completion
func (c *Context) Abort() {
	c.aborted.Store(true)
}

// Aborted reports whether abort() was called in this run
func (c *Context) Aborted() bool {
	return c.aborted.Load()
}
