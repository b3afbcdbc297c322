package feedback

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Kind is the outcome of a run
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
	KindAborted Kind = "aborted"
)

// ErrorKind classifies a failure
type ErrorKind string

const (
	ErrorConfig        ErrorKind = "config"
	ErrorTransport     ErrorKind = "transport"
	ErrorHTTPStatus    ErrorKind = "http_status"
	ErrorScript        ErrorKind = "script"
	ErrorAuthChallenge ErrorKind = "auth_challenge"
)

// ResponseSummary is the part of a response carried to the presenter
type ResponseSummary struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Truncated  bool
	Cookies    map[string]string
	Elapsed    time.Duration
}

// Event is the result of a run handed to the presenter
type Event struct {
	Kind       Kind
	ErrorKind  ErrorKind
	Message    string
	ShortcutID string
	Shortcut   string
	Mode       shortcut.FeedbackMode
	Response   *ResponseSummary
	// ScriptErrors lists errors from onSuccess/onFailure that did not change the outcome
	ScriptErrors []string
}

// Success creates a success event
func Success(resp *ResponseSummary) Event {
	return Event{Kind: KindSuccess, Response: resp}
}

// Failure creates a failure event
func Failure(kind ErrorKind, message string) Event {
	return Event{Kind: KindFailure, ErrorKind: kind, Message: message}
}

// Aborted creates an aborted event
func Aborted() Event {
	return Event{Kind: KindAborted}
}

func (e Event) String() string {
	switch e.Kind {
	case KindFailure:
		return fmt.Sprintf("failure(%s): %s", e.ErrorKind, e.Message)
	case KindSuccess:
		if e.Response != nil {
			return fmt.Sprintf("success: %d", e.Response.StatusCode)
		}
		return "success"
	}
	return string(e.Kind)
}

// HttpStatusError reports a response whose status the status policy treats
// as a failure. The response itself was received normally.
type HttpStatusError struct {
	StatusCode int
	Status     string
}

func (e *HttpStatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected response status %s", e.Status)
	}
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}
