package feedback

import "github.com/rocketship-ai/shortcuts/internal/shortcut"

// StatusRule maps a range of status codes to success or failure
type StatusRule struct {
	Min, Max int
	Success  bool
	// NoFollowOnly restricts the rule to shortcuts that do not follow redirects
	NoFollowOnly bool
}

// StatusPolicy decides whether a received response counts as success.
// The first matching rule wins; unmatched codes are failures.
type StatusPolicy []StatusRule

// DefaultStatusPolicy treats 2xx as success, and 3xx too when the shortcut
// asked to see redirects instead of following them
var DefaultStatusPolicy = StatusPolicy{
	{Min: 200, Max: 299, Success: true},
	{Min: 300, Max: 399, Success: true, NoFollowOnly: true},
	{Min: 100, Max: 199, Success: false},
	{Min: 300, Max: 399, Success: false},
	{Min: 400, Max: 599, Success: false},
}

// IsSuccess applies the policy to a status code
func (p StatusPolicy) IsSuccess(statusCode int, followRedirects bool) bool {
	for _, rule := range p {
		if statusCode < rule.Min || statusCode > rule.Max {
			continue
		}
		if rule.NoFollowOnly && followRedirects {
			continue
		}
		return rule.Success
	}
	return false
}

// Detail is how much of an outcome the presenter shows
type Detail int

const (
	DetailNone Detail = iota
	DetailSummary
	DetailFull
	DetailDebug
)

// DetailFor returns the display detail of a feedback mode
func DetailFor(mode shortcut.FeedbackMode) Detail {
	switch mode {
	case shortcut.FeedbackNone:
		return DetailNone
	case shortcut.FeedbackSimpleResponse, shortcut.FeedbackSimpleResponseErrors, shortcut.FeedbackErrorsOnly:
		return DetailSummary
	case shortcut.FeedbackDebug:
		return DetailDebug
	}
	return DetailFull
}

// Shows reports whether an event is surfaced under its feedback mode.
// Aborted runs are never shown; errors-only modes suppress successes.
func (e Event) Shows() bool {
	if e.Kind == KindAborted || DetailFor(e.Mode) == DetailNone {
		return false
	}
	if e.Kind == KindSuccess && (e.Mode == shortcut.FeedbackErrorsOnly || e.Mode == shortcut.FeedbackSimpleResponseErrors) {
		return false
	}
	return true
}
