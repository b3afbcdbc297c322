package dsl

import (
	"net/url"
	"regexp"
	"slices"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Pre-compiled regex patterns
var (
	placeholderRegex    = regexp.MustCompile(`\{\{([A-Za-z0-9_-]+)\}\}`)
	scriptVariableRegex = regexp.MustCompile(`/\*\[variable]\*/\s*"([^"]+)"\s*/\*\[/variable]\*/`)
)

// Placeholder returns the in-text marker referencing a variable id
func Placeholder(variableID string) string {
	return "{{" + variableID + "}}"
}

// Resolve substitutes every placeholder in text with the current value of the
// referenced variable. Unknown ids resolve to an empty string. Substituted
// values are never expanded again, and placeholder tokens left in the output
// are removed, so resolving already-resolved text is a no-op.
func Resolve(text string, vars *shortcut.Snapshot) string {
	if text == "" || !placeholderRegex.MatchString(text) {
		return text
	}

	resolved := placeholderRegex.ReplaceAllStringFunc(text, func(token string) string {
		id := placeholderRegex.FindStringSubmatch(token)[1]
		v, ok := vars.ByID(id)
		if !ok {
			return ""
		}
		if v.URLEncode {
			return url.QueryEscape(v.Value)
		}
		return v.Value
	})

	// values may carry tokens of their own, or join with surrounding text to form one
	for placeholderRegex.MatchString(resolved) {
		resolved = placeholderRegex.ReplaceAllString(resolved, "")
	}
	return resolved
}

// ResolveShortcut returns a copy of s with placeholders resolved in every
// field that can carry them. Scripts are left untouched; they read variables
// through the host API.
func ResolveShortcut(s *shortcut.Shortcut, vars *shortcut.Snapshot) *shortcut.Shortcut {
	r := s.Clone()
	r.URL = Resolve(r.URL, vars)
	r.Username = Resolve(r.Username, vars)
	r.Password = Resolve(r.Password, vars)
	r.AuthToken = Resolve(r.AuthToken, vars)
	r.BodyContent = Resolve(r.BodyContent, vars)
	r.FilePath = Resolve(r.FilePath, vars)
	r.ProxyHost = Resolve(r.ProxyHost, vars)
	for i := range r.Headers {
		r.Headers[i].Key = Resolve(r.Headers[i].Key, vars)
		r.Headers[i].Value = Resolve(r.Headers[i].Value, vars)
	}
	for i := range r.Parameters {
		r.Parameters[i].Key = Resolve(r.Parameters[i].Key, vars)
		r.Parameters[i].Value = Resolve(r.Parameters[i].Value, vars)
	}
	return r
}

// ReferencedVariableIDs lists the distinct variable ids a shortcut refers to,
// both as placeholders and as script variable markers, in first-seen order
func ReferencedVariableIDs(s *shortcut.Shortcut) []string {
	var ids []string
	add := func(id string) {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	fields := []string{s.URL, s.Username, s.Password, s.AuthToken, s.BodyContent, s.FilePath, s.ProxyHost}
	for _, h := range s.Headers {
		fields = append(fields, h.Key, h.Value)
	}
	for _, p := range s.Parameters {
		fields = append(fields, p.Key, p.Value)
	}
	for _, f := range fields {
		for _, m := range placeholderRegex.FindAllStringSubmatch(f, -1) {
			add(m[1])
		}
	}

	for _, code := range []string{s.CodeOnPrepare, s.CodeOnSuccess, s.CodeOnFailure} {
		for _, m := range scriptVariableRegex.FindAllStringSubmatch(code, -1) {
			add(m[1])
		}
	}
	return ids
}
