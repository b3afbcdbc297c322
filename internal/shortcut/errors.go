package shortcut

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid      = errors.New("invalid shortcut")
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidProxy = errors.New("invalid proxy")
)

// ConfigError reports an invalid shortcut or variable definition
type ConfigError struct {
	Field  string
	Reason string
	Err    error // one of the sentinel errors above
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalid
	}
	return e.Err
}

// NewConfigError creates a ConfigError wrapping ErrInvalid
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason, Err: ErrInvalid}
}

// IsConfigError reports whether err is or wraps a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
