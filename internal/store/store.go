package store

import (
	"context"
	"errors"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// ErrNotFound is returned when a shortcut or variable does not exist
var ErrNotFound = errors.New("not found")

// Store persists shortcuts and variables. Implementations allow concurrent
// reads; writes are serialized.
type Store interface {
	GetShortcut(ctx context.Context, id string) (*shortcut.Shortcut, error)
	// FindShortcut looks up by id first, then by exact name
	FindShortcut(ctx context.Context, idOrName string) (*shortcut.Shortcut, error)
	ListShortcuts(ctx context.Context) ([]*shortcut.Shortcut, error)
	// SaveShortcut validates and inserts or replaces a shortcut
	SaveShortcut(ctx context.Context, s *shortcut.Shortcut) error
	DeleteShortcut(ctx context.Context, id string) error

	// Variables returns a snapshot of every variable in store order
	Variables(ctx context.Context) (*shortcut.Snapshot, error)
	SaveVariable(ctx context.Context, v shortcut.Variable) error
	SetVariableValue(ctx context.Context, id, value string) error
	DeleteVariable(ctx context.Context, id string) error

	Close() error
}

func checkSavable(s *shortcut.Shortcut) error {
	if s == nil {
		return shortcut.NewConfigError("shortcut", "is nil")
	}
	if s.ID == shortcut.TemporaryID {
		return shortcut.NewConfigError("id", "temporary shortcuts cannot be saved")
	}
	return s.Validate()
}
