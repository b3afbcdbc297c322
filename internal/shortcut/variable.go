package shortcut

import (
	"slices"

	"github.com/google/uuid"
)

// VariableType selects how a variable's value is obtained at run time
type VariableType string

const (
	VariableConstant VariableType = "constant"
	VariableText     VariableType = "text"
	VariableNumber   VariableType = "number"
	VariablePassword VariableType = "password"
	VariableSelect   VariableType = "select"
	VariableToggle   VariableType = "toggle"
	VariableColor    VariableType = "color"
)

// Variable is a named, persisted value substitutable into shortcut fields and scripts
type Variable struct {
	ID            string       `json:"id" yaml:"id" validate:"required"`
	Key           string       `json:"key" yaml:"key" validate:"variable_key"`
	Value         string       `json:"value" yaml:"value"`
	Type          VariableType `json:"type,omitempty" yaml:"type,omitempty" validate:"oneof=constant text number password select toggle color"`
	Title         string       `json:"title,omitempty" yaml:"title,omitempty"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	RememberValue bool         `json:"remember_value,omitempty" yaml:"remember_value,omitempty"`
	URLEncode     bool         `json:"url_encode,omitempty" yaml:"url_encode,omitempty"`
}

// NewVariable creates a constant variable with a fresh id
func NewVariable(key, value string) Variable {
	return Variable{ID: uuid.NewString(), Key: key, Value: value, Type: VariableConstant}
}

// IsInteractive reports whether the value is asked from the user before a run
func (v Variable) IsInteractive() bool {
	return v.Type != "" && v.Type != VariableConstant
}

// Validate checks the variable definition
func (v Variable) Validate() error {
	if v.Type == "" {
		v.Type = VariableConstant
	}
	if err := validatorInstance().Struct(v); err != nil {
		return toConfigError(err)
	}
	if v.Type == VariableColor && v.Value != "" && !colorPattern.MatchString(v.Value) {
		return NewConfigError("value", "color must be 6 hex digits")
	}
	if v.Type == VariableSelect && len(v.Options) == 0 {
		return NewConfigError("options", "a select variable needs at least one option")
	}
	return nil
}

// Snapshot is an ordered view of the variable store at one point in time
type Snapshot struct {
	vars []Variable
}

// NewSnapshot copies vars into a snapshot
func NewSnapshot(vars []Variable) *Snapshot {
	return &Snapshot{vars: slices.Clone(vars)}
}

// All returns a copy of the variables in store order
func (s *Snapshot) All() []Variable {
	if s == nil {
		return nil
	}
	return slices.Clone(s.vars)
}

// ByID looks up a variable by id
func (s *Snapshot) ByID(id string) (Variable, bool) {
	if s == nil {
		return Variable{}, false
	}
	for _, v := range s.vars {
		if v.ID == id {
			return v, true
		}
	}
	return Variable{}, false
}

// Lookup finds a variable by id, falling back to its key
func (s *Snapshot) Lookup(idOrKey string) (Variable, bool) {
	if v, ok := s.ByID(idOrKey); ok {
		return v, true
	}
	if s == nil {
		return Variable{}, false
	}
	for _, v := range s.vars {
		if v.Key == idOrKey {
			return v, true
		}
	}
	return Variable{}, false
}

// WithValue returns a snapshot where the variable id carries value.
// Unknown ids leave the snapshot unchanged.
func (s *Snapshot) WithValue(id, value string) *Snapshot {
	next := NewSnapshot(s.All())
	for i := range next.vars {
		if next.vars[i].ID == id {
			next.vars[i].Value = value
		}
	}
	return next
}
