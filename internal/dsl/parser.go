package dsl

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// FileVersion is the current version of the shortcuts file format
const FileVersion = 1

// File is the import/export document holding shortcuts and variables
type File struct {
	Version   int                 `json:"version" yaml:"version"`
	Shortcuts []*shortcut.Shortcut `json:"shortcuts" yaml:"shortcuts"`
	Variables []shortcut.Variable  `json:"variables,omitempty" yaml:"variables,omitempty"`
}

type rawFile struct {
	Version   int         `yaml:"version"`
	Shortcuts []yaml.Node `yaml:"shortcuts"`
	Variables []yaml.Node `yaml:"variables"`
}

// ParseYAML validates a shortcuts file against the schema and decodes it.
// Omitted fields take the same defaults as a newly created shortcut.
func ParseYAML(yamlPayload []byte) (*File, error) {
	if err := ValidateYAMLWithSchema(yamlPayload); err != nil {
		return nil, err
	}

	var raw rawFile
	if err := yaml.Unmarshal(yamlPayload, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if raw.Version != FileVersion {
		return nil, fmt.Errorf("unsupported version: %d", raw.Version)
	}

	file := &File{Version: raw.Version}
	for i := range raw.Shortcuts {
		s := shortcut.New("")
		s.ID = ""
		if err := raw.Shortcuts[i].Decode(s); err != nil {
			return nil, fmt.Errorf("shortcut %d: %w", i, err)
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.ApplyDefaults()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("shortcut %q: %w", s.Name, err)
		}
		file.Shortcuts = append(file.Shortcuts, s)
	}

	for i := range raw.Variables {
		var v shortcut.Variable
		if err := raw.Variables[i].Decode(&v); err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.Type == "" {
			v.Type = shortcut.VariableConstant
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Key, err)
		}
		file.Variables = append(file.Variables, v)
	}

	if err := checkUnique(file); err != nil {
		return nil, err
	}
	return file, nil
}

func checkUnique(file *File) error {
	ids := map[string]bool{}
	for _, s := range file.Shortcuts {
		if ids[s.ID] {
			return fmt.Errorf("duplicate shortcut id %q", s.ID)
		}
		ids[s.ID] = true
	}
	keys := map[string]bool{}
	for _, v := range file.Variables {
		if keys[v.Key] {
			return fmt.Errorf("duplicate variable key %q", v.Key)
		}
		keys[v.Key] = true
	}
	return nil
}

// MarshalYAML encodes shortcuts and variables as a shortcuts file
func MarshalYAML(shortcuts []*shortcut.Shortcut, variables []shortcut.Variable) ([]byte, error) {
	file := File{Version: FileVersion, Shortcuts: shortcuts, Variables: variables}
	if file.Shortcuts == nil {
		file.Shortcuts = []*shortcut.Shortcut{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalShortcutYAML encodes a single shortcut, used for diffs
func MarshalShortcutYAML(s *shortcut.Shortcut) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shortcut: %w", err)
	}
	return string(out), nil
}
