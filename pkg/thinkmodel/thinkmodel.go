// Package thinkmodel loads thinking-model definitions from tag-delimited
// text files into an in-memory library. A thinking model is a named
// problem-solving heuristic with a definition and illustrative examples.
package thinkmodel

import "fmt"

// Kind classifies what a thinking model is for.
type Kind string

const (
	// KindSolve marks models that guide solving a problem.
	KindSolve Kind = "solve"
	// KindExplain marks models that guide explaining a concept.
	KindExplain Kind = "explain"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSolve, KindExplain:
		return true
	}
	return false
}

// String returns the underlying string value of the kind.
func (k Kind) String() string {
	return string(k)
}

// UniversalField is the wildcard field value marking a model as applicable
// across domains.
const UniversalField = "*"

// Model is an immutable thinking-model record parsed from a single file.
type Model struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"type"`
	Field      string   `json:"field"`
	Definition string   `json:"definition"`
	Examples   []string `json:"examples,omitempty"`
}

// Universal reports whether the model applies across domains.
func (m Model) Universal() bool {
	return m.Field == UniversalField
}

// validate checks that all required fields are present and the kind is known.
// The returned error names the first missing or invalid field.
func (m Model) validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("missing required field %q", "id")
	case m.Kind == "":
		return fmt.Errorf("missing required field %q", "type")
	case m.Field == "":
		return fmt.Errorf("missing required field %q", "field")
	case m.Definition == "":
		return fmt.Errorf("missing required field %q", "define")
	case !m.Kind.Valid():
		return fmt.Errorf("invalid type %q: must be %q or %q", m.Kind, KindSolve, KindExplain)
	}
	return nil
}

// ParseError describes a model file that could not be parsed or validated.
// It is file-scoped: a directory load skips the offending file and keeps going.
type ParseError struct {
	Path string // Source file.
	Err  error  // What was missing or invalid.
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("thinkmodel: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
