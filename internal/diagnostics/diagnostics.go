package diagnostics

import "github.com/vela-lang/velac/internal/ast"

// Severity classifies a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "error"
	}
}

// Diagnostic is a structured record, never a formatted string. A renderer
// (cmd/velac) turns these into text; the checker itself never formats.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Site     ast.Span
	Message  string // a short, renderer-agnostic description, not a full sentence with positions baked in
	Notes    []DiagnosticNote
}

// DiagnosticNote attaches secondary context to a Diagnostic, e.g. "candidate
// declared here" pointing at a second site.
type DiagnosticNote struct {
	Site    ast.Span
	Message string
}

// Set collects diagnostics in emission order. Emission order is part of the
// determinism contract (§5): two checks of the same AST must report
// diagnostics in the same order.
type Set struct {
	items []Diagnostic
}

// Add appends d to the set.
func (s *Set) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

// Errorf-free by design: callers build a Diagnostic value and pass it to Add
// rather than formatting here.

// All returns the diagnostics in emission order.
func (s *Set) All() []Diagnostic {
	return s.items
}

// HasErrors reports whether any diagnostic in the set has Severity Error.
func (s *Set) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics recorded.
func (s *Set) Len() int { return len(s.items) }

// Sink receives diagnostics as the checker produces them. The checker's core
// only ever writes to a Sink; it never decides how a diagnostic is rendered.
// cmd/velac implements Sink with a colored terminal renderer; tests
// implement it with a Set.
type Sink interface {
	Emit(Diagnostic)
}

// Emit adapts a Set to the Sink interface so checker code can be written
// against Sink uniformly while tests inspect the underlying Set afterward.
func (s *Set) Emit(d Diagnostic) { s.Add(d) }
