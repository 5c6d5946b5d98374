package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPreservesEmissionOrder(t *testing.T) {
	var s Set
	s.Add(Diagnostic{Code: UndefinedName, Severity: Error, Message: "first"})
	s.Add(Diagnostic{Code: CircularDependency, Severity: Warning, Message: "second"})

	all := s.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
}

func TestSetHasErrorsIgnoresWarningsAndNotes(t *testing.T) {
	var s Set
	s.Add(Diagnostic{Severity: Warning})
	s.Add(Diagnostic{Severity: Note})
	assert.False(t, s.HasErrors())

	s.Add(Diagnostic{Severity: Error})
	assert.True(t, s.HasErrors())
}

func TestSetSatisfiesSinkViaEmit(t *testing.T) {
	var s Set
	var sink Sink = &s
	sink.Emit(Diagnostic{Message: "via sink"})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "via sink", s.All()[0].Message)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "note", Note.String())
}
