package properties

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/types"
)

func TestDeclRequestDefaultsUnseen(t *testing.T) {
	s := New()
	assert.Equal(t, Unseen, s.RequestState(ast.NodeID(1)))
}

func TestDeclTypeRoundTrip(t *testing.T) {
	s := New()
	id := ast.NodeID(1)
	s.SetRequestState(id, Realizing)
	s.SetDeclType(id, types.Any)
	got, ok := s.DeclType(id)
	assert.True(t, ok)
	assert.Equal(t, types.Any, got)
	assert.Equal(t, Realizing, s.RequestState(id))
}

func TestSynthesizedDeclsPreserveInsertionOrder(t *testing.T) {
	s := New()
	m1, m2 := ast.NodeID(1), ast.NodeID(2)
	s.AppendSynthesized(m2, SynthesizedDecl{Kind: "destroy"})
	s.AppendSynthesized(m1, SynthesizedDecl{Kind: "move-initialize"})
	s.AppendSynthesized(m2, SynthesizedDecl{Kind: "move-assign"})

	assert.Equal(t, []ast.NodeID{m2, m1}, s.SynthesizedModules())
	assert.Len(t, s.SynthesizedFor(m2), 2)
	assert.Len(t, s.SynthesizedFor(m1), 1)
}

func TestImplicitCapturesStored(t *testing.T) {
	s := New()
	d := ast.NodeID(1)
	caps := []Capture{{Name: "x", Effect: ast.EffectInout}}
	s.SetImplicitCaptures(d, caps)
	assert.Equal(t, caps, s.ImplicitCaptures(d))
}
