package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
)

func TestFlagPropagation(t *testing.T) {
	v := NewVariable(1, 0)
	assert.True(t, v.HasVariable())

	tup := NewTuple(v, Any)
	assert.True(t, tup.HasVariable(), "tuple containing a variable must propagate hasVariable")

	noVar := NewTuple(Any, Never)
	assert.False(t, noVar.HasVariable())
}

func TestVariableIDRoundTrip(t *testing.T) {
	v := NewVariable(12345, 7)
	id, ctx := v.VariableID()
	assert.Equal(t, uint64(12345), id)
	assert.Equal(t, uint8(7), ctx)
}

func TestEqualNominal(t *testing.T) {
	a := NewNominal(NominalProduct, 1, "Box")
	b := NewNominal(NominalProduct, 1, "Box")
	c := NewNominal(NominalProduct, 2, "Box")
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestEqualBoundGenericOrderIndependentOfMapIteration(t *testing.T) {
	base := NewNominal(NominalProduct, 1, "Box")
	am1 := NewArgMap()
	am1.BindType(10, NewNominal(NominalProduct, 2, "Int"))
	am2 := NewArgMap()
	am2.BindType(10, NewNominal(NominalProduct, 2, "Int"))

	bg1 := NewBoundGeneric(base, am1)
	bg2 := NewBoundGeneric(base, am2)
	assert.True(t, Equal(bg1, bg2))
}

func TestTransformRebuildsStructure(t *testing.T) {
	v := NewVariable(1, 0)
	tup := NewTuple(v, Any)
	resolved := Transform(tup, func(x *Type) *Type {
		if x.Kind() == KindVariable {
			return NewNominal(NominalProduct, 3, "Int")
		}
		return x
	})
	assert.False(t, resolved.HasVariable())
	assert.Equal(t, "Int", resolved.Elements()[0].Name())
}

func TestSpecializeSubstitutesGenericParameter(t *testing.T) {
	param := NewGenericParameter(5, "T", nil)
	lambda := NewLambda(&Callable{
		Inputs: []Param{{Label: "x", Type: param}},
		Output: param,
	})
	sub := map[uint64]*Type{5: NewNominal(NominalProduct, 1, "Int")}
	specialized := Specialize(lambda, sub)
	assert.Equal(t, "Int", specialized.Callable().Output.Name())
	assert.Equal(t, "Int", specialized.Callable().Inputs[0].Type.Name())
}

func TestComposeSubstitutionsLaw(t *testing.T) {
	// specialize(specialize(t, a), b) == specialize(t, a ∘ b)
	t1 := NewGenericParameter(1, "T", nil)
	a := map[uint64]*Type{1: NewGenericParameter(2, "U", nil)}
	b := map[uint64]*Type{2: NewNominal(NominalProduct, 9, "Int")}

	viaChain := Specialize(Specialize(t1, a), b)
	composed := ComposeSubstitutions(a, b)
	viaCompose := Specialize(t1, composed)
	assert.True(t, Equal(viaChain, viaCompose))
}

func TestCanonicalIdempotent(t *testing.T) {
	resolveAlias := func(declID uint64) (*Type, bool) { return nil, false }
	base := NewTuple(Any, Never)
	once := Canonical(base, resolveAlias)
	twice := Canonical(once, resolveAlias)
	assert.True(t, Equal(once, twice))
	assert.True(t, twice.IsCanonical())
}

func TestCanonicalExpandsAlias(t *testing.T) {
	target := NewNominal(NominalProduct, 2, "Int")
	alias := NewNominal(NominalAlias, 1, "MyInt")
	resolved := Canonical(alias, func(declID uint64) (*Type, bool) {
		if declID == 1 {
			return target, true
		}
		return nil, false
	})
	assert.True(t, Equal(resolved, target))
}

func TestRemoteEffectString(t *testing.T) {
	r := NewRemote(ast.EffectInout, NewNominal(NominalProduct, 1, "Int"))
	assert.Equal(t, "inout Int", r.String())
}
