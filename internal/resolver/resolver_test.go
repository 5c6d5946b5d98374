package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

type stubMembers struct {
	own  map[string][]ast.Decl
	exts []*ast.ExtensionDecl
}

func (m stubMembers) OwnMembers(t *types.Type) []ast.Decl { return m.own[t.String()] }
func (m stubMembers) ExtensionsOf(t *types.Type, useScope scope.ID) []*ast.ExtensionDecl {
	return m.exts
}
func (m stubMembers) InheritedRequirements(t *types.Type) []ast.Decl { return nil }

type stubRealizer struct {
	byDecl map[ast.NodeID]*types.Type
}

func (r stubRealizer) RealizeTypeExpr(useScope scope.ID, te ast.TypeExpr) *types.Type {
	return types.Error
}
func (r stubRealizer) RealizeDecl(d ast.NodeID) *types.Type {
	if t, ok := r.byDecl[d]; ok {
		return t
	}
	return types.Error
}

type stubVars struct{ next uint64 }

func (v *stubVars) Fresh(ctx uint8) *types.Type {
	v.next++
	return types.NewVariable(v.next, ctx)
}

func TestUnqualifiedLookupFindsScopeChainDeclaration(t *testing.T) {
	tree := scope.New()
	outer := scope.ID(1)
	inner := scope.ID(2)
	tree.AddScope(outer, 0, false, "m.vela", nil)
	tree.AddScope(inner, outer, true, "m.vela", nil)

	box := &ast.ProductDecl{Name: "Box"}
	box.NID = 1
	tree.Declare(outer, box)

	realizer := stubRealizer{byDecl: map[ast.NodeID]*types.Type{
		box.ID(): types.NewNominal(types.NominalProduct, box.ID(), "Box"),
	}}
	r := New(tree, stubMembers{}, realizer, &diagnostics.Set{}, &stubVars{}, false)

	res := r.Resolve(inner, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "Box"}}}, nil, false, false)
	assert.Equal(t, ResultDone, res.Kind)
	assert.Len(t, res.Resolved.Viable, 1)
}

func TestUndefinedNameFails(t *testing.T) {
	tree := scope.New()
	root := scope.ID(1)
	tree.AddScope(root, 0, false, "m.vela", nil)
	r := New(tree, stubMembers{}, stubRealizer{byDecl: map[ast.NodeID]*types.Type{}}, &diagnostics.Set{}, &stubVars{}, false)

	res := r.Resolve(root, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "Nope"}}}, nil, false, false)
	assert.Equal(t, ResultFailed, res.Kind)
}

func TestMetatypeCalleeSugarTagsConstructor(t *testing.T) {
	tree := scope.New()
	root := scope.ID(1)
	tree.AddScope(root, 0, false, "m.vela", nil)

	box := &ast.ProductDecl{Name: "Box"}
	box.NID = 1
	tree.Declare(root, box)

	boxType := types.NewNominal(types.NominalProduct, box.ID(), "Box")
	realizer := stubRealizer{byDecl: map[ast.NodeID]*types.Type{
		box.ID(): types.NewMetatype(boxType),
	}}
	r := New(tree, stubMembers{}, realizer, &diagnostics.Set{}, &stubVars{}, false)

	res := r.Resolve(root, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "Box"}}}, nil, false, false)
	assert.Equal(t, ResultDone, res.Kind)
	cand := res.Resolved.Elements[res.Resolved.Viable[0]]
	assert.Equal(t, properties.RefConstructor, cand.Ref.Kind)
}

func TestQualifiedLookupFallsThroughToExtension(t *testing.T) {
	model := types.NewNominal(types.NominalProduct, 1, "Box")
	extMethod := &ast.FunctionDecl{Name: "open"}
	extMethod.NID = 2
	ext := &ast.ExtensionDecl{Members: []ast.Decl{extMethod}}
	ext.NID = 3

	tree := scope.New()
	root := scope.ID(1)
	tree.AddScope(root, 0, false, "m.vela", nil)
	tree.Index(extMethod)

	members := stubMembers{own: map[string][]ast.Decl{}, exts: []*ast.ExtensionDecl{ext}}
	realizer := stubRealizer{byDecl: map[ast.NodeID]*types.Type{
		extMethod.ID(): types.NewLambda(&types.Callable{}),
	}}
	r := New(tree, members, realizer, &diagnostics.Set{}, &stubVars{}, false)

	res := r.Resolve(root, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "open"}}}, model, false, false)
	assert.Equal(t, ResultDone, res.Kind)
	assert.Len(t, res.Resolved.Viable, 1)
}

func TestInstantiateOpensGenericParamFromOutsideItsScope(t *testing.T) {
	tParam := &ast.GenericParamDecl{Name: "T"}
	tParam.NID = 2

	identity := &ast.FunctionDecl{Name: "identity"}
	identity.NID = 3

	tree := scope.New()
	outer := scope.ID(1)
	genericScope := scope.ID(2)
	bodyScope := scope.ID(3)
	tree.AddScope(outer, 0, false, "m.vela", nil)
	tree.AddScope(genericScope, outer, true, "m.vela", nil)
	tree.AddScope(bodyScope, genericScope, true, "m.vela", nil)
	tree.Declare(outer, identity)
	tree.Declare(genericScope, tParam)

	identityType := types.NewLambda(&types.Callable{Output: types.NewGenericParameter(tParam.ID(), "T", nil)})
	realizer := stubRealizer{byDecl: map[ast.NodeID]*types.Type{identity.ID(): identityType}}
	r := New(tree, stubMembers{}, realizer, &diagnostics.Set{}, &stubVars{}, false)

	// Called from outside the generic scope: T opens into a fresh variable.
	outside := r.Resolve(outer, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "identity"}}}, nil, false, true)
	assert.Equal(t, ResultDone, outside.Kind)
	outsideType := outside.Resolved.Elements[outside.Resolved.Viable[0]].Type
	assert.Equal(t, types.KindVariable, outsideType.Callable().Output.Kind())

	// Called from within the generic construct's own body: T stays rigid.
	inside := r.Resolve(bodyScope, &ast.NameExpr{Components: []ast.NameComponent{{Stem: "identity"}}}, nil, false, true)
	assert.Equal(t, ResultDone, inside.Kind)
	insideType := inside.Resolved.Elements[inside.Resolved.Viable[0]].Type
	assert.Equal(t, types.KindGenericParameter, insideType.Callable().Output.Kind())
}

func TestNormalizeFoldsCombiningFormToPrecomposed(t *testing.T) {
	decomposed := "e\u0301"  // "e" + combining acute accent
	precomposed := "\u00e9" // precomposed "e" with acute accent
	assert.Equal(t, Normalize(precomposed), Normalize(decomposed))
	assert.NotEqual(t, decomposed, precomposed)
}
