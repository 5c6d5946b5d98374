package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/capture"
	"github.com/vela-lang/velac/internal/config"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

// fakeMembers is a minimal Members implementation: every member, extension
// and requirement query returns nothing, which suffices for the
// circular-alias test and for traits that declare no requirements.
type fakeMembers struct{}

func (fakeMembers) OwnMembers(t *types.Type) []ast.Decl                               { return nil }
func (fakeMembers) ExtensionsOf(t *types.Type, useScope scope.ID) []*ast.ExtensionDecl { return nil }
func (fakeMembers) InheritedRequirements(t *types.Type) []ast.Decl                     { return nil }
func (fakeMembers) Requirements(trait ast.NodeID) []ast.Decl                           { return nil }
func (fakeMembers) ModelMembers(model *types.Type) []ast.Decl                          { return nil }
func (fakeMembers) RealizeMember(d ast.NodeID) *types.Type                             { return types.Error }
func (fakeMembers) TraitName(trait ast.NodeID) string                                  { return "" }
func (fakeMembers) ClassifyForCapture(n ast.Node) capture.Local                        { return capture.Local{NoneDomain: true} }

func TestCircularAliasProducesErrorAndOneDiagnostic(t *testing.T) {
	tree := scope.New()
	root := scope.ID(1)
	tree.AddScope(root, 0, false, "m.vela", nil)

	// type X = Y; type Y = X
	xRef := &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: "Y"}}}
	yRef := &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: "X"}}}
	xDecl := &ast.TypeAliasDecl{Name: "X", Aliased: xRef}
	yDecl := &ast.TypeAliasDecl{Name: "Y", Aliased: yRef}
	xDecl.NID, yDecl.NID = 1, 2

	tree.Declare(root, xDecl)
	tree.Declare(root, yDecl)

	c := New(tree, config.Default(), fakeMembers{})
	xt := c.Realize(xDecl.ID())

	assert.Equal(t, types.Error, xt)

	errs := 0
	for _, d := range c.Diagnostics() {
		if d.Severity == diagnostics.Error {
			errs++
		}
	}
	assert.Equal(t, 1, errs, "exactly one circular-dependency diagnostic should be emitted")
}

// TestCheckRegistersTransitiveConformance exercises §8 scenario 1: traits
// A, B: A; a product P declares P: B via Check. Expect the relations
// store's refinement closure for B to include A, and the conformance to
// be registered without diagnostics.
func TestCheckRegistersTransitiveConformance(t *testing.T) {
	tree := scope.New()
	root := scope.ID(1)

	a := &ast.TraitDecl{Name: "A"}
	a.NID = 1
	b := &ast.TraitDecl{Name: "B", Refines: []ast.TypeExpr{
		&ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: "A"}}},
	}}
	b.NID = 2
	p := &ast.ProductDecl{Name: "P"}
	p.NID = 3
	conf := &ast.ConformanceDecl{
		Model:   &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: "P"}}},
		Concept: &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: "B"}}},
	}
	conf.NID = 4
	module := &ast.ModuleDecl{Name: "m", Decls: []ast.Decl{a, b, p, conf}}
	module.NID = 5

	tree.AddScope(root, 0, false, "m.vela", module)
	tree.Index(module)
	for _, d := range []ast.Decl{a, b, p, conf} {
		tree.Declare(root, d)
	}

	c := New(tree, config.Default(), fakeMembers{})
	c.Check(module.ID())

	for _, d := range c.Diagnostics() {
		assert.NotEqual(t, diagnostics.Error, d.Severity, "unexpected error: %+v", d)
	}

	bType := c.Realize(b.ID())
	closure := c.Relations().RefinementClosure(bType.DeclID())
	assert.Len(t, closure, 2, "B's refinement closure should contain B and A")

	assert.Len(t, c.Relations().All(), 1, "P: B should be registered as a conformance")
}

func TestRealizeIdempotent(t *testing.T) {
	tree := scope.New()
	root := scope.ID(1)
	tree.AddScope(root, 0, false, "m.vela", nil)
	decl := &ast.ProductDecl{Name: "Box"}
	tree.Declare(root, decl)

	c := New(tree, config.Default(), fakeMembers{})
	first := c.Realize(decl.ID())
	firstDiagCount := len(c.Diagnostics())
	second := c.Realize(decl.ID())

	assert.True(t, types.Equal(first, second))
	assert.Equal(t, firstDiagCount, len(c.Diagnostics()), "realizing twice must not add diagnostics")
}
