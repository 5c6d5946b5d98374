package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/scope"
)

func traitRef(name string) ast.TypeExpr {
	return &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: name}}}
}

// allTraits treats every annotation as a trait reference, standing in for
// the checker's realize-and-classify callback in tests that don't need a
// real scope tree.
func allTraits(scope.ID, ast.TypeExpr) bool { return true }

func TestBuildOrdersParamsAndDesugarsAllTraitAnnotations(t *testing.T) {
	tParam := &ast.GenericParamDecl{Name: "T", Annotations: []ast.TypeExpr{traitRef("Equatable"), traitRef("Hashable")}}
	tParam.NID = 1
	nParam := &ast.GenericParamDecl{Name: "N", Annotations: []ast.TypeExpr{traitRef("Int")}}
	nParam.NID = 2

	b := New(properties.New(), allTraits)
	env := b.Build(ast.NodeID(100), scope.ID(1), []*ast.GenericParamDecl{tParam, nParam}, nil)

	assert.Equal(t, []ast.NodeID{1, 2}, env.Params)
	assert.Len(t, env.Constraints, 3, "T's two annotations and N's single trait annotation all sugar into where-constraints")
}

func TestBuildOnlyConstrainsFirstAnnotationWhenItIsATrait(t *testing.T) {
	// <N: Int> where Int is a concrete type, not a trait: N is a value
	// parameter whose type is Int, not a constraint on N.
	notATrait := func(scope.ID, ast.TypeExpr) bool { return false }
	nParam := &ast.GenericParamDecl{Name: "N", Annotations: []ast.TypeExpr{traitRef("Int")}}
	nParam.NID = 1

	b := New(properties.New(), notATrait)
	env := b.Build(ast.NodeID(101), scope.ID(1), []*ast.GenericParamDecl{nParam}, nil)

	assert.Empty(t, env.Constraints, "a value parameter's type annotation is not a conformance constraint")
}

func TestBuildCachesEnvironmentPerScope(t *testing.T) {
	tParam := &ast.GenericParamDecl{Name: "T"}
	tParam.NID = 1

	b := New(properties.New(), allTraits)
	first := b.Build(ast.NodeID(100), scope.ID(1), []*ast.GenericParamDecl{tParam}, nil)
	second := b.Build(ast.NodeID(100), scope.ID(1), []*ast.GenericParamDecl{}, nil)

	assert.Same(t, first, second, "second Build call for the same scope must return the cached environment")
}

func TestBuildAppendsExplicitWhereClause(t *testing.T) {
	where := []ast.WhereConstraint{{Subject: traitRef("T"), Conforms: traitRef("Equatable")}}
	b := New(properties.New(), allTraits)
	env := b.Build(ast.NodeID(200), scope.ID(1), nil, where)
	assert.Equal(t, where, env.Constraints)
}
