package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/types"
)

type stubFresher struct{ next uint64 }

func (f *stubFresher) Fresh(ctx uint8) *types.Type {
	f.next++
	return types.NewVariable(f.next, ctx)
}

func noNames(*ast.NameExpr, *types.Type) NameResolution { return NameResolution{} }

func intLiteral() *ast.LiteralExpr {
	n := &ast.LiteralExpr{Kind: ast.LitInt, Value: 1}
	n.NID = 1
	return n
}

func strLiteral() *ast.LiteralExpr {
	n := &ast.LiteralExpr{Kind: ast.LitString, Value: "x"}
	n.NID = 2
	return n
}

// A lambda whose body returns a literal matching its declared return
// annotation must check as sound.
func TestLambdaBodySoundWhenItMatchesDeclaredReturn(t *testing.T) {
	// declID 0 matches literalType's hardcoded Int nominal exactly.
	intType := types.NewNominal(types.NominalProduct, 0, "Int")
	resolveType := func(ast.TypeExpr) *types.Type { return intType }

	lambda := &ast.LambdaExpr{Return: &ast.NameTypeExpr{}, Body: intLiteral()}
	lambda.NID = 3

	g := NewGenerator(&stubFresher{}, noNames, resolveType)
	result := g.Generate(lambda, nil)
	sol := (&Solver{}).Solve(result.Constraints)
	for _, dq := range result.Deferred {
		dq(sol)
	}
	assert.True(t, sol.Sound)
	assert.Empty(t, sol.Diagnostics)
}

// A lambda declared to return Int but whose body is a String literal must
// fail once its deferred body check runs — the previous bare `return true`
// would have reported this as sound.
func TestLambdaBodyUnsoundWhenItMismatchesDeclaredReturn(t *testing.T) {
	// A tuple return type can never match a String literal body: a Kind
	// mismatch fails regardless of how nominal declIDs compare.
	tupleType := types.NewTuple()
	resolveType := func(ast.TypeExpr) *types.Type { return tupleType }

	lambda := &ast.LambdaExpr{Return: &ast.NameTypeExpr{}, Body: strLiteral()}
	lambda.NID = 3

	g := NewGenerator(&stubFresher{}, noNames, resolveType)
	result := g.Generate(lambda, nil)
	sol := (&Solver{}).Solve(result.Constraints)
	sound := true
	for _, dq := range result.Deferred {
		if !dq(sol) {
			sound = false
		}
	}
	assert.False(t, sound)
	assert.False(t, sol.Sound)
}
