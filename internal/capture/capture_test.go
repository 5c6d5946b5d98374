package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
)

func name(stem string) *ast.NameExpr {
	return &ast.NameExpr{Components: []ast.NameComponent{{Stem: stem}}}
}

func TestCollectRecordsFreeNameOnce(t *testing.T) {
	body := &ast.TupleExpr{Elements: []ast.Expr{name("x"), name("x")}}
	uses := Collect(body, func(n ast.Node) Local { return Local{} })
	assert.Len(t, uses, 1)
	assert.Equal(t, "x", uses[0].Name)
	assert.False(t, uses[0].Mutable)
}

func TestCollectMarksAddressOperandMutable(t *testing.T) {
	body := &ast.AddressExpr{Operand: name("x")}
	uses := Collect(body, func(n ast.Node) Local { return Local{} })
	assert.Len(t, uses, 1)
	assert.True(t, uses[0].Mutable)
}

func TestCollectMergesMutabilityAcrossRepeatedUses(t *testing.T) {
	body := &ast.TupleExpr{Elements: []ast.Expr{name("x"), &ast.AddressExpr{Operand: name("x")}}}
	uses := Collect(body, func(n ast.Node) Local { return Local{} })
	assert.Len(t, uses, 1)
	assert.True(t, uses[0].Mutable, "a later mutable use must upgrade an earlier immutable recording")
}

func TestCollectRewritesMemberReferenceToSelf(t *testing.T) {
	body := name("field")
	uses := Collect(body, func(n ast.Node) Local { return Local{IsMember: true} })
	assert.Len(t, uses, 1)
	assert.Equal(t, "self", uses[0].Name)
}

func TestCollectSkipsNoneDomainDeclaredHereAndGlobal(t *testing.T) {
	body := &ast.TupleExpr{Elements: []ast.Expr{name("Type"), name("local"), name("global")}}
	calls := map[string]Local{
		"Type":   {NoneDomain: true},
		"local":  {DeclaredHere: true},
		"global": {IsGlobal: true},
	}
	uses := Collect(body, func(n ast.Node) Local {
		ne := n.(*ast.NameExpr)
		return calls[ne.Components[len(ne.Components)-1].Stem]
	})
	assert.Empty(t, uses)
}

func TestCollectDoesNotDescendIntoNestedLambdaBody(t *testing.T) {
	inner := name("y")
	lambda := &ast.LambdaExpr{Body: inner}
	body := &ast.TupleExpr{Elements: []ast.Expr{name("x"), lambda}}
	uses := Collect(body, func(n ast.Node) Local { return Local{} })
	assert.Len(t, uses, 1)
	assert.Equal(t, "x", uses[0].Name)
}
