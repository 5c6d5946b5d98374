// Package fold implements sequence folding (§4.7): resolving each infix
// operator in a flat operator chain by stem in the operator namespace, then
// folding the chain into a binary tree honoring precedence and
// associativity.
package fold

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
)

// Associativity of an operator's precedence group.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
	NonAssoc
)

// OperatorInfo is what the operator namespace reports for a resolved
// infix operator stem.
type OperatorInfo struct {
	Precedence    int
	Associativity Associativity
}

// Lookup resolves an operator stem to its declaration's precedence group.
// ok is false if the operator is undefined (§4.7: "undefined operators
// abort folding with a diagnostic").
type Lookup func(stem string) (OperatorInfo, bool)

// BinaryExpr is the folded output: a binary application of Operator to
// Left and Right. It is a node type of this package, not an ast.CallExpr,
// and carries the operator's stem rather than a resolved declaration
// reference.
type BinaryExpr struct {
	ast.Expr // nil; embedded only to supply ast.Expr's unexported marker method
	Operator string
	Left     ast.Expr
	Right    ast.Expr
	Span     ast.Span
}

func (b *BinaryExpr) ID() ast.NodeID { return 0 }
func (b *BinaryExpr) Pos() ast.Span  { return b.Span }

// Fold resolves and folds a flat sequence into a precedence tree using the
// classic operator-precedence parsing algorithm (precedence climbing).
func Fold(seq *ast.SequenceExpr, lookup Lookup, diags diagnostics.Sink) ast.Expr {
	if len(seq.Tail) == 0 {
		return seq.Head
	}
	ops := make([]OperatorInfo, len(seq.Tail))
	ok := true
	for i, pair := range seq.Tail {
		info, found := lookup(pair.Operator)
		if !found {
			diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.UndefinedOperatorInChain,
				Severity: diagnostics.Error,
				Site:     pair.Span,
				Message:  "undefined operator: " + pair.Operator,
			})
			ok = false
			continue
		}
		ops[i] = info
	}
	if !ok {
		return &errExpr{span: seq.Pos()}
	}

	// Precedence climbing over the flat (operator, operand) tail: idx
	// tracks how many (operator, operand) pairs have been consumed.
	idx := 0
	var climbFrom func(left ast.Expr, minPrec int) ast.Expr
	climbFrom = func(left ast.Expr, minPrec int) ast.Expr {
		for idx < len(seq.Tail) && ops[idx].Precedence >= minPrec {
			op := seq.Tail[idx]
			info := ops[idx]
			operand := op.Operand
			idx++
			next := info.Precedence + 1
			if info.Associativity == RightAssoc {
				next = info.Precedence
			}
			right := climbFrom(operand, next)
			left = &BinaryExpr{Operator: op.Operator, Left: left, Right: right, Span: op.Span}
		}
		return left
	}
	return climbFrom(seq.Head, 0)
}

type errExpr struct {
	ast.Expr // nil; embedded only to supply ast.Expr's unexported marker method
	span     ast.Span
}

func (e *errExpr) ID() ast.NodeID { return 0 }
func (e *errExpr) Pos() ast.Span  { return e.span }
