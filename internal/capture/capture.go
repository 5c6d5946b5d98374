// Package capture implements the implicit-capture walk (§4.2): given a
// function/lambda body, find the free name uses that must become implicit
// captures, and whether each is used mutably.
package capture

import "github.com/vela-lang/velac/internal/ast"

// Use is one retained free-name use, before effect merging.
type Use struct {
	Name    string
	Mutable bool
	Site    ast.Span
}

// Local tracks what a candidate name use resolves to, supplied by the
// resolver so capture analysis does not need its own lookup logic.
type Local struct {
	DeclaredHere bool // declared inside the declaration currently being analyzed
	IsGlobal     bool
	IsMember     bool // a member reference, to be rewritten to a capture of self
	NoneDomain   bool // domain `none`: never a capture candidate (e.g. a type name)
	HasNoCapture bool // refers to a capture-less function (builtins, free functions)
}

// Resolve is supplied by the caller (the realizer, which already has a
// resolver in hand) to classify each candidate name.
type Resolve func(name ast.Node) Local

// Collect walks body and returns the retained uses, with member references
// rewritten to "self" per §4.2. A use is marked mutable only when it occurs
// inside an AddressExpr operand; no other use, including a subscript
// callee, is marked mutable.
func Collect(body ast.Expr, resolve Resolve) []Use {
	c := &collector{resolve: resolve, seen: map[string]int{}}
	c.walkExpr(body, false)
	return c.uses
}

type collector struct {
	resolve Resolve
	uses    []Use
	seen    map[string]int // name -> index into uses, for effect merging
}

func (c *collector) record(name string, mutable bool, site ast.Span) {
	if idx, ok := c.seen[name]; ok {
		if mutable {
			c.uses[idx].Mutable = true
		}
		return
	}
	c.seen[name] = len(c.uses)
	c.uses = append(c.uses, Use{Name: name, Mutable: mutable, Site: site})
}

func (c *collector) walkExpr(e ast.Expr, mutableCtx bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.NameExpr:
		c.walkExpr(n.Prefix, false)
		if len(n.Components) == 0 {
			return
		}
		loc := c.resolve(n)
		if loc.NoneDomain || loc.DeclaredHere || loc.IsGlobal || loc.HasNoCapture {
			return
		}
		name := n.Components[len(n.Components)-1].Stem
		if loc.IsMember {
			name = "self"
		}
		c.record(name, mutableCtx, n.Pos())
	case *ast.AddressExpr:
		c.walkExpr(n.Operand, true)
	case *ast.CallExpr:
		c.walkExpr(n.Callee, false)
		for _, a := range n.Arguments {
			c.walkExpr(a.Value, false)
		}
	case *ast.TupleExpr:
		for _, el := range n.Elements {
			c.walkExpr(el, false)
		}
	case *ast.SequenceExpr:
		c.walkExpr(n.Head, false)
		for _, op := range n.Tail {
			c.walkExpr(op.Operand, false)
		}
	case *ast.LambdaExpr:
		for _, cap := range n.ExplicitCaptures {
			c.walkExpr(cap.Initializer, false)
		}
		// names captured explicitly, or bound as the lambda's own
		// parameters, are not free in the enclosing declaration; a nested
		// lambda's own implicit captures are computed by a separate call
		// to Collect over its own body, not inherited here.
	case *ast.BlockExpr:
		for _, s := range n.Stmts {
			if e, ok := s.(ast.Expr); ok {
				c.walkExpr(e, false)
			}
		}
		c.walkExpr(n.Value, false)
	case *ast.ReturnExpr:
		c.walkExpr(n.Value, false)
	}
}
