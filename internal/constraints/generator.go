package constraints

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/types"
)

// Fresher mints fresh unification variables; implemented by
// realizer.VarAllocator, passed in to avoid a package cycle.
type Fresher interface {
	Fresh(ctx uint8) *types.Type
}

// NameResolution is what the generator needs back from the resolver for a
// NameExpr: either a single viable candidate (direct binding) or a set of
// candidates to turn into an OverloadBinding constraint.
type NameResolution struct {
	Candidates []Candidate
}

// Resolve is supplied by the checker, bridging to internal/resolver.
type ResolveNameFunc func(n *ast.NameExpr, shape *types.Type) NameResolution

// ResolveTypeFunc realizes a lambda's explicit parameter/return annotations,
// bridging to the checker's realizeTypeExpr with its use-scope already
// bound.
type ResolveTypeFunc func(te ast.TypeExpr) *types.Type

// Generator produces constraints for one expression tree (§4.4).
type Generator struct {
	fresh       Fresher
	resolve     ResolveNameFunc
	resolveType ResolveTypeFunc
}

func NewGenerator(fresh Fresher, resolve ResolveNameFunc, resolveType ResolveTypeFunc) *Generator {
	return &Generator{fresh: fresh, resolve: resolve, resolveType: resolveType}
}

// Generate walks e with an optional shape type (the expected type from
// context, e.g. a binding's annotation), producing facts, constraints,
// overload hints, and deferred queries (§4.4).
func (g *Generator) Generate(e ast.Expr, shape *types.Type) *GeneratorResult {
	r := &GeneratorResult{Facts: NewInferenceFacts(), Hints: map[ast.NodeID][]Candidate{}}
	t := g.walk(e, shape, r)
	r.Facts.Set(e.ID(), t)
	return r
}

func (g *Generator) walk(e ast.Expr, shape *types.Type, r *GeneratorResult) *types.Type {
	if e == nil {
		return types.Void
	}
	switch n := e.(type) {
	case *ast.LiteralExpr:
		t := literalType(n)
		r.Facts.Set(n.ID(), t)
		if shape != nil {
			// annotated context: subtyping so literal precision can widen;
			// with no shape no constraint is emitted and the literal keeps
			// its own type.
			r.Constraints = append(r.Constraints, Constraint{Kind: KindSubtyping, T: t, U: shape, Origin: n.Pos()})
		}
		return t

	case *ast.NameExpr:
		res := g.resolve(n, shape)
		var t *types.Type
		switch len(res.Candidates) {
		case 0:
			t = types.Error
		case 1:
			t = res.Candidates[0].Type
			r.Facts.Set(n.ID(), t)
		default:
			t = g.fresh.Fresh(0)
			r.Constraints = append(r.Constraints, Constraint{
				Kind: KindOverloadBinding, NameExpr: n.ID(), Candidates: res.Candidates, Origin: n.Pos(),
			})
			r.Hints[n.ID()] = res.Candidates
		}
		r.Facts.Set(n.ID(), t)
		return t

	case *ast.CallExpr:
		calleeShape := g.fresh.Fresh(0)
		calleeT := g.walk(n.Callee, nil, r)
		args := make([]types.Param, len(n.Arguments))
		for i, a := range n.Arguments {
			at := g.walk(a.Value, nil, r)
			args[i] = types.Param{Label: a.Label, Type: at}
		}
		output := g.fresh.Fresh(0)
		expected := types.NewLambda(&types.Callable{Inputs: args, Output: output})
		r.Constraints = append(r.Constraints, Constraint{Kind: KindEquality, T: calleeT, U: expected, Origin: n.Pos()})
		r.Constraints = append(r.Constraints, Constraint{Kind: KindEquality, T: calleeShape, U: expected, Origin: n.Pos()})
		r.Facts.Set(n.ID(), output)
		return output

	case *ast.TupleExpr:
		elems := make([]*types.Type, len(n.Elements))
		var shapeElems []*types.Type
		if shape != nil && shape.Kind() == types.KindTuple {
			shapeElems = shape.Elements()
		}
		for i, el := range n.Elements {
			var elShape *types.Type
			if shapeElems != nil && i < len(shapeElems) {
				elShape = shapeElems[i]
			}
			elems[i] = g.walk(el, elShape, r)
		}
		t := types.NewTuple(elems...)
		r.Facts.Set(n.ID(), t)
		return t

	case *ast.LambdaExpr:
		// The lambda's own signature: explicit parameter/return annotations
		// realize directly, an omitted one opens a fresh variable for the
		// surrounding solve to pin down (§4.1 "expression context"). Once
		// pinned, the deferred query re-enters the generator over the body
		// with the resolved output as its shape, folding the body's own
		// constraints and diagnostics back into the outer solution (§4.4:
		// "type-check lambda bodies once their signature is inferred").
		params := make([]types.Param, len(n.Params))
		for i, p := range n.Params {
			pt := g.fresh.Fresh(0)
			if p.Annotation != nil {
				pt = g.resolveType(p.Annotation)
			}
			params[i] = types.Param{Label: p.Label, Type: pt, Convention: p.Convention}
		}
		output := g.fresh.Fresh(0)
		if n.Return != nil {
			output = g.resolveType(n.Return)
		}
		t := types.NewLambda(&types.Callable{Inputs: params, ReceiverEffect: n.ReceiverEffect, Output: output})
		r.Facts.Set(n.ID(), t)
		if shape != nil {
			r.Constraints = append(r.Constraints, Constraint{Kind: KindEquality, T: t, U: shape, Origin: n.Pos()})
		}
		r.Deferred = append(r.Deferred, func(sol *Solution) bool {
			bodyShape := sol.apply(output)
			body := g.Generate(n.Body, bodyShape)
			bodySol := (&Solver{}).Solve(body.Constraints)
			for id, bt := range body.Facts.AllUnsafe() {
				r.Facts.Set(id, bodySol.apply(bt))
			}
			sound := bodySol.Sound
			sol.Diagnostics = append(sol.Diagnostics, bodySol.Diagnostics...)
			for _, dq := range body.Deferred {
				if !dq(bodySol) {
					sound = false
				}
			}
			if !sound {
				sol.Sound = false
			}
			return sound
		})
		return t

	case *ast.BlockExpr:
		for _, s := range n.Stmts {
			if se, ok := s.(ast.Expr); ok {
				g.walk(se, nil, r)
			}
		}
		var t *types.Type
		if n.Value != nil {
			t = g.walk(n.Value, shape, r)
		} else {
			t = types.Void
		}
		r.Facts.Set(n.ID(), t)
		return t

	case *ast.ReturnExpr:
		// A ReturnExpr with a shape (the declared return type) receives
		// a disjunction between "value <: declared return" (penalty 0)
		// and "value = never" (penalty 1), so diverging returns are
		// accepted at higher cost (§4.4). A body expression that is not
		// a ReturnExpr gets no such disjunction.
		var valT *types.Type
		if n.Value != nil {
			valT = g.walk(n.Value, nil, r)
		} else {
			valT = types.Void
		}
		if shape != nil {
			r.Constraints = append(r.Constraints, Constraint{
				Kind: KindDisjunction, Origin: n.Pos(),
				Alternatives: []Alternative{
					{Constraints: []Constraint{{Kind: KindSubtyping, T: valT, U: shape, Origin: n.Pos()}}, Penalty: 0, Label: "return"},
					{Constraints: []Constraint{{Kind: KindEquality, T: valT, U: types.Never, Origin: n.Pos()}}, Penalty: 1, Label: "diverges"},
				},
			})
		}
		r.Facts.Set(n.ID(), types.Never)
		return types.Never

	case *ast.AddressExpr:
		inner := g.walk(n.Operand, nil, r)
		t := types.NewRemote(ast.EffectInout, inner)
		r.Facts.Set(n.ID(), t)
		return t

	default:
		return types.Void
	}
}

func literalType(n *ast.LiteralExpr) *types.Type {
	switch n.Kind {
	case ast.LitInt:
		return types.NewNominal(types.NominalProduct, 0, "Int")
	case ast.LitFloat:
		return types.NewNominal(types.NominalProduct, 0, "Float64")
	case ast.LitString:
		return types.NewNominal(types.NominalProduct, 0, "String")
	case ast.LitBool:
		return types.NewNominal(types.NominalProduct, 0, "Bool")
	default:
		return types.Void
	}
}
