// Package checker is the top-level orchestrator (§5): it owns every piece
// of mutable state — property maps, relations, diagnostics, memoized
// lookup tables, the generic-environment cache — and exposes the two
// memoized entry points, Realize and Check, plus a read-only sharing
// wrapper for downstream multi-worker queries once checking completes.
package checker

import (
	"os"
	"sync"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/capture"
	"github.com/vela-lang/velac/internal/config"
	"github.com/vela-lang/velac/internal/conformance"
	"github.com/vela-lang/velac/internal/constraints"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/generics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/realizer"
	"github.com/vela-lang/velac/internal/relations"
	"github.com/vela-lang/velac/internal/resolver"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

// Checker holds all state for one check run (§5: "the whole checker state
// is packaged in one value"). No two goroutines may mutate a Checker
// concurrently; use Snapshot for read-only multi-worker access once
// checking completes.
type Checker struct {
	tree  *scope.Tree
	opts  *config.Options
	diags *diagnostics.Set

	props     *properties.Store
	relations *relations.Store
	gens      *generics.Builder
	vars      *realizer.VarAllocator
	realize   *realizer.Realizer
	resolve   *resolver.Resolver
	conform   *conformance.Checker

	debugMode bool // VELA_DEBUG_TRACE=1, mirrors the teacher's CoreTypeChecker debug flag
}

// New wires every component together. members supplies the member tables
// the resolver and conformance checker need (own members, extensions,
// inherited requirements) — in a full build this is backed by the scope
// tree plus a declaration index; kept as an injected dependency here so
// tests can supply a minimal fake scope without a full elaborator.
func New(tree *scope.Tree, opts *config.Options, members Members) *Checker {
	if opts == nil {
		opts = config.Default()
	}
	c := &Checker{
		tree:      tree,
		opts:      opts,
		diags:     &diagnostics.Set{},
		props:     properties.New(),
		vars:      &realizer.VarAllocator{},
		debugMode: opts.DebugMode || os.Getenv("VELA_DEBUG_TRACE") == "1",
	}
	c.relations = relations.New(func(declID uint64) (*types.Type, bool) {
		t := c.realize.RealizeDecl(ast.NodeID(declID))
		return t, t != nil && t != types.Error
	})
	resolveTypeExpr := func(useScope scope.ID, te ast.TypeExpr) *types.Type {
		return c.realizeTypeExpr(useScope, te)
	}
	c.gens = generics.New(c.props, func(useScope scope.ID, te ast.TypeExpr) bool {
		t := resolveTypeExpr(useScope, te)
		return t != nil && t.Kind() == types.KindNominal && t.NominalKind() == types.NominalTrait
	})
	resolveName := func(_ scope.ID, n ast.Node) capture.Local {
		return members.ClassifyForCapture(n)
	}
	c.realize = realizer.New(c.props, tree, c.vars, c.diags, c, c.gens, resolveTypeExpr, resolveName)
	c.resolve = resolver.New(tree, members, c.realize, c.diags, c.vars, opts.IsBuiltinModuleVisible)
	c.conform = conformance.New(c.relations, members, c.props, c.diags)
	return c
}

// Members is the checker's view of member-table lookups, implemented by an
// elaborator-provided index over the AST (symbol table, extension
// registry). Kept as an interface so internal/checker stays decoupled from
// how that index is built.
type Members interface {
	resolver.MemberSource
	conformance.TraitMembers
	ClassifyForCapture(n ast.Node) capture.Local
}

// Realize is the §4.1 `realize(decl)` entry point.
func (c *Checker) Realize(d ast.NodeID) *types.Type {
	return c.realize.RealizeDecl(d)
}

// Check is the §4.1/§4.6 `check(decl)` entry point: it realizes d, recurses
// into sub-declarations, registers trait refinements and conformances, and
// runs the constraint generator/solver over every checkable body. Checking
// observes the same three-color declRequest marker realization does —
// re-entering Check while a declaration is already `checking` is a
// circular dependency (§4.1, §5).
func (c *Checker) Check(d ast.NodeID) {
	switch c.props.RequestState(d) {
	case properties.Checking:
		c.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.CircularDependency,
			Severity: diagnostics.Error,
			Message:  "circular dependency while checking declaration",
		})
		c.props.SetRequestState(d, properties.Done)
		c.props.SetDeclType(d, types.Error)
		return
	case properties.Done:
		return
	}

	c.realize.RealizeDecl(d)
	c.props.SetRequestState(d, properties.Checking)

	node, ok := c.tree.NodeByID(d)
	if ok {
		c.checkByKind(node)
	}

	c.props.SetRequestState(d, properties.Done)
}

func (c *Checker) checkByKind(node ast.Node) {
	switch n := node.(type) {
	case *ast.ModuleDecl:
		for _, sub := range n.Decls {
			c.Check(sub.ID())
		}
	case *ast.NamespaceDecl:
		for _, sub := range n.Decls {
			c.Check(sub.ID())
		}
	case *ast.ProductDecl:
		for _, m := range n.Members {
			c.Check(m.ID())
		}
	case *ast.ExtensionDecl:
		for _, m := range n.Members {
			c.Check(m.ID())
		}
	case *ast.TraitDecl:
		useScope := c.useScopeOf(n)
		traitType := c.declTypeOf(n.ID())
		for _, refinedExpr := range n.Refines {
			refined := c.realizeTypeExpr(useScope, refinedExpr)
			if refined != nil && refined.Kind() == types.KindNominal && refined.NominalKind() == types.NominalTrait {
				c.relations.DeclareRefinement(traitType.DeclID(), refined.DeclID())
			}
		}
		for _, m := range n.Members {
			c.Check(m.ID())
		}
	case *ast.ConformanceDecl:
		c.checkConformanceDecl(n)
		for _, m := range n.Members {
			c.Check(m.ID())
		}
	case *ast.FunctionDecl:
		c.checkFunctionBody(n)
	case *ast.MethodBundleDecl:
		for _, v := range n.Variants {
			c.checkFunctionBody(v.Fn)
		}
	case *ast.SubscriptBundleDecl:
		for _, v := range n.Variants {
			c.checkFunctionBody(v.Fn)
		}
	case *ast.BindingDecl:
		// CheckBindingType (invoked from RealizeDecl above) already ran the
		// generator/solver over the initializer; nothing further to do.
	}
}

// checkConformanceDecl realizes the Model/Concept sides of a declared
// `Model: Trait` site, locates the module containing the conformance
// declaration for synthesized-decl bookkeeping, promotes the exposition scope to
// module-wide visibility (glossary: "file-level conformances are promoted
// to module-wide"), and delegates requirement matching to the conformance
// checker (§4.6).
func (c *Checker) checkConformanceDecl(n *ast.ConformanceDecl) {
	useScope := c.useScopeOf(n)
	model := c.realizeTypeExpr(useScope, n.Model)
	concept := c.realizeTypeExpr(useScope, n.Concept)
	if model == nil || concept == nil || concept.Kind() != types.KindNominal || concept.NominalKind() != types.NominalTrait {
		c.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.InvalidConformanceTarget,
			Severity: diagnostics.Error,
			Site:     n.Pos(),
			Message:  "conformance target is not a trait",
		})
		return
	}

	var moduleID ast.NodeID
	if m := c.tree.ContainingModule(useScope); m != nil {
		moduleID = m.ID()
	}
	exposition := relations.ScopeID(moduleID)

	c.conform.Check(model, concept, concept.DeclID(), n.ID(), moduleID, exposition, n.Pos())
}

func (c *Checker) useScopeOf(d ast.Decl) scope.ID {
	if s, ok := c.tree.ScopeOf(d); ok {
		return s
	}
	return 0
}

// declTypeOf returns d's realized type, falling back to Error if it was
// never set (should not happen once Check has realized d first).
func (c *Checker) declTypeOf(d ast.NodeID) *types.Type {
	if t, ok := c.props.DeclType(d); ok {
		return t
	}
	return types.Error
}

// checkFunctionBody runs the constraint generator and solver over a
// function/method-variant/subscript-variant body against its realized
// return type, writing solved types back into exprTypes and running
// deferred queries (§4.4, §4.5). Requirement declarations (no body) and
// expression-context lambdas whose bodies were already deferred by their
// enclosing generator walk are no-ops here.
func (c *Checker) checkFunctionBody(n *ast.FunctionDecl) {
	if n.Body == nil {
		return
	}
	useScope := c.useScopeOf(n)
	fnType := c.declTypeOf(n.ID())
	var shape *types.Type
	if fnType != nil && fnType.Kind() == types.KindLambda {
		shape = fnType.Callable().Output
	}

	gen := constraints.NewGenerator(c.vars, func(ne *ast.NameExpr, exprShape *types.Type) constraints.NameResolution {
		return c.resolveNameForGenerator(useScope, ne, exprShape)
	}, func(te ast.TypeExpr) *types.Type {
		return c.realizeTypeExpr(useScope, te)
	})
	result := gen.Generate(n.Body, shape)
	solver := &constraints.Solver{}
	if c.opts.InferenceTracingSite != nil {
		solver.TraceSite = c.opts.InferenceTracingSite
	}
	sol := solver.Solve(result.Constraints)
	// Deferred queries (lambda bodies) run before emission: they may still
	// append diagnostics and facts discovered while checking a nested body
	// (§4.4).
	for _, dq := range result.Deferred {
		dq(sol)
	}
	for _, diag := range sol.Diagnostics {
		c.diags.Emit(diag)
	}
	for id, t := range result.Facts.AllUnsafe() {
		c.props.SetExprType(id, sol.ApplyPublic(t))
	}
}

// realizeTypeExpr interprets a surface TypeExpr into a realized Type,
// handling intrinsics directly (§4.3 step 2: "Any, Never, Self, Sum<...>,
// Metatype<...> are handled without AST lookup") before falling back to
// name resolution for nominal references.
func (c *Checker) realizeTypeExpr(useScope scope.ID, te ast.TypeExpr) *types.Type {
	if te == nil {
		return types.Void
	}
	switch n := te.(type) {
	case *ast.IntrinsicTypeExpr:
		switch n.Kind {
		case ast.IntrinsicAny:
			return types.Any
		case ast.IntrinsicNever:
			return types.Never
		default: // IntrinsicSelf
			return c.vars.Fresh(0) // bound to the enclosing Self by the conformance/extension context
		}
	case *ast.TupleTypeExpr:
		elems := make([]*types.Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = c.realizeTypeExpr(useScope, e)
		}
		return types.NewTuple(elems...)
	case *ast.SumTypeExpr:
		elems := make([]*types.Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = c.realizeTypeExpr(useScope, e)
		}
		if len(elems) < 2 {
			c.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.SumWithZeroOrOneElement,
				Severity: diagnostics.Error,
				Site:     n.Pos(),
				Message:  "sum type must have at least two elements",
			})
			return types.Error
		}
		return types.NewSum(elems...)
	case *ast.ExistentialTypeExpr:
		if n.Generic != nil {
			return types.NewExistentialGeneric(c.realizeTypeExpr(useScope, n.Generic))
		}
		traits := make([]*types.Type, len(n.Traits))
		for i, t := range n.Traits {
			traits[i] = c.realizeTypeExpr(useScope, t)
		}
		return types.NewExistentialTraits(traits...)
	case *ast.MetatypeTypeExpr:
		return types.NewMetatype(c.realizeTypeExpr(useScope, n.Instance))
	case *ast.RemoteTypeExpr:
		return types.NewRemote(n.Effect, c.realizeTypeExpr(useScope, n.Of))
	case *ast.NameTypeExpr:
		return c.realizeNameType(useScope, n)
	default:
		return types.Error
	}
}

// realizeNameType resolves a nominal type-expression's component chain via
// the resolver, rather than duplicating lookup logic.
func (c *Checker) realizeNameType(useScope scope.ID, n *ast.NameTypeExpr) *types.Type {
	expr := &ast.NameExpr{}
	for _, comp := range n.Components {
		expr.Components = append(expr.Components, ast.NameComponent{Stem: comp.Stem, Args: comp.Args, Span: comp.Span})
	}
	res := c.resolve.Resolve(useScope, expr, nil, false, true)
	if res.Kind != resolver.ResultDone || len(res.Resolved.Viable) == 0 {
		return types.Error
	}
	cand := res.Resolved.Elements[res.Resolved.Viable[0]]
	if cand.Type != nil && cand.Type.Kind() == types.KindMetatype {
		return cand.Type.Instance()
	}
	return cand.Type
}

// CheckBindingType implements realizer.Checker: a binding declaration's
// type comes from pattern inference against the optional annotation and
// initializer (§4.1, §9's mutual-recursion note).
func (c *Checker) CheckBindingType(d *ast.BindingDecl, pattern ast.Pattern) *types.Type {
	useScope := scope.ID(0)
	if s, ok := c.tree.ScopeOf(d); ok {
		useScope = s
	}
	var shape *types.Type
	if d.Annotation != nil {
		shape = c.realizeTypeExpr(useScope, d.Annotation)
	}
	if d.Initializer == nil {
		if shape != nil {
			return shape
		}
		return c.vars.Fresh(0)
	}

	gen := constraints.NewGenerator(c.vars, func(n *ast.NameExpr, exprShape *types.Type) constraints.NameResolution {
		return c.resolveNameForGenerator(useScope, n, exprShape)
	}, func(te ast.TypeExpr) *types.Type {
		return c.realizeTypeExpr(useScope, te)
	})
	result := gen.Generate(d.Initializer, shape)
	solver := &constraints.Solver{}
	if c.opts.InferenceTracingSite != nil {
		solver.TraceSite = c.opts.InferenceTracingSite
	}
	sol := solver.Solve(result.Constraints)
	for _, dq := range result.Deferred {
		dq(sol)
	}
	for _, diag := range sol.Diagnostics {
		c.diags.Emit(diag)
	}
	for id, t := range result.Facts.AllUnsafe() {
		c.props.SetExprType(id, sol.ApplyPublic(t))
	}

	if shape != nil {
		return shape
	}
	if t, ok := result.Facts.Get(d.Initializer.ID()); ok {
		return sol.ApplyPublic(t)
	}
	return types.Error
}

func (c *Checker) resolveNameForGenerator(useScope scope.ID, n *ast.NameExpr, shape *types.Type) constraints.NameResolution {
	res := c.resolve.Resolve(useScope, n, nil, true, true)
	if res.Kind != resolver.ResultDone {
		return constraints.NameResolution{}
	}
	var cands []constraints.Candidate
	for _, idx := range res.Resolved.Viable {
		el := res.Resolved.Elements[idx]
		cands = append(cands, constraints.Candidate{Ref: el.Ref, Type: el.Type})
	}
	return constraints.NameResolution{Candidates: cands}
}

// Diagnostics returns every diagnostic recorded so far, in emission order.
func (c *Checker) Diagnostics() []diagnostics.Diagnostic { return c.diags.All() }

// Relations exposes the relations store for read access (used directly by
// callers that have not yet taken a Snapshot).
func (c *Checker) Relations() *relations.Store { return c.relations }

// Properties exposes the property store for read access.
func (c *Checker) Properties() *properties.Store { return c.props }

// Snapshot returns a ReadOnlyView over this checker's completed state,
// guarded by a mutex so downstream IR-generation workers can query
// canonical types and conformances concurrently (§5).
func (c *Checker) Snapshot() *ReadOnlyView {
	return &ReadOnlyView{checker: c}
}

// ReadOnlyView is a lock-protected read/modify accessor over a completed
// Checker's relations and property stores (§5).
type ReadOnlyView struct {
	mu      sync.RWMutex
	checker *Checker
}

func (v *ReadOnlyView) DeclType(d ast.NodeID) (*types.Type, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.checker.props.DeclType(d)
}

func (v *ReadOnlyView) ExprType(e ast.NodeID) (*types.Type, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.checker.props.ExprType(e)
}

func (v *ReadOnlyView) Conformances() []*relations.Conformance {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.checker.relations.All()
}
