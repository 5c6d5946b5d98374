// Package resolver implements name resolution (§4.3): splitting a name
// expression into a non-nominal prefix and a nominal component chain,
// resolving each component left-to-right against qualified or unqualified
// lookup, applying sugar rules, and memoizing lookup tables per (type,
// scope).
package resolver

import (
	"golang.org/x/text/unicode/norm"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

// Normalize applies NFC normalization so visually identical but
// differently-encoded identifiers resolve to the same lookup-table key
// (SPEC_FULL §6).
func Normalize(name string) string { return norm.NFC.String(name) }

// Candidate is one resolved match for a name component.
type Candidate struct {
	Ref   properties.DeclReference
	Type  *types.Type
	Error bool // carries an error diagnostic already emitted; excluded from "viable"
}

// CandidateSet separates all matched elements from the subset that is
// viable (§4.3 step 5).
type CandidateSet struct {
	Elements []Candidate
	Viable   []int // indices into Elements
}

// ResultKind classifies a resolution outcome (§4.3).
type ResultKind int

const (
	ResultDone ResultKind = iota
	ResultInexecutable
	ResultFailed
)

// Result is the outcome of resolving a NameExpr.
type Result struct {
	Kind       ResultKind
	Resolved   CandidateSet
	Unresolved []ast.NameComponent // suffix still to resolve once a prefix type is supplied
}

// TypeRealizer is the subset of the realizer the resolver needs: realizing
// a type expression's denoted type, used to evaluate static argument
// lists in step 1. The resolver depends on this interface rather than
// internal/realizer directly to avoid a package cycle (the realizer also
// depends on the resolver).
type TypeRealizer interface {
	RealizeTypeExpr(useScope scope.ID, te ast.TypeExpr) *types.Type
	RealizeDecl(d ast.NodeID) *types.Type
}

// MemberSource yields the declarations directly in a type's own scope plus
// visible extensions plus inherited trait requirements, in that lookup
// order (§4.3: "Member lookup consults: declarations directly in the
// type's scope, then extensions visible in useScope, then inherited
// conformance requirements").
type MemberSource interface {
	OwnMembers(t *types.Type) []ast.Decl
	ExtensionsOf(t *types.Type, useScope scope.ID) []*ast.ExtensionDecl
	InheritedRequirements(t *types.Type) []ast.Decl
}

// VarOpener mints fresh unification variables, implemented by
// internal/realizer.VarAllocator. Kept as a small interface here (rather
// than importing internal/realizer directly) for the same decoupling
// reason TypeRealizer is: resolver tests can supply a stub allocator
// without wiring the full checker.
type VarOpener interface {
	Fresh(ctx uint8) *types.Type
}

const (
	ctxType  uint8 = 0
	ctxValue uint8 = 1
)

// Resolver resolves names against a scope tree and a member source.
type Resolver struct {
	tree     *scope.Tree
	members  MemberSource
	realizer TypeRealizer
	diags    diagnostics.Sink
	vars     VarOpener

	isBuiltinModuleVisible bool

	lookupCache map[lookupKey][]ast.Decl
	extStack    map[ast.NodeID]bool // per-resolution stack of extensions currently being resolved (§4.3)
}

type lookupKey struct {
	typeKey string // "" for unqualified lookup
	scope   scope.ID
	name    string
}

func New(tree *scope.Tree, members MemberSource, realizer TypeRealizer, diags diagnostics.Sink, vars VarOpener, builtinModuleVisible bool) *Resolver {
	return &Resolver{
		tree:                   tree,
		members:                members,
		realizer:               realizer,
		diags:                  diags,
		vars:                   vars,
		isBuiltinModuleVisible: builtinModuleVisible,
		lookupCache:            map[lookupKey][]ast.Decl{},
		extStack:               map[ast.NodeID]bool{},
	}
}

// Resolve processes a NameExpr as specified in §4.3. prefixType is the
// already-realized type of n.Prefix, or nil if n has no prefix (the caller
// realizes the prefix expression itself via the constraint generator,
// since expression-level inference is outside the resolver's concern).
func (r *Resolver) Resolve(useScope scope.ID, n *ast.NameExpr, prefixType *types.Type, keepImplicitArguments, instantiateTypes bool) Result {
	components := n.Components
	if n.Prefix != nil && prefixType == nil {
		return Result{Kind: ResultInexecutable, Unresolved: components}
	}

	var parentType *types.Type = prefixType
	var result CandidateSet
	for i, comp := range components {
		args := r.evalArgs(useScope, comp.Args)
		if parentType == nil && r.isBuiltinModuleVisible && Normalize(comp.Stem) == "Builtin" {
			bt := types.NewBuiltinModule()
			result = CandidateSet{Elements: []Candidate{{Ref: properties.DeclReference{Kind: properties.RefBuiltinModule}, Type: bt}}, Viable: []int{0}}
			parentType = bt
			continue
		}
		matches := r.lookupComponent(useScope, parentType, comp.Stem)
		if len(matches) == 0 {
			r.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.UndefinedName,
				Severity: diagnostics.Error,
				Site:     comp.Span,
				Message:  "undefined name: " + comp.Stem,
			})
			return Result{Kind: ResultFailed}
		}

		var set CandidateSet
		for _, m := range matches {
			t := r.realizer.RealizeDecl(m.ID())
			t = stripConventions(t)
			t = stripPropertySubscript(t)
			t = associateGenericArgs(t, args, parentType, keepImplicitArguments)
			if instantiateTypes {
				t = r.instantiate(t, useScope)
			}
			ref := properties.DeclReference{Kind: properties.RefDirect, Decl: m.ID(), Args: boundArgsOf(t)}
			ref = applySugar(ref, t, i, len(components))
			cand := Candidate{Ref: ref, Type: t, Error: t != nil && t.HasError()}
			set.Elements = append(set.Elements, cand)
			if !cand.Error {
				set.Viable = append(set.Viable, len(set.Elements)-1)
			}
		}
		result = set
		if len(set.Viable) > 0 {
			parentType = set.Elements[set.Viable[0]].Type
		} else if len(set.Elements) > 0 {
			parentType = set.Elements[0].Type
		}
	}
	return Result{Kind: ResultDone, Resolved: result}
}

func (r *Resolver) evalArgs(useScope scope.ID, targs []ast.TypeArg) []*types.Type {
	out := make([]*types.Type, len(targs))
	for i, a := range targs {
		if a.Type != nil {
			out[i] = r.realizer.RealizeTypeExpr(useScope, a.Type)
		}
	}
	return out
}

// lookupComponent performs qualified lookup in parentType's members if set,
// else unqualified lookup walking useScope outward (§4.3 step 2), memoized
// per (type, scope) (§4.3 closing paragraph).
func (r *Resolver) lookupComponent(useScope scope.ID, parentType *types.Type, stem string) []ast.Decl {
	stem = Normalize(stem)
	if stem == "Builtin" && r.isBuiltinModuleVisible && parentType == nil {
		return nil // handled by the caller via the Builtin sentinel, not an AST decl
	}

	key := lookupKey{scope: useScope, name: stem}
	if parentType != nil {
		key.typeKey = parentType.String()
	}
	if cached, ok := r.lookupCache[key]; ok {
		return cached
	}

	var out []ast.Decl
	if parentType != nil {
		out = r.qualifiedLookup(parentType, useScope, stem)
	} else {
		out = r.unqualifiedLookup(useScope, stem)
	}
	r.lookupCache[key] = out
	return out
}

func (r *Resolver) qualifiedLookup(t *types.Type, useScope scope.ID, stem string) []ast.Decl {
	var out []ast.Decl
	for _, d := range r.members.OwnMembers(t) {
		if declName(d) == stem {
			out = append(out, d)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, ext := range r.members.ExtensionsOf(t, useScope) {
		if r.extStack[ext.ID()] {
			continue // avoid infinite recursion through mutually-referential extensions
		}
		r.extStack[ext.ID()] = true
		for _, d := range ext.Members {
			if declName(d) == stem {
				out = append(out, d)
			}
		}
		delete(r.extStack, ext.ID())
	}
	if len(out) > 0 {
		return out
	}
	for _, d := range r.members.InheritedRequirements(t) {
		if declName(d) == stem {
			out = append(out, d)
		}
	}
	return out
}

// unqualifiedLookup walks the scope chain from useScope outward; a
// non-overloadable match short-circuits further walking (§4.3).
func (r *Resolver) unqualifiedLookup(useScope scope.ID, stem string) []ast.Decl {
	var out []ast.Decl
	r.tree.Walk(useScope, func(s scope.ID) bool {
		for _, d := range r.tree.DeclsIn(s) {
			if declName(d) == stem {
				out = append(out, d)
				if !isOverloadable(d) {
					return false
				}
			}
		}
		return len(out) == 0
	})
	return out
}

func isOverloadable(d ast.Decl) bool {
	switch d.(type) {
	case *ast.FunctionDecl, *ast.MethodBundleDecl, *ast.SubscriptBundleDecl:
		return true
	default:
		return false
	}
}

func declName(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.FunctionDecl:
		return n.Name
	case *ast.MethodBundleDecl:
		return n.Name
	case *ast.SubscriptBundleDecl:
		return n.Name
	case *ast.ProductDecl:
		return n.Name
	case *ast.TraitDecl:
		return n.Name
	case *ast.TypeAliasDecl:
		return n.Name
	case *ast.AssociatedTypeDecl:
		return n.Name
	case *ast.AssociatedValueDecl:
		return n.Name
	case *ast.ModuleDecl:
		return n.Name
	case *ast.NamespaceDecl:
		return n.Name
	case *ast.GenericParamDecl:
		return n.Name
	default:
		return ""
	}
}

// associateGenericArgs associates generic arguments with a resolved
// member's type: explicit args win; otherwise args are inherited from the
// parent's bound-generic arguments if present; otherwise, when
// keepImplicitArguments is set, left open as fresh variables is the
// solver's job — here we only wrap in a BoundGeneric when we already have
// concrete args to bind (§4.3 step 3).
func associateGenericArgs(t *types.Type, explicit []*types.Type, parent *types.Type, keepImplicitArguments bool) *types.Type {
	if t == nil {
		return nil
	}
	var source *types.Type
	switch {
	case len(explicit) > 0:
		am := types.NewArgMap()
		for i, a := range explicit {
			am.BindType(ast.NodeID(i), a)
		}
		return types.NewBoundGeneric(t, am)
	case parent != nil && parent.Kind() == types.KindBoundGeneric:
		source = parent
	default:
		return t
	}
	if source == nil {
		return t
	}
	return types.NewBoundGeneric(t, source.Args())
}

func stripConventions(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == types.KindParameter {
		return t.Of()
	}
	return t
}

// stripPropertySubscript replaces a no-argument property subscript bundle
// type by its output type, per §4.3 step 3.
func stripPropertySubscript(t *types.Type) *types.Type {
	if t == nil || t.Kind() != types.KindSubscriptBundle {
		return t
	}
	c := t.Callable()
	if c.IsProperty {
		if letVariant, ok := c.Variants[ast.EffectLet]; ok {
			return letVariant.Output
		}
		return c.Output
	}
	return t
}

func boundArgsOf(t *types.Type) *types.ArgMap {
	if t == nil || t.Kind() != types.KindBoundGeneric {
		return nil
	}
	return t.Args()
}

// applySugar tags DeclReference.Kind as RefConstructor when the last
// component's resolved type is a metatype. The resolver walks components
// without knowing the expression's syntactic role (call vs subscript vs
// plain name), and no lookup is rewritten: a metatype callee is not
// redirected to `init`, and a subscript callee is not redirected to `[]`.
func applySugar(ref properties.DeclReference, t *types.Type, idx, total int) properties.DeclReference {
	if t != nil && t.Kind() == types.KindMetatype && idx == total-1 {
		ref.Kind = properties.RefConstructor
	}
	return ref
}

// instantiate leaves a generic parameter rigid when useScope is lexically
// inside the scope that introduces it (a reference to T from within the
// generic construct's own body denotes T itself, per §4.1), and otherwise
// opens it into a fresh unification variable — one variable per distinct
// parameter id, so repeated references to the same parameter within this
// one instantiation share a binding (§4.3 step 3).
func (r *Resolver) instantiate(t *types.Type, useScope scope.ID) *types.Type {
	opened := map[ast.NodeID]*types.Type{}
	return types.Transform(t, func(x *types.Type) *types.Type {
		if x == nil || x.Kind() != types.KindGenericParameter {
			return x
		}
		if r.paramInScope(x.ParamID(), useScope) {
			return x
		}
		if v, ok := opened[x.ParamID()]; ok {
			return v
		}
		ctx := ctxType
		if x.ValueType() != nil {
			ctx = ctxValue
		}
		v := r.vars.Fresh(ctx)
		opened[x.ParamID()] = v
		return v
	})
}

// paramInScope reports whether useScope is paramID's declaring scope or
// lexically nested within it.
func (r *Resolver) paramInScope(paramID ast.NodeID, useScope scope.ID) bool {
	node, ok := r.tree.NodeByID(paramID)
	if !ok {
		return false
	}
	decl, ok := node.(ast.Decl)
	if !ok {
		return false
	}
	paramScope, ok := r.tree.ScopeOf(decl)
	if !ok {
		return false
	}
	found := false
	r.tree.Walk(useScope, func(s scope.ID) bool {
		if s == paramScope {
			found = true
			return false
		}
		return true
	})
	return found
}
