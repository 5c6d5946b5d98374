// Package realizer implements the type realizer (§4.1): computing the
// overarching type of a declaration lazily, exactly once, with cycle
// detection via the three-color declRequest marker.
package realizer

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/capture"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/generics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

// Checker is the subset of the checker's surface the realizer calls back
// into for binding declarations (whose type is determined by checking the
// initializer — the mutual recursion §9 calls out).
type Checker interface {
	CheckBindingType(d *ast.BindingDecl, pattern ast.Pattern) *types.Type
}

// VarAllocator mints fresh unification variables and skolems with
// deterministic, monotonically increasing ids scoped to one checker run
// (determinism, §5).
type VarAllocator struct {
	next uint64
}

func (a *VarAllocator) Fresh(ctx uint8) *types.Type {
	a.next++
	return types.NewVariable(a.next, ctx)
}

func (a *VarAllocator) Skolem(id ast.NodeID, name string, scope ast.NodeID) *types.Type {
	return types.NewSkolem(id, name, scope)
}

const (
	ctxType  uint8 = 0
	ctxValue uint8 = 1
)

// Realizer computes declType for every declaration kind in the AST.
type Realizer struct {
	props   *properties.Store
	tree    *scope.Tree
	vars    *VarAllocator
	diags   diagnostics.Sink
	checker Checker
	gens    *generics.Builder

	// resolveTypeExpr realizes a surface TypeExpr into a Type; supplied as
	// a callback because the resolver depends on the realizer (via
	// resolver.TypeRealizer) and the realizer needs the resolver for
	// qualified/unqualified name components within a type expression —
	// breaking the cycle with a function value rather than an import.
	resolveTypeExpr func(useScope scope.ID, te ast.TypeExpr) *types.Type
	resolveName     func(useScope scope.ID, n ast.Node) capture.Local
	scopeOf         func(d ast.Decl) (scope.ID, bool)
}

func New(
	props *properties.Store,
	tree *scope.Tree,
	vars *VarAllocator,
	diags diagnostics.Sink,
	checker Checker,
	gens *generics.Builder,
	resolveTypeExpr func(useScope scope.ID, te ast.TypeExpr) *types.Type,
	resolveName func(useScope scope.ID, n ast.Node) capture.Local,
) *Realizer {
	return &Realizer{
		props: props, tree: tree, vars: vars, diags: diags, checker: checker, gens: gens,
		resolveTypeExpr: resolveTypeExpr, resolveName: resolveName,
	}
}

// RealizeTypeExpr implements resolver.TypeRealizer.
func (r *Realizer) RealizeTypeExpr(useScope scope.ID, te ast.TypeExpr) *types.Type {
	return r.resolveTypeExpr(useScope, te)
}

// RealizeDecl implements resolver.TypeRealizer and is the §4.1 `realize`
// entry point, observing and mutating declRequest as a three-color marker.
func (r *Realizer) RealizeDecl(id ast.NodeID) *types.Type {
	if t, ok := r.props.DeclType(id); ok {
		switch r.props.RequestState(id) {
		case properties.Realized, properties.Checking, properties.Done:
			return t
		}
	}
	switch r.props.RequestState(id) {
	case properties.Realizing:
		// re-entered while realizing: circular dependency (§4.1, §9).
		r.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.CircularDependency,
			Severity: diagnostics.Error,
			Message:  "circular dependency while realizing declaration",
		})
		r.props.SetRequestState(id, properties.Done)
		r.props.SetDeclType(id, types.Error)
		return types.Error
	case properties.Realized, properties.Checking, properties.Done:
		t, _ := r.props.DeclType(id)
		return t
	}

	node, ok := r.tree.NodeByID(id)
	if !ok {
		return types.Error
	}
	decl, ok := node.(ast.Decl)
	if !ok {
		return types.Error
	}

	r.props.SetRequestState(id, properties.Realizing)
	t := r.realizeByKind(decl)
	r.props.SetDeclType(id, t)
	r.props.SetRequestState(id, properties.Realized)
	return t
}

func (r *Realizer) useScopeOf(d ast.Decl) scope.ID {
	if s, ok := r.tree.ScopeOf(d); ok {
		return s
	}
	return 0
}

func (r *Realizer) realizeByKind(d ast.Decl) *types.Type {
	switch n := d.(type) {
	case *ast.AssociatedTypeDecl:
		return r.realizeAssociatedType(n)
	case *ast.AssociatedValueDecl:
		return r.realizeAssociatedValue(n)
	case *ast.BindingDecl:
		return r.checker.CheckBindingType(n, n.Pattern)
	case *ast.FunctionDecl:
		return r.realizeFunction(n)
	case *ast.MethodBundleDecl:
		return r.realizeMethodBundle(n)
	case *ast.SubscriptBundleDecl:
		return r.realizeSubscriptBundle(n)
	case *ast.GenericParamDecl:
		return r.realizeGenericParam(n)
	case *ast.ExtensionDecl:
		return r.realizeExtension(n)
	case *ast.TypeAliasDecl:
		return r.realizeAlias(n)
	case *ast.ProductDecl:
		return types.NewNominal(types.NominalProduct, d.ID(), n.Name)
	case *ast.TraitDecl:
		return types.NewNominal(types.NominalTrait, d.ID(), n.Name)
	case *ast.ModuleDecl:
		return types.NewNominal(types.NominalModule, d.ID(), n.Name)
	case *ast.NamespaceDecl:
		return types.NewNominal(types.NominalNamespace, d.ID(), n.Name)
	case *ast.ConformanceDecl:
		return types.Void // conformance decls denote no type of their own; they register a Conformance
	default:
		return types.Error
	}
}

func (r *Realizer) realizeAssociatedType(n *ast.AssociatedTypeDecl) *types.Type {
	return types.NewAssociatedType(n.ID(), n.Name)
}

func (r *Realizer) realizeAssociatedValue(n *ast.AssociatedValueDecl) *types.Type {
	vt := r.resolveTypeExpr(r.useScopeOf(n), n.Annotation)
	return types.NewAssociatedValue(n.ID(), n.Name, vt)
}

// realizeGenericParam: if the first annotation refers to a trait, the
// parameter is a type parameter; otherwise a value parameter whose type
// is that of the annotation. Multiple annotations on a value parameter
// are rejected (§4.1).
func (r *Realizer) realizeGenericParam(n *ast.GenericParamDecl) *types.Type {
	if len(n.Annotations) == 0 {
		return types.NewGenericParameter(n.ID(), n.Name, nil)
	}
	first := r.resolveTypeExpr(r.useScopeOf(n), n.Annotations[0])
	if first != nil && first.Kind() == types.KindNominal && first.NominalKind() == types.NominalTrait {
		return types.NewGenericParameter(n.ID(), n.Name, nil)
	}
	if len(n.Annotations) > 1 {
		r.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.TooManyAnnotations,
			Severity: diagnostics.Error,
			Site:     n.Pos(),
			Message:  "value generic parameter must have exactly one annotation",
		})
	}
	return types.NewGenericParameter(n.ID(), n.Name, first)
}

func (r *Realizer) realizeParams(useScope scope.ID, params []*ast.ParamDecl) []types.Param {
	out := make([]types.Param, len(params))
	for i, p := range params {
		var t *types.Type
		if p.Annotation != nil {
			t = r.resolveTypeExpr(useScope, p.Annotation)
		} else {
			// expression context (lambda parameter with no annotation): a
			// fresh variable with the supplied convention (§4.1).
			t = r.vars.Fresh(ctxType)
		}
		out[i] = types.Param{Label: p.Label, Type: t, Convention: p.Convention}
	}
	return out
}

// realizeCaptures realizes each explicit capture: let/inout introduce
// remote borrows, sink introduces an owned capture (§4.1), and rejects
// duplicate capture names (§7).
func (r *Realizer) realizeCaptures(useScope scope.ID, caps []*ast.CaptureDecl) []*types.Type {
	seen := map[string]bool{}
	out := make([]*types.Type, 0, len(caps))
	for _, c := range caps {
		if seen[c.Name] {
			r.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.DuplicateCapture,
				Severity: diagnostics.Error,
				Site:     c.Pos(),
				Message:  "duplicate capture name: " + c.Name,
			})
			continue
		}
		seen[c.Name] = true
		var elemT *types.Type
		if c.Initializer != nil {
			elemT = r.vars.Fresh(ctxType) // initializer's type is pinned down by the constraint generator later
		} else {
			elemT = r.vars.Fresh(ctxType)
		}
		switch c.Introducer {
		case ast.EffectLet, ast.EffectInout:
			out = append(out, types.NewRemote(c.Introducer, elemT))
		default:
			out = append(out, elemT)
		}
	}
	return out
}

// implicitCaptures runs capture analysis (§4.2) and writes the result into
// the property store, merging mutability into an access effect: inout if
// any use is mutable, else let.
func (r *Realizer) implicitCaptures(d ast.NodeID, body ast.Expr) []*types.Type {
	if body == nil || r.resolveName == nil {
		return nil
	}
	uses := capture.Collect(body, func(n ast.Node) capture.Local {
		return r.resolveName(0, n)
	})
	var caps []properties.Capture
	var envTypes []*types.Type
	for _, u := range uses {
		effect := ast.EffectLet
		if u.Mutable {
			effect = ast.EffectInout
		}
		caps = append(caps, properties.Capture{Name: u.Name, Effect: effect})
		envTypes = append(envTypes, types.NewRemote(effect, r.vars.Fresh(ctxType)))
	}
	r.props.SetImplicitCaptures(d, caps)
	return envTypes
}

// memberwise initializers: the elaborator that builds the AST already
// expands "receiver plus one sink parameter per stored binding of the
// enclosing product type" (§4.1) into n.Params with EffectSink conventions
// before the checker ever sees the declaration; realizeFunction treats
// KindMemberwiseInitializer identically to KindInitializer below, since by
// the time it runs the parameter list already has the memberwise shape.
func (r *Realizer) realizeFunction(n *ast.FunctionDecl) *types.Type {
	useScope := r.useScopeOf(n)
	if len(n.GenericParams) > 0 {
		r.gens.Build(n.ID(), useScope, n.GenericParams, n.Where)
		for _, gp := range n.GenericParams {
			r.RealizeDecl(gp.ID())
		}
	}
	inputs := r.realizeParams(useScope, n.Params)
	env := r.realizeCaptures(useScope, n.ExplicitCaptures)
	env = append(env, r.implicitCaptures(n.ID(), n.Body)...)

	var receiver *types.Type
	if n.HasReceiver {
		receiver = r.vars.Fresh(ctxType) // bound to Self by the enclosing product/extension/conformance at call sites
	}

	var output *types.Type
	switch {
	case n.Return != nil:
		output = r.resolveTypeExpr(useScope, n.Return)
	case n.Body == nil:
		output = types.Void
	default:
		output = r.vars.Fresh(ctxType)
	}

	return types.NewLambda(&types.Callable{
		ReceiverEffect: n.ReceiverEffect,
		HasReceiver:    n.HasReceiver,
		Receiver:       receiver,
		Environment:    env,
		Inputs:         inputs,
		Output:         output,
	})
}

// realizeVariant derives one bundle variant's callable type by substituting
// the variant's effect through the bundle's receiver/yielded positions
// (§4.1). For inout/set variants, the output must be a 2-tuple whose first
// element equals the receiver type; this is validated, not constructed,
// here — ill-formed variants get Error and a diagnostic.
func (r *Realizer) realizeVariant(receiverType *types.Type, v ast.BundleVariant) *types.Callable {
	lambda := r.realizeFunction(v.Fn)
	c := lambda.Callable()
	out := &types.Callable{
		ReceiverEffect: v.Effect,
		HasReceiver:    true,
		Receiver:       receiverType,
		Environment:    c.Environment,
		Inputs:         c.Inputs,
		Output:         c.Output,
	}
	if v.Effect == ast.EffectInout || v.Effect == ast.EffectSet {
		if out.Output.Kind() != types.KindTuple || len(out.Output.Elements()) != 2 || !types.Equal(out.Output.Elements()[0], receiverType) {
			r.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.InvalidVariantShape,
				Severity: diagnostics.Error,
				Site:     v.Fn.Pos(),
				Message:  "inout/set bundle variant must return (Self, Result)",
			})
			out.Output = types.Error
		}
	}
	return out
}

func (r *Realizer) realizeMethodBundle(n *ast.MethodBundleDecl) *types.Type {
	receiver := r.vars.Fresh(ctxType)
	variants := map[ast.AccessEffect]*types.Callable{}
	for _, v := range n.Variants {
		if _, dup := variants[v.Effect]; dup {
			r.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.InvalidVariantShape,
				Severity: diagnostics.Error,
				Site:     v.Fn.Pos(),
				Message:  "duplicate bundle variant effect",
			})
			continue
		}
		variants[v.Effect] = r.realizeVariant(receiver, v)
	}
	return types.NewMethodBundle(&types.Callable{HasReceiver: true, Receiver: receiver, Variants: variants})
}

func (r *Realizer) realizeSubscriptBundle(n *ast.SubscriptBundleDecl) *types.Type {
	receiver := r.vars.Fresh(ctxType)
	variants := map[ast.AccessEffect]*types.Callable{}
	for _, v := range n.Variants {
		variants[v.Effect] = r.realizeVariant(receiver, v)
	}
	return types.NewSubscriptBundle(&types.Callable{HasReceiver: true, Receiver: receiver, IsProperty: n.IsProperty, Variants: variants})
}

// realizeExtension realizes the subject as a metatype; extensions of
// built-in types are rejected (§4.1).
func (r *Realizer) realizeExtension(n *ast.ExtensionDecl) *types.Type {
	subject := r.resolveTypeExpr(r.useScopeOf(n), n.Subject)
	if subject != nil {
		switch subject.Kind() {
		case types.KindNever, types.KindVoid, types.KindAny, types.KindBuiltinModule, types.KindPointer:
			r.diags.Emit(diagnostics.Diagnostic{
				Code:     diagnostics.BuiltinExtension,
				Severity: diagnostics.Error,
				Site:     n.Pos(),
				Message:  "cannot extend a built-in type",
			})
			return types.Error
		}
	}
	return types.NewMetatype(subject)
}

// realizeAlias realizes the aliased expression, forbidding cycles (the
// shared RealizeDecl cycle detection covers alias cycles of any length and
// reports them as CircularDependency; the AliasCycle code is not emitted).
func (r *Realizer) realizeAlias(n *ast.TypeAliasDecl) *types.Type {
	return r.resolveTypeExpr(r.useScopeOf(n), n.Aliased)
}

// ResolveAlias adapts RealizeDecl to the relations.Store's alias-expansion
// callback signature.
func (r *Realizer) ResolveAlias(declID uint64) (*types.Type, bool) {
	t := r.RealizeDecl(ast.NodeID(declID))
	return t, t != nil && t != types.Error
}
