// Package generics builds generic environments: per generic-scope id, the
// ordered parameter list plus the where-clause constraints that apply to
// it, including sugared conformance constraints written directly on a
// generic parameter's annotation list.
package generics

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/scope"
)

// Builder constructs GenericEnvironments lazily and caches them in a
// properties.Store, as spec.md §3 requires ("built lazily and cached").
type Builder struct {
	store      *properties.Store
	isTraitRef func(useScope scope.ID, te ast.TypeExpr) bool
}

// New constructs a Builder. isTraitRef classifies whether a generic
// parameter's annotation expression denotes a trait (vs. a concrete type,
// which marks the parameter as a value parameter whose type is that
// annotation) — supplied by the checker, which already has a realizer in
// hand, so this package stays decoupled from name resolution.
func New(store *properties.Store, isTraitRef func(useScope scope.ID, te ast.TypeExpr) bool) *Builder {
	return &Builder{store: store, isTraitRef: isTraitRef}
}

// Build returns the cached environment for scopeID if present, otherwise
// constructs it from params and where, caches it, and returns it. useScope
// is the scope params are declared in, used to classify each parameter's
// first annotation.
func (b *Builder) Build(scopeID ast.NodeID, useScope scope.ID, params []*ast.GenericParamDecl, where []ast.WhereConstraint) *properties.GenericEnvironment {
	if env, ok := b.store.Environment(scopeID); ok {
		return env
	}
	env := &properties.GenericEnvironment{}
	for _, p := range params {
		env.Params = append(env.Params, p.ID())
		// A generic parameter's own annotation list sugars conformance
		// constraints: `<T: Equatable>` desugars to a where-constraint `T:
		// Equatable` at the parameter's own site. The first annotation
		// also determines (in the realizer) whether T is a type or value
		// parameter; it only sugars into a constraint here when it
		// actually denotes a trait, so a value parameter's single type
		// annotation (e.g. `<N: Int>`) is not mistaken for a bound.
		for i, ann := range p.Annotations {
			if i == 0 && (b.isTraitRef == nil || !b.isTraitRef(useScope, ann)) {
				continue
			}
			env.Constraints = append(env.Constraints, ast.WhereConstraint{
				Subject:  &ast.NameTypeExpr{Components: []ast.NameTypeComponent{{Stem: p.Name}}},
				Conforms: ann,
			})
		}
	}
	env.Constraints = append(env.Constraints, where...)
	b.store.SetEnvironment(scopeID, env)
	return env
}
