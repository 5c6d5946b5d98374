// Package conformance implements the conformance checker (§4.6): matching
// trait requirements against candidate implementations, synthesizing
// implementations for the built-in traits Destructible/Movable/Copyable,
// and registering the result in the relations store.
package conformance

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/relations"
	"github.com/vela-lang/velac/internal/types"
)

// Built-in trait names eligible for synthesis (§4.6).
const (
	Destructible = "Destructible"
	Movable      = "Movable"
	Copyable     = "Copyable"
)

// TraitMembers is supplied by the checker (backed by the resolver's member
// tables) to enumerate a trait's requirements and a model's own members.
type TraitMembers interface {
	Requirements(trait ast.NodeID) []ast.Decl
	ModelMembers(model *types.Type) []ast.Decl
	RealizeMember(d ast.NodeID) *types.Type
	TraitName(trait ast.NodeID) string
}

// Checker matches requirements and registers conformances.
type Checker struct {
	store   *relations.Store
	members TraitMembers
	props   *properties.Store
	diags   diagnostics.Sink
}

func New(store *relations.Store, members TraitMembers, props *properties.Store, diags diagnostics.Sink) *Checker {
	return &Checker{store: store, members: members, props: props, diags: diags}
}

// Check processes one declared `Model: Trait` site (§4.6 steps 1-3). module
// is the containing module's declaration id, used only to file synthesized
// declarations under the right module (§6 `synthesizedDecls`).
func (c *Checker) Check(model, concept *types.Type, traitDecl ast.NodeID, sourceDecl ast.NodeID, module ast.NodeID, exposition relations.ScopeID, site ast.Span) {
	spec := map[uint64]*types.Type{} // empty: the trait's Self is not replaced by the model, so requirement types are compared as realized
	requirements := c.members.Requirements(traitDecl)

	impls := map[string]relations.Implementation{}
	var unmet []string
	for _, req := range requirements {
		name := requirementName(req)
		if name == "" {
			continue
		}
		reqType := types.Specialize(c.members.RealizeMember(req.ID()), spec)
		if decl, ok := c.findCandidate(model, reqType); ok {
			impls[name] = relations.Implementation{ConcreteDecl: decl, HasConcrete: true}
			continue
		}
		if kind, ok := c.synthesize(model, traitDecl, req); ok {
			impls[name] = relations.Implementation{SynthesizedKind: kind}
			c.props.AppendSynthesized(module, properties.SynthesizedDecl{Kind: kind, ForType: model, InScope: ast.NodeID(exposition)})
			continue
		}
		unmet = append(unmet, name)
	}

	if len(unmet) > 0 {
		var notes []diagnostics.DiagnosticNote
		for _, u := range unmet {
			notes = append(notes, diagnostics.DiagnosticNote{Site: site, Message: "missing requirement: " + u})
		}
		c.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.SubjectDoesNotConform,
			Severity: diagnostics.Error,
			Site:     site,
			Message:  "type does not conform to trait",
			Notes:    notes,
		})
		return
	}

	conf := &relations.Conformance{
		Model: model, Concept: concept, SourceDecl: sourceDecl, Exposition: exposition,
		Implementations: impls, Site: site,
	}
	if prior, dup := c.store.Register(conf); dup {
		c.diags.Emit(diagnostics.Diagnostic{
			Code:     diagnostics.RedundantConformance,
			Severity: diagnostics.Error,
			Site:     site,
			Message:  "redundant conformance declaration",
			Notes:    []diagnostics.DiagnosticNote{{Site: prior.Site, Message: "first declared here"}},
		})
	}
}

func requirementName(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.FunctionDecl:
		return n.Name
	case *ast.MethodBundleDecl:
		return n.Name
	case *ast.SubscriptBundleDecl:
		return n.Name
	case *ast.AssociatedTypeDecl:
		return n.Name
	case *ast.AssociatedValueDecl:
		return n.Name
	default:
		return ""
	}
}

// findCandidate looks for a member of model whose realized type equals
// the specialized requirement type under canonical equivalence (§4.6 step
// 2, function/initializer case). Bundle requirements are compared the same
// way, as whole types; their variants are not matched one by one.
func (c *Checker) findCandidate(model *types.Type, reqType *types.Type) (ast.NodeID, bool) {
	for _, d := range c.members.ModelMembers(model) {
		candType := c.members.RealizeMember(d.ID())
		if c.store.Equivalent(candType, reqType) {
			return d.ID(), true
		}
	}
	return 0, false
}

// synthesize permits built-in-trait-only synthesis. The kind synthesized is
// determined by the requirement's enclosing trait and, for Movable, the
// variant effect: set => move-initialize, inout => move-assign (§4.6).
func (c *Checker) synthesize(model *types.Type, traitDecl ast.NodeID, req ast.Decl) (string, bool) {
	name := c.members.TraitName(traitDecl)
	switch name {
	case Destructible:
		return "destroy", true
	case Movable:
		switch r := req.(type) {
		case *ast.MethodBundleDecl:
			for _, v := range r.Variants {
				switch v.Effect {
				case ast.EffectSet:
					return "move-initialize", true
				case ast.EffectInout:
					return "move-assign", true
				}
			}
		}
		return "move-initialize", true
	case Copyable:
		return "copy", true
	default:
		return "", false
	}
}
