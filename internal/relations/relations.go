// Package relations is the checker's relations store: canonicalization,
// equivalence queries, registered conformances, and the refinement closure
// over trait-inherits-trait edges.
package relations

import (
	"fmt"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/sid"
	"github.com/vela-lang/velac/internal/types"
)

// ScopeID identifies an exposition scope: the scope a registered
// conformance is visible in (file-level conformances are promoted to
// module-wide visibility, per the glossary).
type ScopeID uint64

// Conformance records that Model conforms to Concept, with the evidence
// needed to lower it later (§3).
type Conformance struct {
	Model          *types.Type
	Concept        *types.Type
	Arguments      *types.ArgMap
	Conditions     []ast.WhereConstraint
	SourceDecl     ast.NodeID
	Exposition     ScopeID
	Implementations map[string]Implementation
	Site           ast.Span
}

// Implementation is either a concrete declaration id or a synthesized kind
// (built-in Destructible/Movable/Copyable synthesis, §4.6).
type Implementation struct {
	ConcreteDecl   ast.NodeID
	HasConcrete    bool
	SynthesizedKind string
}

// Store is the relations store. One Store belongs to exactly one checker
// instance (§5); a ReadOnlyView wrapper (internal/checker) guards concurrent
// reads after checking completes.
type Store struct {
	resolveAlias func(declID uint64) (*types.Type, bool)

	// conformances keyed by (model canonical string, concept canonical
	// string, exposition scope) to enforce "at most one per exposition
	// scope" (§3 invariant).
	conformances map[string]*Conformance
	order        []string

	// refines[traitDeclID] = set of directly-refined trait decl ids, as
	// declared via `trait A: B`.
	refines map[ast.NodeID][]ast.NodeID
}

// New constructs an empty store. resolveAlias lets Canonical expand type
// aliases without internal/relations importing the realizer (would create
// a package cycle).
func New(resolveAlias func(declID uint64) (*types.Type, bool)) *Store {
	return &Store{
		resolveAlias: resolveAlias,
		conformances: map[string]*Conformance{},
		refines:      map[ast.NodeID][]ast.NodeID{},
	}
}

// Canonical delegates to types.Canonical using the store's alias resolver.
func (s *Store) Canonical(t *types.Type) *types.Type {
	return types.Canonical(t, s.resolveAlias)
}

// Equivalent reports whether two types are canonically equal.
func (s *Store) Equivalent(a, b *types.Type) bool {
	return types.Equal(s.Canonical(a), s.Canonical(b))
}

func conformanceKey(model, concept *types.Type, scope ScopeID) string {
	return fmt.Sprintf("%s::%s::%d", model.String(), concept.String(), scope)
}

// ConformanceID returns the deterministic id a conformance registration
// would use, derived from its key material rather than a counter (§5
// determinism).
func ConformanceID(model, concept *types.Type, scope ScopeID) sid.ID {
	return sid.New(model.String(), concept.String(), fmt.Sprint(scope))
}

// Register inserts c into the store. Returns the previously registered
// conformance and true if one already existed for the same (model, concept)
// pair in the same exposition scope — callers emit RedundantConformance
// and keep the first registration (§4.6: "redundant registrations ...
// emit a diagnostic citing both sites").
func (s *Store) Register(c *Conformance) (prior *Conformance, duplicate bool) {
	key := conformanceKey(s.Canonical(c.Model), s.Canonical(c.Concept), c.Exposition)
	if existing, ok := s.conformances[key]; ok {
		return existing, true
	}
	s.conformances[key] = c
	s.order = append(s.order, key)
	return nil, false
}

// Lookup finds a registered conformance of model to concept in scope, or
// any ancestor scope the caller has already promoted into scope's view
// (promotion itself — module-wide visibility of file-level conformances —
// is the caller's responsibility when building ScopeID values).
func (s *Store) Lookup(model, concept *types.Type, scope ScopeID) (*Conformance, bool) {
	key := conformanceKey(s.Canonical(model), s.Canonical(concept), scope)
	c, ok := s.conformances[key]
	return c, ok
}

// All returns every registered conformance in registration order
// (deterministic iteration, §5).
func (s *Store) All() []*Conformance {
	out := make([]*Conformance, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.conformances[k])
	}
	return out
}

// DeclareRefinement records that trait `sub` refines trait `super` (`trait
// Sub: Super`).
func (s *Store) DeclareRefinement(sub, super ast.NodeID) {
	s.refines[sub] = append(s.refines[sub], super)
}

// RefinementClosure returns every trait (including the starting trait)
// reachable by following refines edges, in BFS discovery order — used to
// answer "relations.conformedTraits(T) = {A, B}" queries (§8 scenario 1)
// once combined with ConformedTraits.
func (s *Store) RefinementClosure(trait ast.NodeID) []ast.NodeID {
	seen := map[ast.NodeID]bool{trait: true}
	queue := []ast.NodeID{trait}
	var out []ast.NodeID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		for _, parent := range s.refines[cur] {
			if !seen[parent] {
				seen[parent] = true
				queue = append(queue, parent)
			}
		}
	}
	return out
}

// ConformedTraits returns every trait model conforms to in scope, expanded
// through the refinement closure: a direct conformance to Sub implies
// conformance to every trait Sub transitively refines. traitDeclOf maps a
// trait Type to its introducing declaration id; traitTypeOf is its
// inverse, supplied by the realizer's declType cache.
func (s *Store) ConformedTraits(model *types.Type, scope ScopeID, traitDeclOf func(*types.Type) ast.NodeID, traitTypeOf func(ast.NodeID) *types.Type) []*types.Type {
	seen := map[ast.NodeID]bool{}
	var out []*types.Type
	for _, c := range s.All() {
		if c.Exposition != scope || !s.Equivalent(c.Model, model) {
			continue
		}
		declID := traitDeclOf(c.Concept)
		for _, ancestor := range s.RefinementClosure(declID) {
			if !seen[ancestor] {
				seen[ancestor] = true
				out = append(out, traitTypeOf(ancestor))
			}
		}
	}
	return out
}
