// Package properties holds the node-id-keyed stores the checker writes to:
// realized declaration/expression types, the declRequest state machine,
// name resolution results, folded operator sequences, implicit captures,
// generic environments, and synthesized declarations.
package properties

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/types"
)

// RequestState is the three-color marker guarding realize/check recursion
// (§3, §4.1, §5).
type RequestState int

const (
	Unseen RequestState = iota
	Realizing
	Realized
	Checking
	Done
)

// DeclRefKind classifies how a name expression resolved (§3).
type DeclRefKind int

const (
	RefDirect DeclRefKind = iota
	RefMember
	RefConstructor
	RefBuiltinFunction
	RefBuiltinType
	RefBuiltinModule
	RefCompilerKnown
)

// DeclReference is what a resolved name expression points to.
type DeclReference struct {
	Kind DeclRefKind
	Decl ast.NodeID
	Args *types.ArgMap
}

// Capture is one entry of a declaration's implicit-capture list (§4.2).
type Capture struct {
	Name     string
	Effect   ast.AccessEffect
	Referred ast.NodeID
}

// SynthesizedDecl describes a compiler-generated member appended for
// lowering (§4.6 synthesis).
type SynthesizedDecl struct {
	Kind    string // "move-initialize" | "move-assign" | "destroy" | "copy"
	ForType *types.Type
	InScope ast.NodeID
}

// GenericEnvironment is the per-generic-scope parameter list plus
// constraints (§3).
type GenericEnvironment struct {
	Params      []ast.NodeID
	Constraints []ast.WhereConstraint
}

// Store is the collection of property maps. One Store belongs to exactly
// one checker instance.
type Store struct {
	declTypes   map[ast.NodeID]*types.Type
	declRequest map[ast.NodeID]RequestState

	exprTypes    map[ast.NodeID]*types.Type
	referredDecl map[ast.NodeID]DeclReference
	foldedSeq    map[ast.NodeID]ast.Expr

	implicitCaptures map[ast.NodeID][]Capture
	environments     map[ast.NodeID]*GenericEnvironment
	synthesized      map[ast.NodeID][]SynthesizedDecl
	synthOrder       []ast.NodeID
}

func New() *Store {
	return &Store{
		declTypes:        map[ast.NodeID]*types.Type{},
		declRequest:      map[ast.NodeID]RequestState{},
		exprTypes:        map[ast.NodeID]*types.Type{},
		referredDecl:     map[ast.NodeID]DeclReference{},
		foldedSeq:        map[ast.NodeID]ast.Expr{},
		implicitCaptures: map[ast.NodeID][]Capture{},
		environments:     map[ast.NodeID]*GenericEnvironment{},
		synthesized:      map[ast.NodeID][]SynthesizedDecl{},
	}
}

func (s *Store) RequestState(d ast.NodeID) RequestState { return s.declRequest[d] }
func (s *Store) SetRequestState(d ast.NodeID, st RequestState) { s.declRequest[d] = st }

func (s *Store) DeclType(d ast.NodeID) (*types.Type, bool) { t, ok := s.declTypes[d]; return t, ok }
func (s *Store) SetDeclType(d ast.NodeID, t *types.Type)   { s.declTypes[d] = t }

func (s *Store) ExprType(e ast.NodeID) (*types.Type, bool) { t, ok := s.exprTypes[e]; return t, ok }
func (s *Store) SetExprType(e ast.NodeID, t *types.Type)   { s.exprTypes[e] = t }

func (s *Store) ReferredDecl(e ast.NodeID) (DeclReference, bool) { r, ok := s.referredDecl[e]; return r, ok }
func (s *Store) SetReferredDecl(e ast.NodeID, r DeclReference)   { s.referredDecl[e] = r }

func (s *Store) FoldedSequence(e ast.NodeID) (ast.Expr, bool) { f, ok := s.foldedSeq[e]; return f, ok }
func (s *Store) SetFoldedSequence(e ast.NodeID, tree ast.Expr) { s.foldedSeq[e] = tree }

func (s *Store) ImplicitCaptures(d ast.NodeID) []Capture { return s.implicitCaptures[d] }
func (s *Store) SetImplicitCaptures(d ast.NodeID, caps []Capture) { s.implicitCaptures[d] = caps }

func (s *Store) Environment(d ast.NodeID) (*GenericEnvironment, bool) {
	e, ok := s.environments[d]
	return e, ok
}
func (s *Store) SetEnvironment(d ast.NodeID, e *GenericEnvironment) { s.environments[d] = e }

// AppendSynthesized records a synthesized declaration under module, in
// insertion order, tracking which modules have entries so iteration stays
// deterministic (§5).
func (s *Store) AppendSynthesized(module ast.NodeID, decl SynthesizedDecl) {
	if _, ok := s.synthesized[module]; !ok {
		s.synthOrder = append(s.synthOrder, module)
	}
	s.synthesized[module] = append(s.synthesized[module], decl)
}

func (s *Store) SynthesizedFor(module ast.NodeID) []SynthesizedDecl { return s.synthesized[module] }

// SynthesizedModules returns every module id with at least one synthesized decl, in
// first-append order.
func (s *Store) SynthesizedModules() []ast.NodeID { return s.synthOrder }

// AllDeclTypes returns the full decl-id -> type map (used by invariant
// checks: "for all declarations d ... declRequest(d) = done").
func (s *Store) AllDeclTypes() map[ast.NodeID]*types.Type { return s.declTypes }
