// Package scope defines the lexical scope tree the checker consumes as
// external input (§6): the scope-tree builder that produces a Tree lives
// outside this repository. The tree answers containment and
// enclosing-scope queries over an already-built ast.Node graph.
package scope

import "github.com/vela-lang/velac/internal/ast"

// TranslationUnitID identifies one parsed source file.
type TranslationUnitID string

// ID identifies a node in the scope tree.
type ID uint64

// Node is one scope: a module, a trait/product body, a function body, a
// block, or a generic-parameter scope. Scopes form a tree rooted at each
// translation unit's file scope.
type Node struct {
	id          ID
	parent      ID
	hasParent   bool
	decls       []ast.Decl
	module      ast.Decl
	unit        TranslationUnitID
	isGenericOf ast.Decl // set when this scope introduces a declaration's generic parameters
}

// Tree is the read-only scope tree the checker queries. Everything it
// returns is immutable for the duration of a check run (§5).
type Tree struct {
	nodes   map[ID]*Node
	byDecl  map[ast.NodeID]ID // declaration id -> the scope it is declared in
	byID    map[ast.NodeID]ast.Node
	modules []ast.Decl
}

// New builds an empty tree. Callers (the external scope-tree builder, or a
// test harness standing in for it) populate it with AddScope/Declare/Index.
func New() *Tree {
	return &Tree{
		nodes:  make(map[ID]*Node),
		byDecl: make(map[ast.NodeID]ID),
		byID:   make(map[ast.NodeID]ast.Node),
	}
}

// AddScope registers a new scope as a child of parent (parentOK=false for a
// translation unit's root file scope).
func (t *Tree) AddScope(id, parent ID, parentOK bool, unit TranslationUnitID, module ast.Decl) *Node {
	n := &Node{id: id, parent: parent, hasParent: parentOK, unit: unit, module: module}
	t.nodes[id] = n
	if module != nil {
		t.modules = append(t.modules, module)
	}
	return n
}

// Declare records that decl is declared directly within scope s, preserving
// insertion order (ordered decl list per scope, §6).
func (t *Tree) Declare(s ID, decl ast.Decl) {
	n := t.nodes[s]
	if n == nil {
		return
	}
	n.decls = append(n.decls, decl)
	t.byDecl[decl.ID()] = s
	t.Index(decl)
}

// Index records a node for ID-based access, independent of whether it is a
// declaration (node-by-id access, §6).
func (t *Tree) Index(n ast.Node) {
	t.byID[n.ID()] = n
}

// DeclsIn returns the ordered declaration list of scope s.
func (t *Tree) DeclsIn(s ID) []ast.Decl {
	n := t.nodes[s]
	if n == nil {
		return nil
	}
	return n.decls
}

// Parent returns the lexically enclosing scope of s, if any.
func (t *Tree) Parent(s ID) (ID, bool) {
	n := t.nodes[s]
	if n == nil || !n.hasParent {
		return 0, false
	}
	return n.parent, true
}

// Walk calls visit for s and each enclosing scope, innermost first, until
// visit returns false or the root is reached. This is the primitive
// unqualified lookup walks the scope chain with (§4.3).
func (t *Tree) Walk(s ID, visit func(ID) bool) {
	cur, ok := s, true
	for ok {
		if !visit(cur) {
			return
		}
		cur, ok = t.Parent(cur)
	}
}

// ScopeOf returns the scope a declaration was declared in.
func (t *Tree) ScopeOf(decl ast.Decl) (ID, bool) {
	id, ok := t.byDecl[decl.ID()]
	return id, ok
}

// ContainingModule returns the module declaration that lexically contains s.
func (t *Tree) ContainingModule(s ID) ast.Decl {
	var m ast.Decl
	t.Walk(s, func(id ID) bool {
		if n := t.nodes[id]; n != nil && n.module != nil {
			m = n.module
			return false
		}
		return true
	})
	return m
}

// ContainingTranslationUnit returns the translation unit that lexically
// contains s.
func (t *Tree) ContainingTranslationUnit(s ID) TranslationUnitID {
	n := t.nodes[s]
	if n == nil {
		return ""
	}
	return n.unit
}

// NodeByID looks up any indexed node (declaration or expression) by its
// stable id.
func (t *Tree) NodeByID(id ast.NodeID) (ast.Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// TopLevelModules returns every module registered with the tree, in the
// order scopes were added (deterministic iteration, §5).
func (t *Tree) TopLevelModules() []ast.Decl {
	return t.modules
}
