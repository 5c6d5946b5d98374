// Package demo builds a small in-memory scoped program for cmd/velac to
// run the checker against, standing in for the external parser/scope-tree
// builder spec.md places out of scope (§1, §6). It is ambient CLI
// scaffolding, not part of the checker itself.
package demo

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/capture"
	"github.com/vela-lang/velac/internal/scope"
	"github.com/vela-lang/velac/internal/types"
)

// Members is a minimal checker.Members implementation: the demo program
// declares no extensions, traits, or conformances, so every lookup beyond
// the scope tree itself returns nothing.
type Members struct {
	Tree *scope.Tree
}

func (m *Members) OwnMembers(t *types.Type) []ast.Decl                             { return nil }
func (m *Members) ExtensionsOf(t *types.Type, useScope scope.ID) []*ast.ExtensionDecl { return nil }
func (m *Members) InheritedRequirements(t *types.Type) []ast.Decl                   { return nil }

func (m *Members) Requirements(trait ast.NodeID) []ast.Decl { return nil }
func (m *Members) ModelMembers(model *types.Type) []ast.Decl { return nil }
func (m *Members) RealizeMember(d ast.NodeID) *types.Type    { return types.Error }
func (m *Members) TraitName(trait ast.NodeID) string         { return "" }

func (m *Members) ClassifyForCapture(n ast.Node) capture.Local {
	return capture.Local{NoneDomain: true}
}

// Program returns a minimal scoped program: one module with a single
// binding declaration `let answer = 42`.
func Program() (*scope.Tree, *ast.ModuleDecl, *Members) {
	tree := scope.New()

	binding := &ast.BindingDecl{
		Pattern:     &ast.NamePattern{Name: "answer"},
		Initializer: &ast.LiteralExpr{Kind: ast.LitInt, Value: 42},
	}
	module := &ast.ModuleDecl{Name: "main", Decls: []ast.Decl{binding}}

	root := scope.ID(1)
	tree.AddScope(root, 0, false, "main.vela", module)
	tree.Index(module)
	tree.Declare(root, binding)

	return tree, module, &Members{Tree: tree}
}
