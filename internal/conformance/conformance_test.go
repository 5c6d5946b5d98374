package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/relations"
	"github.com/vela-lang/velac/internal/types"
)

type fakeTraitMembers struct {
	requirements map[ast.NodeID][]ast.Decl
	modelMembers map[string][]ast.Decl
	realized     map[ast.NodeID]*types.Type
	traitNames   map[ast.NodeID]string
}

func (f fakeTraitMembers) Requirements(trait ast.NodeID) []ast.Decl { return f.requirements[trait] }
func (f fakeTraitMembers) ModelMembers(model *types.Type) []ast.Decl {
	return f.modelMembers[model.String()]
}
func (f fakeTraitMembers) RealizeMember(d ast.NodeID) *types.Type { return f.realized[d] }
func (f fakeTraitMembers) TraitName(trait ast.NodeID) string      { return f.traitNames[trait] }

func noAlias(declID uint64) (*types.Type, bool) { return nil, false }

func TestCheckRegistersConformanceWhenRequirementMatched(t *testing.T) {
	model := types.NewNominal(types.NominalProduct, 1, "Box")
	trait := types.NewNominal(types.NominalTrait, 2, "Openable")

	req := &ast.FunctionDecl{Name: "open"}
	req.NID = 10
	impl := &ast.FunctionDecl{Name: "open"}
	impl.NID = 11
	sig := types.NewLambda(&types.Callable{Output: types.Void})

	members := fakeTraitMembers{
		requirements: map[ast.NodeID][]ast.Decl{2: {req}},
		modelMembers: map[string][]ast.Decl{model.String(): {impl}},
		realized:     map[ast.NodeID]*types.Type{10: sig, 11: sig},
	}
	store := relations.New(noAlias)
	diags := &diagnostics.Set{}
	c := New(store, members, properties.New(), diags)

	c.Check(model, trait, 2, 20, 0, relations.ScopeID(1), ast.Span{})

	assert.Equal(t, 0, diags.Len())
	assert.Len(t, store.All(), 1)
}

func TestCheckEmitsDoesNotConformWhenRequirementUnmet(t *testing.T) {
	model := types.NewNominal(types.NominalProduct, 1, "Box")
	trait := types.NewNominal(types.NominalTrait, 2, "Openable")
	req := &ast.FunctionDecl{Name: "open"}
	req.NID = 10

	members := fakeTraitMembers{
		requirements: map[ast.NodeID][]ast.Decl{2: {req}},
		modelMembers: map[string][]ast.Decl{},
		realized:     map[ast.NodeID]*types.Type{10: types.NewLambda(&types.Callable{})},
	}
	store := relations.New(noAlias)
	diags := &diagnostics.Set{}
	c := New(store, members, properties.New(), diags)

	c.Check(model, trait, 2, 20, 0, relations.ScopeID(1), ast.Span{})

	assert.Equal(t, 1, diags.Len())
	assert.Equal(t, diagnostics.SubjectDoesNotConform, diags.All()[0].Code)
	assert.Empty(t, store.All())
}

func TestCheckSynthesizesDestructibleRequirement(t *testing.T) {
	model := types.NewNominal(types.NominalProduct, 1, "Box")
	trait := types.NewNominal(types.NominalTrait, 2, "Destructible")
	req := &ast.FunctionDecl{Name: "destroy"}
	req.NID = 10

	members := fakeTraitMembers{
		requirements: map[ast.NodeID][]ast.Decl{2: {req}},
		modelMembers: map[string][]ast.Decl{},
		realized:     map[ast.NodeID]*types.Type{10: types.NewLambda(&types.Callable{})},
		traitNames:   map[ast.NodeID]string{2: Destructible},
	}
	store := relations.New(noAlias)
	props := properties.New()
	diags := &diagnostics.Set{}
	c := New(store, members, props, diags)

	c.Check(model, trait, 2, 20, 0, relations.ScopeID(1), ast.Span{})

	assert.Equal(t, 0, diags.Len())
	assert.Len(t, store.All(), 1)
	assert.Len(t, props.SynthesizedFor(ast.NodeID(0)), 1)
	assert.Equal(t, "destroy", props.SynthesizedFor(ast.NodeID(0))[0].Kind)
}

func TestCheckEmitsRedundantConformanceOnDuplicate(t *testing.T) {
	model := types.NewNominal(types.NominalProduct, 1, "Box")
	trait := types.NewNominal(types.NominalTrait, 2, "Destructible")
	req := &ast.FunctionDecl{Name: "destroy"}
	req.NID = 10

	members := fakeTraitMembers{
		requirements: map[ast.NodeID][]ast.Decl{2: {req}},
		modelMembers: map[string][]ast.Decl{},
		realized:     map[ast.NodeID]*types.Type{10: types.NewLambda(&types.Callable{})},
		traitNames:   map[ast.NodeID]string{2: Destructible},
	}
	store := relations.New(noAlias)
	diags := &diagnostics.Set{}
	c := New(store, members, properties.New(), diags)

	c.Check(model, trait, 2, 20, 0, relations.ScopeID(1), ast.Span{})
	c.Check(model, trait, 2, 21, 0, relations.ScopeID(1), ast.Span{})

	var redundant int
	for _, d := range diags.All() {
		if d.Code == diagnostics.RedundantConformance {
			redundant++
		}
	}
	assert.Equal(t, 1, redundant)
}
