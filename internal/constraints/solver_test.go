package constraints

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/velac/internal/types"
)

var typeComparer = cmp.Comparer(func(a, b *types.Type) bool { return types.Equal(a, b) })

func TestSolveUnifiesVariableWithConcrete(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	s := &Solver{}
	sol := s.Solve([]Constraint{{Kind: KindEquality, T: v, U: intT}})
	assert.True(t, sol.Sound)
	assert.True(t, types.Equal(sol.ApplyPublic(v), intT))
}

func TestSolveSubtypingAnyAccepted(t *testing.T) {
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	s := &Solver{}
	sol := s.Solve([]Constraint{{Kind: KindSubtyping, T: intT, U: types.Any}})
	assert.True(t, sol.Sound)
}

func TestSolveDisjunctionPrefersLowerPenalty(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	neverT := types.Never

	s := &Solver{}
	sol := s.Solve([]Constraint{{
		Kind: KindDisjunction,
		Alternatives: []Alternative{
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: intT}}, Penalty: 0},
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: neverT}}, Penalty: 1},
		},
	}})
	assert.True(t, sol.Sound)
	assert.True(t, types.Equal(sol.ApplyPublic(v), intT), "zero-penalty branch should win")
}

func TestSolveDisjunctionTieIsAmbiguous(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	strT := types.NewNominal(types.NominalProduct, 2, "String")

	s := &Solver{}
	sol := s.Solve([]Constraint{{
		Kind: KindDisjunction,
		Alternatives: []Alternative{
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: intT}}, Penalty: 0},
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: strT}}, Penalty: 0},
		},
	}})
	assert.NotEmpty(t, sol.Diagnostics)
}

func TestSolveDisjunctionSubstitutionMatchesWinningBranchExactly(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	neverT := types.Never

	s := &Solver{}
	sol := s.Solve([]Constraint{{
		Kind: KindDisjunction,
		Alternatives: []Alternative{
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: intT}}, Penalty: 0},
			{Constraints: []Constraint{{Kind: KindEquality, T: v, U: neverT}}, Penalty: 1},
		},
	}})

	vid, _ := v.VariableID()
	want := map[uint64]*types.Type{vid: intT}
	if diff := cmp.Diff(want, sol.Substitution, typeComparer); diff != "" {
		t.Fatalf("substitution mismatch (-want +got):\n%s", diff)
	}
}

func TestOccursCheckRejectsSelfReference(t *testing.T) {
	v := types.NewVariable(1, 0)
	cyclic := types.NewTuple(v, types.Any)
	s := &Solver{}
	sol := s.Solve([]Constraint{{Kind: KindEquality, T: v, U: cyclic}})
	assert.False(t, sol.Sound)
}

// A Subtyping constraint against a variable that nothing else ever binds
// (e.g. a function body returning a bare literal with no declared return
// type) must terminate: the solver parks it as unresolved instead of
// re-queuing it forever.
func TestSolveSubtypingAgainstUnboundVariableTerminates(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")

	done := make(chan *Solution, 1)
	go func() {
		s := &Solver{}
		done <- s.Solve([]Constraint{{Kind: KindSubtyping, T: intT, U: v}})
	}()

	select {
	case sol := <-done:
		assert.False(t, sol.Sound)
		assert.NotEmpty(t, sol.Diagnostics)
	case <-time.After(2 * time.Second):
		t.Fatal("Solve did not terminate: unbound variable-sided subtyping constraint re-queued forever")
	}
}

// Interleaved constraints still let the variable resolve: an Equality
// elsewhere in the same work list binds it before the Subtyping constraint
// is ever parked.
func TestSolveSubtypingAgainstVariableBoundLaterInWorklist(t *testing.T) {
	v := types.NewVariable(1, 0)
	intT := types.NewNominal(types.NominalProduct, 1, "Int")
	other := types.NewVariable(2, 0)

	s := &Solver{}
	sol := s.Solve([]Constraint{
		{Kind: KindSubtyping, T: intT, U: v},
		{Kind: KindEquality, T: other, U: intT},
		{Kind: KindEquality, T: v, U: other},
	})
	assert.True(t, sol.Sound)
}
