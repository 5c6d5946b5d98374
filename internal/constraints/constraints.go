// Package constraints implements the constraint generator and solver
// (§4.4, §4.5): per-expression constraint generation with deferred
// queries, and a work-list solver with disjunction backtracking and
// scoring.
package constraints

import (
	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/diagnostics"
	"github.com/vela-lang/velac/internal/properties"
	"github.com/vela-lang/velac/internal/types"
)

// Kind tags a constraint variant (§4.4).
type Kind int

const (
	KindEquality Kind = iota
	KindSubtyping
	KindParameter
	KindConformance
	KindDisjunction
	KindOverloadBinding
	KindMember
)

// Constraint is one unit of work for the solver.
type Constraint struct {
	Kind   Kind
	T, U   *types.Type
	Origin ast.Span

	// Conformance
	Traits []*types.Type

	// Disjunction
	Alternatives []Alternative

	// OverloadBinding
	NameExpr   ast.NodeID
	Candidates []Candidate

	// Member
	Receiver *types.Type
	Name     string
	Result   *types.Type
}

// Alternative is one branch of a Disjunction constraint: a sub-problem plus
// the penalty incurred if chosen (§4.4, §4.5).
type Alternative struct {
	Constraints []Constraint
	Penalty     int
	Label       string
}

// Candidate is one overload choice, carrying its own side-constraints
// (§4.4: "OverloadBinding ... each carries its own side-constraints").
type Candidate struct {
	Ref         properties.DeclReference
	Type        *types.Type
	Constraints []Constraint
}

// InferenceFacts maps each sub-expression id to its inferred type,
// possibly still a fresh variable pending solving (§4.4).
type InferenceFacts struct {
	types map[ast.NodeID]*types.Type
}

func NewInferenceFacts() *InferenceFacts { return &InferenceFacts{types: map[ast.NodeID]*types.Type{}} }
func (f *InferenceFacts) Set(e ast.NodeID, t *types.Type) { f.types[e] = t }
func (f *InferenceFacts) Get(e ast.NodeID) (*types.Type, bool) { t, ok := f.types[e]; return t, ok }

// AllUnsafe returns the underlying id->type map directly; callers must not
// mutate it (it is the generator's own storage, not a copy).
func (f *InferenceFacts) AllUnsafe() map[ast.NodeID]*types.Type { return f.types }

// DeferredQuery runs post-hoc against the final Solution, e.g. to check a
// lambda body once its signature is inferred (§4.4). Returns whether the
// result remains sound.
type DeferredQuery func(sol *Solution) (sound bool)

// GeneratorResult is what Generate returns for one expression.
type GeneratorResult struct {
	Facts       *InferenceFacts
	Constraints []Constraint
	Hints       map[ast.NodeID][]Candidate // overloaded name-expr id -> candidates, for OverloadBinding
	Deferred    []DeferredQuery
}

// TraceEntry records one solver step for the inference-tracing hook
// (SPEC_FULL §4.9).
type TraceEntry struct {
	ConstraintText string
	Action         string
	Substitution   map[uint64]*types.Type
}

// Solution is the solver's output (§4.5).
type Solution struct {
	Substitution map[uint64]*types.Type
	Overloads    map[ast.NodeID]properties.DeclReference
	Diagnostics  []diagnostics.Diagnostic
	Sound        bool
	Trace        []TraceEntry
}

func newSolution() *Solution {
	return &Solution{Substitution: map[uint64]*types.Type{}, Overloads: map[ast.NodeID]properties.DeclReference{}, Sound: true}
}

// ApplyPublic substitutes every resolved variable in t with the solution's
// final binding, for callers outside this package (the checker, writing
// solved types into its property store).
func (s *Solution) ApplyPublic(t *types.Type) *types.Type { return s.apply(t) }

func (s *Solution) apply(t *types.Type) *types.Type {
	return types.Transform(t, func(x *types.Type) *types.Type {
		if x.Kind() == types.KindVariable {
			id, _ := x.VariableID()
			if r, ok := s.Substitution[id]; ok {
				return s.apply(r)
			}
		}
		return x
	})
}

// Solver runs the work-list algorithm of §4.5.
type Solver struct {
	TraceSite *ast.Pos // when set, inferenceTracingSite (SPEC_FULL §4.9)
}

// Solve processes constraints to a fixpoint, forking on Disjunction and
// OverloadBinding, pruning branches whose score already exceeds the best
// completed score, and reporting ties as ambiguous (§4.5).
func (s *Solver) Solve(cs []Constraint) *Solution {
	best := s.solveBranch(cs, newSolution(), 0, nil)
	if best == nil {
		sol := newSolution()
		sol.Sound = false
		return sol
	}
	return best
}

type branchOutcome struct {
	sol   *Solution
	score int
}

// solveBranch processes a work list under one accumulated score, forking at
// the first Disjunction/OverloadBinding it meets and recursing into each
// alternative, then picking (and reporting ties among) the lowest-scoring
// completions.
func (s *Solver) solveBranch(work []Constraint, sol *Solution, score int, bestSoFar *int) *Solution {
	outcomes := s.run(work, sol, score)
	if len(outcomes) == 0 {
		return nil
	}
	minScore := outcomes[0].score
	for _, o := range outcomes[1:] {
		if o.score < minScore {
			minScore = o.score
		}
	}
	var tied []*branchOutcome
	for i := range outcomes {
		if outcomes[i].score == minScore {
			tied = append(tied, &outcomes[i])
		}
	}
	if len(tied) > 1 {
		for _, t := range tied {
			t.sol.Diagnostics = append(t.sol.Diagnostics, diagnostics.Diagnostic{
				Code:     diagnostics.AmbiguousOverload,
				Severity: diagnostics.Error,
				Message:  "ambiguous: multiple solutions tie on score",
			})
		}
	}
	return tied[0].sol
}

// run processes a flat constraint list (no further forks already queued)
// to completion, returning every completed outcome along disjunction
// branches taken along the way.
//
// A constraint that re-queues itself unchanged (an unresolved variable on
// either side of a Subtyping/Parameter/Member constraint) makes no progress
// on its own; stall counts consecutive no-progress dequeues and resets
// whenever some constraint actually resolves. Once stall exceeds the
// current queue length, every remaining constraint has had a full lap to
// resolve and none did, so the solver parks the rest as unresolved rather
// than spinning forever (§4.5's termination argument requires every pass
// to strictly reduce unresolved variables or constraint count).
func (s *Solver) run(work []Constraint, sol *Solution, score int) []branchOutcome {
	queue := append([]Constraint{}, work...)
	stall := 0
	for len(queue) > 0 {
		if stall > len(queue) {
			s.parkUnresolved(queue, sol)
			break
		}
		c := queue[0]
		queue = queue[1:]
		progressed := true
		switch c.Kind {
		case KindEquality:
			if !s.unify(sol, c.T, c.U) {
				sol.Sound = false
			}
		case KindSubtyping:
			before := len(queue)
			if !s.subtype(sol, c.T, c.U, &queue) {
				sol.Sound = false
			}
			progressed = len(queue) == before
		case KindParameter:
			t := stripConvention(c.T)
			u := stripConvention(c.U)
			before := len(queue)
			if !s.subtype(sol, t, u, &queue) {
				sol.Sound = false
			}
			progressed = len(queue) == before
		case KindConformance:
			// accepted without any check: the solver consults no
			// conformance table, so a conformance constraint always
			// succeeds, is processed exactly once, and is never
			// re-queued.
		case KindMember:
			r := sol.apply(c.Receiver)
			if r.HasVariable() {
				queue = append(queue, c) // leave queued until receiver is concrete
				progressed = false
			}
			// once the receiver is concrete the constraint is dropped: it
			// is not refined into equality+parameter constraints, and the
			// member's existence is not checked.
		case KindDisjunction:
			return s.fork(c.Alternatives, queue, sol, score)
		case KindOverloadBinding:
			alts := make([]Alternative, len(c.Candidates))
			for i, cand := range c.Candidates {
				alts[i] = Alternative{Constraints: cand.Constraints, Penalty: 0}
			}
			return s.forkOverload(c, alts, queue, sol, score)
		}
		if progressed {
			stall = 0
		} else {
			stall++
		}
		s.trace(c, sol)
	}
	return []branchOutcome{{sol: sol, score: score}}
}

// parkUnresolved reports every constraint still stuck on an unbound
// variable after a full pass made no progress on any of them: there is not
// enough context in the program to ever resolve them (§4.5).
func (s *Solver) parkUnresolved(queue []Constraint, sol *Solution) {
	sol.Sound = false
	for _, c := range queue {
		sol.Diagnostics = append(sol.Diagnostics, diagnostics.Diagnostic{
			Code:     diagnostics.UnresolvedConstraint,
			Severity: diagnostics.Error,
			Site:     c.Origin,
			Message:  "not enough context to resolve this constraint",
		})
	}
}

func (s *Solver) fork(alts []Alternative, rest []Constraint, sol *Solution, baseScore int) []branchOutcome {
	var out []branchOutcome
	bestKnown := -1
	for _, alt := range alts {
		branchScore := baseScore + alt.Penalty
		if bestKnown >= 0 && branchScore > bestKnown {
			continue // pruned: already worse than a completed branch (§4.5)
		}
		branchSol := cloneSolution(sol)
		combined := append(append([]Constraint{}, alt.Constraints...), rest...)
		results := s.run(combined, branchSol, branchScore)
		for _, r := range results {
			if bestKnown < 0 || r.score < bestKnown {
				bestKnown = r.score
			}
			out = append(out, r)
		}
	}
	return out
}

func (s *Solver) forkOverload(c Constraint, alts []Alternative, rest []Constraint, sol *Solution, baseScore int) []branchOutcome {
	var out []branchOutcome
	for i, alt := range alts {
		branchSol := cloneSolution(sol)
		branchSol.Overloads[c.NameExpr] = c.Candidates[i].Ref
		combined := append(append([]Constraint{}, alt.Constraints...), rest...)
		results := s.run(combined, branchSol, baseScore+alt.Penalty)
		out = append(out, results...)
	}
	return out
}

func cloneSolution(sol *Solution) *Solution {
	n := newSolution()
	for k, v := range sol.Substitution {
		n.Substitution[k] = v
	}
	for k, v := range sol.Overloads {
		n.Overloads[k] = v
	}
	n.Diagnostics = append(n.Diagnostics, sol.Diagnostics...)
	n.Sound = sol.Sound
	n.Trace = append(n.Trace, sol.Trace...)
	return n
}

func (s *Solver) trace(c Constraint, sol *Solution) {
	if s.TraceSite == nil || !c.Origin.Overlaps(*s.TraceSite) {
		return
	}
	sol.Trace = append(sol.Trace, TraceEntry{
		ConstraintText: kindText(c.Kind),
		Action:         "processed",
		Substitution:   copySub(sol.Substitution),
	})
}

func copySub(m map[uint64]*types.Type) map[uint64]*types.Type {
	out := make(map[uint64]*types.Type, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func kindText(k Kind) string {
	switch k {
	case KindEquality:
		return "equality"
	case KindSubtyping:
		return "subtyping"
	case KindParameter:
		return "parameter"
	case KindConformance:
		return "conformance"
	case KindDisjunction:
		return "disjunction"
	case KindOverloadBinding:
		return "overload-binding"
	case KindMember:
		return "member"
	default:
		return "?"
	}
}

func stripConvention(t *types.Type) *types.Type {
	if t != nil && t.Kind() == types.KindParameter {
		return t.Of()
	}
	return t
}

// unify implements Equality with an occurs check, respecting flag
// propagation (§4.5).
func (s *Solver) unify(sol *Solution, a, b *types.Type) bool {
	a = sol.apply(a)
	b = sol.apply(b)
	if a == nil || b == nil {
		return true
	}
	if a.Kind() == types.KindVariable {
		id, _ := a.VariableID()
		if occurs(id, b) {
			return false
		}
		sol.Substitution[id] = b
		return true
	}
	if b.Kind() == types.KindVariable {
		return s.unify(sol, b, a)
	}
	if a.Kind() != b.Kind() {
		return a.Kind() == types.KindError || b.Kind() == types.KindError
	}
	switch a.Kind() {
	case types.KindTuple, types.KindSum:
		ae, be := a.Elements(), b.Elements()
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !s.unify(sol, ae[i], be[i]) {
				return false
			}
		}
		return true
	case types.KindLambda:
		return s.unifyCallable(sol, a.Callable(), b.Callable())
	default:
		return types.Equal(a, b)
	}
}

func (s *Solver) unifyCallable(sol *Solution, a, b *types.Callable) bool {
	if len(a.Inputs) != len(b.Inputs) {
		return false
	}
	for i := range a.Inputs {
		if !s.unify(sol, a.Inputs[i].Type, b.Inputs[i].Type) {
			return false
		}
	}
	return s.unify(sol, a.Output, b.Output)
}

func occurs(id uint64, t *types.Type) bool {
	found := false
	types.Transform(t, func(x *types.Type) *types.Type {
		if x.Kind() == types.KindVariable {
			xid, _ := x.VariableID()
			if xid == id {
				found = true
			}
		}
		return x
	})
	return found
}

// subtype decides t <: u: if one side is a variable, queue until more is
// known; if both concrete, decide by variance (functions contravariant in
// inputs/covariant in outputs, tuples elementwise, sums by element set)
// (§4.5).
func (s *Solver) subtype(sol *Solution, t, u *types.Type, queue *[]Constraint) bool {
	t = sol.apply(t)
	u = sol.apply(u)
	if t == nil || u == nil {
		return true
	}
	if t.Kind() == types.KindVariable || u.Kind() == types.KindVariable {
		*queue = append(*queue, Constraint{Kind: KindSubtyping, T: t, U: u})
		return true
	}
	if u.Kind() == types.KindAny {
		return true
	}
	if t.Kind() == types.KindNever {
		return true
	}
	if t.Kind() == types.KindError || u.Kind() == types.KindError {
		return true
	}
	if t.Kind() != u.Kind() {
		return false
	}
	switch t.Kind() {
	case types.KindLambda:
		tc, uc := t.Callable(), u.Callable()
		if len(tc.Inputs) != len(uc.Inputs) {
			return false
		}
		for i := range tc.Inputs {
			if !s.subtype(sol, uc.Inputs[i].Type, tc.Inputs[i].Type, queue) { // contravariant
				return false
			}
		}
		return s.subtype(sol, tc.Output, uc.Output, queue) // covariant
	case types.KindTuple:
		te, ue := t.Elements(), u.Elements()
		if len(te) != len(ue) {
			return false
		}
		for i := range te {
			if !s.subtype(sol, te[i], ue[i], queue) {
				return false
			}
		}
		return true
	case types.KindSum:
		for _, te := range t.Elements() {
			match := false
			for _, ue := range u.Elements() {
				if types.Equal(te, ue) {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
		return true
	default:
		return types.Equal(t, u)
	}
}
