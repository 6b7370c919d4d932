package dd

import (
	"fmt"
	"iter"
)

// Variable identifies one decision variable of a problem.
type Variable int

// Decision assigns a value to a variable.
type Decision struct {
	Var   Variable `json:"var"`
	Value int      `json:"value"`
}

// String returns the decision as "x<var>=<value>".
func (d Decision) String() string {
	return fmt.Sprintf("x%d=%d", d.Var, d.Value)
}

// Problem is the capability a model plugs into the engine. It describes the
// state space of a maximization problem as a sequence of decisions.
//
// States must be comparable: two states that compare equal are merged into a
// single diagram node, and equal states at the same depth share barrier
// records and fringe entries. Models with set-valued states should encode the
// set as a fixed-size array, a bitmask or a string.
//
// Minimization problems are expressed by negating transition costs.
type Problem[S comparable] interface {
	// NbVariables returns the total number of decision variables.
	NbVariables() int
	// InitialState returns the state at the root of the search.
	InitialState() S
	// InitialValue returns the objective value accumulated at the root.
	InitialValue() int
	// NextVariable selects the variable branched on at the given depth, given
	// the states of the layer about to be expanded. It returns false when no
	// variable remains, which makes that layer terminal.
	NextVariable(depth int, states iter.Seq[S]) (Variable, bool)
	// Domain yields the feasible values of v in state s, without duplicates.
	// An empty domain makes s a dead end.
	Domain(v Variable, s S) iter.Seq[Decision]
	// Transition applies d to s and returns the successor state and the
	// objective contribution of the decision.
	Transition(s S, d Decision) (S, int)
}

// Relaxation merges states when a layer exceeds its width. Both operations
// must be admissible: no path through the merged state may be valued below
// the best path through any state it replaces. The engine does not check
// this; an inadmissible relaxation silently yields wrong optima.
type Relaxation[S comparable] interface {
	// Merge returns a state that over-approximates every given state.
	Merge(states iter.Seq[S]) S
	// Relax returns the cost of the arc (src, decision) once its destination
	// dst has been replaced by merged. The original cost is passed in.
	Relax(src, dst, merged S, d Decision, cost int) int
}

// Ranking orders states of one layer. Compare returns a positive number when
// a is more promising than b. It breaks value ties when a layer is restricted
// or relaxed and when subproblems with the same bound are queued.
type Ranking[S comparable] interface {
	Compare(a, b S) int
}

// RoughBounder is implemented by problems that can cheaply over-estimate the
// value still obtainable from a state. The estimate must never be lower than
// the best achievable remaining value. Problems without it get no rough
// bound pruning.
type RoughBounder[S comparable] interface {
	RoughBound(s S, remaining int) int
}

// Barrier is the dominance memory consulted while compiling. Depth stands
// for the number of decisions already taken, so (depth, state) identifies a
// residual problem.
type Barrier[S comparable] interface {
	// Threshold returns the value a node must exceed to be worth expanding.
	Threshold(depth int, state S) (theta int, ok bool)
	// Record stores theta for (depth, state) if it improves the stored one.
	Record(depth int, state S, theta int, explored bool) bool
}
