package solver

import (
	"math"
	"time"

	"github.com/matzehuels/ddsolve/pkg/dd"
)

// Result is the outcome of a solve.
type Result struct {
	// Value is the objective value of Solution. It is meaningless when
	// HasSolution is false.
	Value       int  `json:"value"`
	HasSolution bool `json:"has_solution"`
	// Proved is true when the search ran to completion: Value is optimal, or
	// the problem has no solution.
	Proved bool `json:"proved"`
	// UpperBound bounds the value of any solution. It equals Value when
	// Proved and is math.MinInt for a proved infeasible problem.
	UpperBound int           `json:"upper_bound"`
	Solution   []dd.Decision `json:"solution,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
	Stats   Stats         `json:"stats"`
}

// Gap returns the relative distance between the incumbent and the upper
// bound, in [0, 1]. It is 0 for a proved result and 1 without a solution.
func (r Result) Gap() float64 {
	switch {
	case r.Proved:
		return 0
	case !r.HasSolution || r.UpperBound == math.MaxInt:
		return 1
	}
	diff := float64(r.UpperBound) - float64(r.Value)
	scale := max(math.Abs(float64(r.UpperBound)), math.Abs(float64(r.Value)))
	if scale == 0 {
		return 0
	}
	return min(diff/scale, 1)
}

// Stats counts the work of a solve.
type Stats struct {
	// Explored counts the subproblems diagrams were compiled for.
	Explored int `json:"explored"`
	// Pruned counts the subproblems discarded because their bound could not
	// beat the incumbent.
	Pruned int `json:"pruned"`
	// Dominated counts the subproblems discarded by the barrier.
	Dominated int `json:"dominated"`

	dd.Stats
}

func (s *Stats) add(o Stats) {
	s.Explored += o.Explored
	s.Pruned += o.Pruned
	s.Dominated += o.Dominated
	s.Stats.Add(o.Stats)
}
