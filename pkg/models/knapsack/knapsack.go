package knapsack

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/matzehuels/ddsolve/pkg/dd"
)

// State is the residual problem after deciding the first Depth items.
type State struct {
	Depth    int
	Capacity int
}

// String returns "d<depth> c<capacity>".
func (s State) String() string { return fmt.Sprintf("d%d c%d", s.Depth, s.Capacity) }

// Knapsack models a 0/1 knapsack instance for the decision diagram engine.
// Variable i decides whether item i is packed (1) or not (0).
//
// Knapsack implements dd.Problem, dd.Relaxation, dd.Ranking and
// dd.RoughBounder. It is immutable and safe for concurrent use.
type Knapsack struct {
	inst Instance
	// byRatio lists item indices by decreasing profit/weight ratio.
	byRatio []int
}

// New returns the model of inst.
func New(inst Instance) (*Knapsack, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	byRatio := make([]int, len(inst.Items))
	for i := range byRatio {
		byRatio[i] = i
	}
	slices.SortStableFunc(byRatio, func(a, b int) int {
		ia, ib := inst.Items[a], inst.Items[b]
		// pa/wa > pb/wb  <=>  pa*wb > pb*wa, with zero weights first.
		return cmp.Compare(ib.Profit*ia.Weight, ia.Profit*ib.Weight)
	})
	return &Knapsack{inst: inst, byRatio: byRatio}, nil
}

// Instance returns the instance k was built from.
func (k *Knapsack) Instance() Instance { return k.inst }

// Width returns the default width heuristic: one node per unassigned item.
func (k *Knapsack) Width() dd.WidthHeuristic[State] {
	return dd.Unassigned[State](len(k.inst.Items))
}

func (k *Knapsack) NbVariables() int     { return len(k.inst.Items) }
func (k *Knapsack) InitialState() State { return State{Capacity: k.inst.Capacity} }
func (k *Knapsack) InitialValue() int   { return 0 }

func (k *Knapsack) NextVariable(depth int, _ iter.Seq[State]) (dd.Variable, bool) {
	if depth >= len(k.inst.Items) {
		return 0, false
	}
	return dd.Variable(depth), true
}

func (k *Knapsack) Domain(v dd.Variable, s State) iter.Seq[dd.Decision] {
	return func(yield func(dd.Decision) bool) {
		if k.inst.Items[v].Weight <= s.Capacity {
			if !yield(dd.Decision{Var: v, Value: 1}) {
				return
			}
		}
		yield(dd.Decision{Var: v, Value: 0})
	}
}

func (k *Knapsack) Transition(s State, d dd.Decision) (State, int) {
	it := k.inst.Items[d.Var]
	return State{
		Depth:    s.Depth + 1,
		Capacity: s.Capacity - it.Weight*d.Value,
	}, it.Profit * d.Value
}

// Merge keeps the largest capacity: everything feasible in one of the
// states stays feasible in the merged one.
func (k *Knapsack) Merge(states iter.Seq[State]) State {
	var merged State
	first := true
	for s := range states {
		if first || s.Capacity > merged.Capacity {
			merged = s
			first = false
		}
	}
	return merged
}

func (k *Knapsack) Relax(_, _, _ State, _ dd.Decision, cost int) int { return cost }

// Compare prefers the state with more room left.
func (k *Knapsack) Compare(a, b State) int { return cmp.Compare(a.Capacity, b.Capacity) }

// RoughBound returns the value of the fractional relaxation over the items
// not yet decided.
func (k *Knapsack) RoughBound(s State, _ int) int {
	room := s.Capacity
	bound := 0
	for _, i := range k.byRatio {
		if i < s.Depth {
			continue
		}
		it := k.inst.Items[i]
		if it.Weight <= room {
			room -= it.Weight
			bound += it.Profit
			continue
		}
		if room > 0 {
			// Round the fractional part up.
			bound += (it.Profit*room + it.Weight - 1) / it.Weight
		}
		break
	}
	return bound
}

// Solution describes the packed items of a decision sequence.
type Solution struct {
	Packed []int `json:"packed"`
	Profit int   `json:"profit"`
	Weight int   `json:"weight"`
}

// Decode converts a decision sequence into the list of packed items. It
// returns an error when the sequence does not decide every item exactly
// once or exceeds the capacity.
func (k *Knapsack) Decode(path []dd.Decision) (Solution, error) {
	if len(path) != len(k.inst.Items) {
		return Solution{}, fmt.Errorf("solution decides %d of %d items", len(path), len(k.inst.Items))
	}
	seen := make([]bool, len(k.inst.Items))
	var sol Solution
	for _, d := range path {
		if int(d.Var) < 0 || int(d.Var) >= len(seen) || seen[d.Var] {
			return Solution{}, fmt.Errorf("invalid or repeated decision %s", d)
		}
		seen[d.Var] = true
		if d.Value == 1 {
			it := k.inst.Items[d.Var]
			sol.Packed = append(sol.Packed, int(d.Var))
			sol.Profit += it.Profit
			sol.Weight += it.Weight
		}
	}
	if sol.Weight > k.inst.Capacity {
		return Solution{}, fmt.Errorf("packed weight %d exceeds capacity %d", sol.Weight, k.inst.Capacity)
	}
	slices.Sort(sol.Packed)
	return sol, nil
}
