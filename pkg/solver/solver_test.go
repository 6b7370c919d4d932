package solver_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/fringe"
	"github.com/matzehuels/ddsolve/pkg/models/knapsack"
	"github.com/matzehuels/ddsolve/pkg/observability"
	"github.com/matzehuels/ddsolve/pkg/solver"
)

func toy() knapsack.Instance {
	return knapsack.Instance{
		Name:     "toy",
		Capacity: 10,
		Items: []knapsack.Item{
			{Profit: 6, Weight: 4},
			{Profit: 5, Weight: 3},
			{Profit: 8, Weight: 5},
			{Profit: 3, Weight: 2},
			{Profit: 7, Weight: 6},
		},
	}
}

func randomInstance(r *rand.Rand, n int) knapsack.Instance {
	inst := knapsack.Instance{Items: make([]knapsack.Item, n)}
	total := 0
	for i := range inst.Items {
		inst.Items[i] = knapsack.Item{Profit: 1 + r.IntN(30), Weight: 1 + r.IntN(20)}
		total += inst.Items[i].Weight
	}
	inst.Capacity = total / 2
	return inst
}

func quiet() *log.Logger { return log.New(io.Discard) }

func newModel(t *testing.T, inst knapsack.Instance, width int) (*knapsack.Knapsack, solver.Model[knapsack.State]) {
	t.Helper()
	k, err := knapsack.New(inst)
	if err != nil {
		t.Fatalf("knapsack.New: %v", err)
	}
	m := solver.Model[knapsack.State]{Problem: k, Relaxation: k, Ranking: k, Width: k.Width()}
	if width > 0 {
		m.Width = dd.FixedWidth[knapsack.State](width)
	}
	return k, m
}

func maximize[S comparable](t *testing.T, m solver.Model[S], cfg solver.Config) solver.Result {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quiet()
	}
	s, err := solver.New(m, cfg)
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	res, err := s.Maximize(context.Background())
	if err != nil {
		t.Fatalf("Maximize: %v", err)
	}
	return res
}

type combo struct {
	variant solver.Variant
	cutset  dd.CutsetPolicy
	fringe  fringe.Kind
}

func (c combo) String() string { return fmt.Sprintf("%s/%s/%s", c.variant, c.cutset, c.fringe) }

func combos() []combo {
	var out []combo
	for _, v := range []solver.Variant{solver.VariantParallel, solver.VariantBarrier} {
		for _, c := range []dd.CutsetPolicy{dd.LastExactLayer, dd.Frontier} {
			for _, f := range []fringe.Kind{fringe.NoDup, fringe.Simple} {
				out = append(out, combo{v, c, f})
			}
		}
	}
	return out
}

func TestMaximizeToy(t *testing.T) {
	for _, c := range combos() {
		for _, width := range []int{1, 2, 0} {
			t.Run(fmt.Sprintf("%s/w%d", c, width), func(t *testing.T) {
				k, m := newModel(t, toy(), width)
				res := maximize(t, m, solver.Config{
					Variant: c.variant,
					Cutset:  c.cutset,
					Fringe:  c.fringe,
					Threads: 2,
				})
				if !res.Proved || !res.HasSolution {
					t.Fatalf("proved = %v, has solution = %v", res.Proved, res.HasSolution)
				}
				if res.Value != 16 || res.UpperBound != 16 {
					t.Errorf("value = %d, upper bound = %d; want 16", res.Value, res.UpperBound)
				}
				sol, err := k.Decode(res.Solution)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if want := []int{1, 2, 3}; !slices.Equal(sol.Packed, want) {
					t.Errorf("packed = %v, want %v", sol.Packed, want)
				}
				if res.Gap() != 0 {
					t.Errorf("gap = %v, want 0", res.Gap())
				}
			})
		}
	}
}

func TestMaximizeMatchesExhaustive(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := range 15 {
		inst := randomInstance(r, 6+r.IntN(9))
		want, _ := knapsack.Exhaustive(inst)
		for _, c := range combos() {
			t.Run(fmt.Sprintf("%d/%s", i, c), func(t *testing.T) {
				k, m := newModel(t, inst, 2)
				res := maximize(t, m, solver.Config{
					Variant: c.variant,
					Cutset:  c.cutset,
					Fringe:  c.fringe,
					Threads: 4,
				})
				if !res.Proved {
					t.Fatal("search did not complete")
				}
				if res.Value != want {
					t.Fatalf("value = %d, want %d", res.Value, want)
				}
				sol, err := k.Decode(res.Solution)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if sol.Profit != res.Value {
					t.Errorf("solution profit = %d, reported value %d", sol.Profit, res.Value)
				}
			})
		}
	}
}

func TestSingleThreadIsDeterministic(t *testing.T) {
	inst := randomInstance(rand.New(rand.NewPCG(3, 5)), 14)
	for _, v := range []solver.Variant{solver.VariantParallel, solver.VariantBarrier} {
		t.Run(string(v), func(t *testing.T) {
			_, m := newModel(t, inst, 3)
			cfg := solver.Config{Variant: v, Cutset: dd.Frontier, Threads: 1}
			first := maximize(t, m, cfg)
			second := maximize(t, m, cfg)
			if first.Value != second.Value || !slices.Equal(first.Solution, second.Solution) {
				t.Errorf("runs differ: %d %v vs %d %v", first.Value, first.Solution, second.Value, second.Solution)
			}
			if first.Stats.Explored != second.Stats.Explored {
				t.Errorf("explored %d vs %d", first.Stats.Explored, second.Stats.Explored)
			}
		})
	}
}

func TestCanceledSearchIsNotProved(t *testing.T) {
	_, m := newModel(t, toy(), 1)
	s, err := solver.New(m, solver.Config{Threads: 2, Logger: quiet()})
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Maximize(ctx)
	if err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if res.Proved {
		t.Error("a canceled search cannot be proved")
	}
	if res.HasSolution {
		t.Error("no subproblem was explored, want no solution")
	}
	if res.UpperBound != math.MaxInt {
		t.Errorf("upper bound = %d, want +inf", res.UpperBound)
	}
	if res.Gap() != 1 {
		t.Errorf("gap = %v, want 1", res.Gap())
	}
}

func TestTimeoutKeepsBoundsConsistent(t *testing.T) {
	inst := randomInstance(rand.New(rand.NewPCG(17, 19)), 40)
	_, m := newModel(t, inst, 2)
	res := maximize(t, m, solver.Config{Threads: 2, Timeout: time.Millisecond})
	if res.HasSolution && res.UpperBound < res.Value {
		t.Errorf("upper bound %d below value %d", res.UpperBound, res.Value)
	}
	if res.Proved && res.UpperBound != res.Value {
		t.Errorf("proved with upper bound %d and value %d", res.UpperBound, res.Value)
	}
}

// chain has states 0..n. State 2 has an empty domain, so n > 2 is
// infeasible.
type chain struct{ n int }

func (c chain) NbVariables() int  { return c.n }
func (c chain) InitialState() int { return 0 }
func (c chain) InitialValue() int { return 0 }
func (c chain) NextVariable(depth int, _ iter.Seq[int]) (dd.Variable, bool) {
	return dd.Variable(depth), depth < c.n
}
func (c chain) Domain(_ dd.Variable, s int) iter.Seq[dd.Decision] {
	return func(yield func(dd.Decision) bool) {
		if s != 2 {
			yield(dd.Decision{Var: dd.Variable(s), Value: 1})
		}
	}
}
func (c chain) Transition(s int, d dd.Decision) (int, int) { return s + 1, d.Value }
func (c chain) Merge(states iter.Seq[int]) int {
	m := 0
	for s := range states {
		m = max(m, s)
	}
	return m
}
func (c chain) Relax(_, _, _ int, _ dd.Decision, cost int) int { return cost }

func TestInfeasibleProblem(t *testing.T) {
	res := maximize(t, solver.Model[int]{Problem: chain{n: 4}, Relaxation: chain{n: 4}}, solver.Config{Threads: 1})
	if !res.Proved || res.HasSolution {
		t.Fatalf("proved = %v, has solution = %v; want proved infeasible", res.Proved, res.HasSolution)
	}
	if res.UpperBound != math.MinInt {
		t.Errorf("upper bound = %d, want -inf", res.UpperBound)
	}

	res = maximize(t, solver.Model[int]{Problem: chain{n: 2}, Relaxation: chain{n: 2}}, solver.Config{Threads: 1})
	if !res.Proved || res.Value != 2 {
		t.Errorf("proved = %v, value = %d; want 2", res.Proved, res.Value)
	}
}

type recorder struct {
	observability.NoopSolverHooks

	mu         sync.Mutex
	started    int
	incumbents []int
	summary    observability.SolveSummary
}

func (r *recorder) OnSolveStart(context.Context, observability.SolveInfo) {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *recorder) OnIncumbent(_ context.Context, value int, _ time.Duration) {
	r.mu.Lock()
	r.incumbents = append(r.incumbents, value)
	r.mu.Unlock()
}

func (r *recorder) OnSolveComplete(_ context.Context, s observability.SolveSummary) {
	r.mu.Lock()
	r.summary = s
	r.mu.Unlock()
}

func TestIncumbentOnlyImproves(t *testing.T) {
	inst := randomInstance(rand.New(rand.NewPCG(23, 29)), 14)
	_, m := newModel(t, inst, 1)
	rec := &recorder{}
	res := maximize(t, m, solver.Config{Threads: 1, Hooks: rec})

	if rec.started != 1 {
		t.Errorf("OnSolveStart called %d times", rec.started)
	}
	if len(rec.incumbents) == 0 {
		t.Fatal("no incumbent reported")
	}
	for i := 1; i < len(rec.incumbents); i++ {
		if rec.incumbents[i] <= rec.incumbents[i-1] {
			t.Fatalf("incumbents not strictly increasing: %v", rec.incumbents)
		}
	}
	if last := rec.incumbents[len(rec.incumbents)-1]; last != res.Value {
		t.Errorf("last incumbent %d, result %d", last, res.Value)
	}
	if !rec.summary.Proved || rec.summary.Value != res.Value {
		t.Errorf("summary = %+v", rec.summary)
	}
}

// faulty panics on every transition past depth 2.
type faulty struct{ *knapsack.Knapsack }

func (f faulty) Transition(s knapsack.State, d dd.Decision) (knapsack.State, int) {
	if s.Depth > 2 {
		panic("transition failed")
	}
	return f.Knapsack.Transition(s, d)
}

func TestWorkerPanicIsInternalError(t *testing.T) {
	k, err := knapsack.New(toy())
	if err != nil {
		t.Fatal(err)
	}
	f := faulty{k}
	s, err := solver.New(solver.Model[knapsack.State]{Problem: f, Relaxation: f}, solver.Config{Threads: 3, Logger: quiet()})
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	res, err := s.Maximize(context.Background())
	if !errs.Is(err, errs.ErrCodeInternal) {
		t.Fatalf("error = %v, want INTERNAL_ERROR", err)
	}
	var pe *errs.PanicError
	if !errors.As(err, &pe) || pe.Value != "transition failed" {
		t.Errorf("error should carry the panic value, got %v", err)
	}
	if res.Proved {
		t.Error("a failed search cannot be proved")
	}
}

func TestNewValidates(t *testing.T) {
	k, err := knapsack.New(toy())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		model solver.Model[knapsack.State]
		cfg   solver.Config
		code  errs.Code
	}{
		{"no problem", solver.Model[knapsack.State]{Relaxation: k}, solver.Config{}, errs.ErrCodeInvalidInput},
		{"no relaxation", solver.Model[knapsack.State]{Problem: k}, solver.Config{}, errs.ErrCodeInvalidInput},
		{"bad variant", solver.Model[knapsack.State]{Problem: k, Relaxation: k}, solver.Config{Variant: "serial"}, errs.ErrCodeInvalidConfig},
		{"bad threads", solver.Model[knapsack.State]{Problem: k, Relaxation: k}, solver.Config{Threads: -1}, errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logger = quiet()
			_, err := solver.New(tt.model, tt.cfg)
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}
