// Package solver runs branch-and-bound searches guided by decision diagrams.
//
// A [Solver] explores a [Model] with a pool of workers. Each worker repeatedly
// takes the most promising subproblem from a shared fringe, compiles a
// restricted diagram to improve the incumbent, then a relaxed diagram to
// bound the subproblem, and pushes the cutset of the relaxed diagram back
// as new subproblems. The search ends when the fringe is exhausted, the
// context is done or the configured timeout expires.
//
// Two variants are available. [VariantParallel] is plain best-first
// branch-and-bound. [VariantBarrier] shares a barrier store between workers
// so that residual problems already dominated are not explored again.
//
// # Example
//
//	k, _ := knapsack.New(inst)
//	s, err := solver.New(solver.Model[knapsack.State]{
//		Problem:    k,
//		Relaxation: k,
//		Ranking:    k,
//		Width:      k.Width(),
//	}, solver.Config{Variant: solver.VariantBarrier, Threads: 4})
//	if err != nil {
//		return err
//	}
//	res, err := s.Maximize(ctx)
//
// Cancellation is not an error: Maximize returns the best solution found so
// far with Proved set to false.
package solver

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/ddsolve/pkg/barrier"
	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/fringe"
	"github.com/matzehuels/ddsolve/pkg/observability"
)

var _ dd.Barrier[int] = (*barrier.Store[int])(nil)

// Model bundles the capabilities of a problem.
type Model[S comparable] struct {
	Problem    dd.Problem[S]
	Relaxation dd.Relaxation[S]
	// Ranking is optional. It breaks ties between states of equal value.
	Ranking dd.Ranking[S]
	// Width is optional and defaults to the number of unassigned variables.
	Width dd.WidthHeuristic[S]
}

// Solver maximizes one model. A Solver may run Maximize several times, but
// not concurrently.
type Solver[S comparable] struct {
	model Model[S]
	cfg   Config
	width dd.WidthHeuristic[S]
	log   *log.Logger
}

// New validates the model and the configuration.
func New[S comparable](m Model[S], cfg Config) (*Solver[S], error) {
	if m.Problem == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "model has no problem")
	}
	if m.Relaxation == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "model has no relaxation")
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	width := m.Width
	if width == nil {
		width = dd.Unassigned[S](m.Problem.NbVariables())
	}
	return &Solver[S]{
		model: m,
		cfg:   cfg,
		width: dd.Scaled(width, cfg.WidthMultiplier),
		log:   cfg.Logger,
	}, nil
}

// Config returns the configuration with defaults applied.
func (s *Solver[S]) Config() Config { return s.cfg }

// search is the state shared by the workers of one Maximize call.
type search[S comparable] struct {
	*Solver[S]

	start     time.Time
	fringe    *fringe.Shared[S]
	barrier   *barrier.Store[S]
	incumbent incumbent
	hooks     observability.SolverHooks
	events    observability.SearchHooks

	stats     []Stats
	pruned    atomic.Int64
	dominated atomic.Int64
}

// Maximize searches for the best solution. It returns an INTERNAL_ERROR when
// a worker fails; the result then holds the best solution found before the
// failure.
func (s *Solver[S]) Maximize(ctx context.Context) (Result, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	p := s.model.Problem
	nbVars := p.NbVariables()

	ctx, span := otel.Tracer("ddsolve").Start(ctx, "solver.Maximize",
		trace.WithAttributes(
			attribute.String("variant", string(s.cfg.Variant)),
			attribute.String("cutset", s.cfg.Cutset.String()),
			attribute.Int("threads", s.cfg.Threads),
			attribute.Int("variables", nbVars),
		),
	)
	defer span.End()

	r := &search[S]{
		Solver: s,
		start:  time.Now(),
		hooks:  s.cfg.Hooks,
		events: s.cfg.SearchHooks,
		stats:  make([]Stats, s.cfg.Threads),
	}

	var opts []fringe.Option
	if s.cfg.Variant == VariantBarrier {
		r.barrier = barrier.New[S](nbVars)
		opts = append(opts, fringe.WithLayerDone(r.barrier.Clear))
	}
	r.fringe = fringe.NewShared(fringe.NewQueue(s.cfg.Fringe, s.model.Ranking), nbVars, s.cfg.Threads, opts...)

	root := dd.SubProblem[S]{
		State: p.InitialState(),
		Value: p.InitialValue(),
		UB:    math.MaxInt,
	}
	if err := r.fringe.Push(root); err != nil {
		return Result{}, errs.Wrap(errs.ErrCodeInternal, err, "push root")
	}

	r.hooks.OnSolveStart(ctx, observability.SolveInfo{
		Variant:     string(s.cfg.Variant),
		Cutset:      s.cfg.Cutset.String(),
		Fringe:      s.cfg.Fringe.String(),
		Threads:     s.cfg.Threads,
		NbVariables: nbVars,
	})
	s.log.Debug("solve started",
		"variant", s.cfg.Variant,
		"cutset", s.cfg.Cutset,
		"fringe", s.cfg.Fringe,
		"threads", s.cfg.Threads,
		"variables", nbVars,
		"width_multiplier", s.cfg.WidthMultiplier)

	g, gctx := errgroup.WithContext(ctx)
	for id := range s.cfg.Threads {
		g.Go(func() error { return r.worker(gctx, id) })
	}
	err := g.Wait()

	res := r.result(err)
	span.SetAttributes(
		attribute.Int("value", res.Value),
		attribute.Bool("proved", res.Proved),
		attribute.Int("explored", res.Stats.Explored),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.hooks.OnSolveComplete(ctx, observability.SolveSummary{
		Value:       res.Value,
		HasSolution: res.HasSolution,
		Proved:      res.Proved,
		UpperBound:  res.UpperBound,
		Explored:    res.Stats.Explored,
		Elapsed:     res.Elapsed,
		Err:         err,
	})

	logResult := s.log.Info
	if !res.Proved {
		logResult = s.log.Warn
	}
	logResult("solve finished",
		"value", res.Value,
		"proved", res.Proved,
		"upper_bound", res.UpperBound,
		"explored", res.Stats.Explored,
		"elapsed", res.Elapsed.Round(time.Millisecond))

	return res, err
}

func (r *search[S]) result(err error) Result {
	res := Result{Elapsed: time.Since(r.start)}
	for _, st := range r.stats {
		res.Stats.add(st)
	}
	res.Stats.Pruned = int(r.pruned.Load())
	res.Stats.Dominated = int(r.dominated.Load())

	value, path, ok := r.incumbent.Best()
	res.Value, res.Solution, res.HasSolution = value, path, ok

	res.Proved = err == nil && !r.fringe.Interrupted()
	switch {
	case res.Proved && ok:
		res.UpperBound = value
	case res.Proved:
		res.UpperBound = math.MinInt
	default:
		res.UpperBound = math.MaxInt
		if ub, found := r.fringe.UpperBound(); found {
			res.UpperBound = ub
		}
		if ok {
			res.UpperBound = max(res.UpperBound, value)
		}
	}
	return res
}

// worker runs the search loop of one goroutine. Panics are turned into
// INTERNAL_ERROR failures.
func (r *search[S]) worker(ctx context.Context, id int) (err error) {
	defer func() {
		if v := recover(); v != nil {
			r.fringe.Interrupt()
			err = errs.Wrap(errs.ErrCodeInternal, &errs.PanicError{Value: v, Stack: debug.Stack()}, "worker %d failed", id)
		}
	}()

	r.log.Debug("worker started", "worker", id)
	d := dd.New[S](r.cfg.Cutset)
	accept := r.accept(ctx, id)

	for {
		sp, status := r.fringe.Pop(ctx, id, accept)
		if status != fringe.Work {
			r.log.Debug("worker stopped", "worker", id, "status", status)
			return nil
		}

		err := r.process(ctx, id, d, sp)
		switch {
		case errors.Is(err, dd.ErrInterrupted):
			// Keep the bound of sp in the interruption bound.
			r.fringe.Interrupt()
			r.fringe.Done(id, sp)
		case err != nil:
			r.fringe.Interrupt()
			r.fringe.Done(id, sp)
			return errs.Wrap(errs.ErrCodeInternal, err, "worker %d failed", id)
		default:
			r.fringe.Done(id, sp)
		}
	}
}

// accept filters the subproblems popped by worker id. It runs with the
// fringe locked.
func (r *search[S]) accept(ctx context.Context, id int) fringe.AcceptFunc[S] {
	return func(sp dd.SubProblem[S]) fringe.Verdict {
		if sp.UB <= r.incumbent.Value() {
			r.pruned.Add(1)
			r.events.OnSubproblem(ctx, id, sp.Depth(), observability.OutcomePruned)
			return fringe.SkipAll
		}
		if r.barrier != nil && !r.barrier.Admit(sp.Depth(), sp.State, sp.Value) {
			r.dominated.Add(1)
			r.events.OnSubproblem(ctx, id, sp.Depth(), observability.OutcomeDominated)
			return fringe.Skip
		}
		return fringe.Take
	}
}

// process explores one subproblem: a restricted compilation to improve the
// incumbent, then a relaxed one whose cutset is pushed to the fringe.
func (r *search[S]) process(ctx context.Context, id int, d *dd.Diagram[S], sp dd.SubProblem[S]) error {
	if sp.UB <= r.incumbent.Value() {
		r.pruned.Add(1)
		r.events.OnSubproblem(ctx, id, sp.Depth(), observability.OutcomePruned)
		return nil
	}
	r.stats[id].Explored++
	r.events.OnSubproblem(ctx, id, sp.Depth(), observability.OutcomeExplored)

	in := &dd.Input[S]{
		Mode:       dd.Restricted,
		MaxWidth:   r.width.MaxWidth(sp.Depth(), sp.State),
		Problem:    r.model.Problem,
		Relaxation: r.model.Relaxation,
		Ranking:    r.model.Ranking,
		Residual:   sp,
		BestLB:     r.incumbent.Value(),
	}
	if r.barrier != nil {
		in.Barrier = r.barrier
	}

	if err := r.compile(ctx, id, d, in); err != nil {
		return err
	}
	r.offer(ctx, id, d)
	if d.IsExact() {
		return nil
	}

	in.Mode = dd.Relaxed
	in.BestLB = r.incumbent.Value()
	if err := r.compile(ctx, id, d, in); err != nil {
		return err
	}
	if d.IsExact() {
		r.offer(ctx, id, d)
		return nil
	}

	bestLB := r.incumbent.Value()
	var children []dd.SubProblem[S]
	d.DrainCutset(func(child dd.SubProblem[S]) {
		child.UB = min(child.UB, sp.UB)
		if child.UB > bestLB {
			children = append(children, child)
		}
	})
	if err := r.fringe.Push(children...); err != nil && !errors.Is(err, fringe.ErrClosed) {
		return err
	}
	return nil
}

func (r *search[S]) compile(ctx context.Context, id int, d *dd.Diagram[S], in *dd.Input[S]) error {
	start := time.Now()
	err := d.Compile(ctx, in)
	st := d.Stats()
	r.stats[id].Stats.Add(st)
	r.events.OnCompile(ctx, in.Mode.String(), st.NodesCreated, time.Since(start))
	return err
}

// offer proposes the best solution of d as the new incumbent.
func (r *search[S]) offer(ctx context.Context, id int, d *dd.Diagram[S]) {
	value, ok := d.BestValue()
	if !ok || value <= r.incumbent.Value() {
		return
	}
	path, _ := d.BestSolution()
	if r.incumbent.Offer(value, path) {
		elapsed := time.Since(r.start)
		r.hooks.OnIncumbent(ctx, value, elapsed)
		r.log.Debug("incumbent improved", "worker", id, "value", value, "elapsed", elapsed.Round(time.Millisecond))
	}
}
