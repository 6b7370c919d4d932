package cli

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddsolve/pkg/observability"
)

// searchCounters counts subproblem outcomes. It is shared by the progress
// reporter and the live view.
type searchCounters struct {
	explored  atomic.Int64
	pruned    atomic.Int64
	dominated atomic.Int64
	nodes     atomic.Int64
}

var _ observability.SearchHooks = (*searchCounters)(nil)

func (c *searchCounters) OnSubproblem(_ context.Context, _, _ int, outcome observability.Outcome) {
	switch outcome {
	case observability.OutcomeExplored:
		c.explored.Add(1)
	case observability.OutcomePruned:
		c.pruned.Add(1)
	case observability.OutcomeDominated:
		c.dominated.Add(1)
	}
}

func (c *searchCounters) OnCompile(_ context.Context, _ string, nodes int, _ time.Duration) {
	c.nodes.Add(int64(nodes))
}

// reporter logs the progress of a solve: the first solution, every
// improvement, and a heartbeat while nothing changes.
//
// Hooks arrive from every worker, so the reporter is safe for concurrent use.
type reporter struct {
	logger   *log.Logger
	timeout  time.Duration
	counters *searchCounters
	prog     *progress

	mu       sync.Mutex
	best     int
	hasBest  bool
	start    time.Time
	lastLog  time.Time
	interval time.Duration
}

var _ observability.SolverHooks = (*reporter)(nil)

func newReporter(l *log.Logger, timeout time.Duration, counters *searchCounters) *reporter {
	return &reporter{
		logger:   l,
		timeout:  timeout,
		counters: counters,
		best:     math.MinInt,
		interval: heartbeatInterval,
	}
}

func (r *reporter) OnSolveStart(_ context.Context, info observability.SolveInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = time.Now()
	r.lastLog = r.start
	r.prog = newProgress(r.logger)
	r.logger.Infof("Solving %d variables with %d threads (%s, %s cutset, %s fringe)",
		info.NbVariables, info.Threads, info.Variant, info.Cutset, info.Fringe)
}

func (r *reporter) OnIncumbent(_ context.Context, value int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Workers report outside the incumbent lock, so a stale value may
	// arrive late.
	if r.hasBest && value <= r.best {
		return
	}
	if !r.hasBest {
		r.logger.Infof("Initial: %d (explored: %d, pruned: %d)", value, r.counters.explored.Load(), r.counters.pruned.Load())
	} else {
		r.logger.Infof("Improved: %d (↑%d) after %s", value, value-r.best, elapsed.Round(time.Millisecond))
	}
	r.best, r.hasBest = value, true
	r.lastLog = time.Now()
}

// heartbeat logs a status line when nothing was logged for a while. It
// reports whether it logged.
func (r *reporter) heartbeat(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() || now.Sub(r.lastLog) < r.interval {
		return false
	}
	elapsed := now.Sub(r.start).Truncate(time.Second)
	best := "none"
	if r.hasBest {
		best = formatBound(r.best)
	}
	if r.timeout > 0 {
		r.logger.Infof("Searching... %v/%v elapsed, best %s (explored: %d, pruned: %d)",
			elapsed, r.timeout, best, r.counters.explored.Load(), r.counters.pruned.Load())
	} else {
		r.logger.Infof("Searching... %v elapsed, best %s (explored: %d, pruned: %d)",
			elapsed, best, r.counters.explored.Load(), r.counters.pruned.Load())
	}
	r.lastLog = now
	return true
}

// run calls heartbeat until ctx is done.
func (r *reporter) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.heartbeat(now)
		}
	}
}

func (r *reporter) OnSolveComplete(_ context.Context, s observability.SolveSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case s.Err != nil:
		r.logger.Error("Search failed", "err", s.Err)
		return
	case s.Proved:
		r.prog.done("Search complete")
	default:
		r.prog.done("Search stopped")
	}

	if s.HasSolution {
		r.logger.Infof("Best: %d, bound %s (explored: %d, pruned: %d, dominated: %d)", s.Value, formatBound(s.UpperBound),
			r.counters.explored.Load(), r.counters.pruned.Load(), r.counters.dominated.Load())
	}
	if !s.Proved {
		r.logger.Warn("Optimality not proved; try increasing the timeout (--timeout)")
	}
}
