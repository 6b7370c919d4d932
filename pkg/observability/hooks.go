// Package observability provides hooks for metrics, progress reporting and
// logging of solver runs.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks at
// startup to receive events about searches and diagram compilations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// A solver uses the registered hooks unless its configuration carries its
// own, which keeps concurrent solves in one process apart.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolverHooks(metrics.NewHooks(reg))
//	    // ... run solver
//	}
//
// The solver emits events while searching:
//
//	observability.Solver().OnIncumbent(ctx, value, time.Since(start))
//
// Hooks are called concurrently from the search workers and must be safe for
// concurrent use.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Solver Hooks
// =============================================================================

// SolveInfo describes a search when it starts.
type SolveInfo struct {
	Variant     string
	Cutset      string
	Fringe      string
	Threads     int
	NbVariables int
}

// SolveSummary describes a search when it ends.
type SolveSummary struct {
	Value       int
	HasSolution bool
	Proved      bool
	UpperBound  int
	Explored    int
	Elapsed     time.Duration
	Err         error
}

// SolverHooks receives search-level events.
type SolverHooks interface {
	// OnSolveStart is called once before the workers start.
	OnSolveStart(ctx context.Context, info SolveInfo)

	// OnIncumbent is called every time the best known solution improves.
	OnIncumbent(ctx context.Context, value int, elapsed time.Duration)

	// OnSolveComplete is called once after every worker stopped.
	OnSolveComplete(ctx context.Context, summary SolveSummary)
}

// =============================================================================
// Search Hooks
// =============================================================================

// Outcome tells what a worker did with a subproblem taken from the fringe.
type Outcome string

const (
	// OutcomeExplored means diagrams were compiled for the subproblem.
	OutcomeExplored Outcome = "explored"
	// OutcomePruned means the bound of the subproblem could not beat the
	// incumbent.
	OutcomePruned Outcome = "pruned"
	// OutcomeDominated means the barrier discarded the subproblem.
	OutcomeDominated Outcome = "dominated"
)

// SearchHooks receives worker-level events.
type SearchHooks interface {
	// OnSubproblem records the outcome of one subproblem at the given depth.
	OnSubproblem(ctx context.Context, worker, depth int, outcome Outcome)

	// OnCompile records one diagram compilation.
	OnCompile(ctx context.Context, mode string, nodes int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSolverHooks is a no-op implementation of SolverHooks.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSolveStart(context.Context, SolveInfo)         {}
func (NoopSolverHooks) OnIncumbent(context.Context, int, time.Duration) {}
func (NoopSolverHooks) OnSolveComplete(context.Context, SolveSummary)   {}

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSubproblem(context.Context, int, int, Outcome)       {}
func (NoopSearchHooks) OnCompile(context.Context, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	solverHooks SolverHooks = NoopSolverHooks{}
	searchHooks SearchHooks = NoopSearchHooks{}
	hooksMu     sync.RWMutex
)

// SetSolverHooks registers custom solver hooks.
// This should be called once at application startup before any solve.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any solve.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	searchHooks = NoopSearchHooks{}
}

// =============================================================================
// Fan-out
// =============================================================================

// MultiSolverHooks forwards every event to each of its hooks in order.
type MultiSolverHooks []SolverHooks

func (m MultiSolverHooks) OnSolveStart(ctx context.Context, info SolveInfo) {
	for _, h := range m {
		h.OnSolveStart(ctx, info)
	}
}

func (m MultiSolverHooks) OnIncumbent(ctx context.Context, value int, elapsed time.Duration) {
	for _, h := range m {
		h.OnIncumbent(ctx, value, elapsed)
	}
}

func (m MultiSolverHooks) OnSolveComplete(ctx context.Context, summary SolveSummary) {
	for _, h := range m {
		h.OnSolveComplete(ctx, summary)
	}
}

// MultiSearchHooks forwards every event to each of its hooks in order.
type MultiSearchHooks []SearchHooks

func (m MultiSearchHooks) OnSubproblem(ctx context.Context, worker, depth int, outcome Outcome) {
	for _, h := range m {
		h.OnSubproblem(ctx, worker, depth, outcome)
	}
}

func (m MultiSearchHooks) OnCompile(ctx context.Context, mode string, nodes int, duration time.Duration) {
	for _, h := range m {
		h.OnCompile(ctx, mode, nodes, duration)
	}
}
