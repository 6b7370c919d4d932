// Package pkg provides the libraries of ddsolve, a branch-and-bound solver
// driven by decision diagrams.
//
// # Overview
//
// A problem is described once, as a sequence of decisions over states, and
// the engine derives every bound from that description:
//
//  1. [dd] - Layered decision diagrams (exact, restricted, relaxed) and
//     their exact cutsets
//  2. [fringe] - Priority queues of open subproblems and the shared fringe
//     that coordinates workers
//  3. [barrier] - Dominance thresholds shared by the workers of the barrier
//     variant
//  4. [solver] - The parallel search driver
//  5. [models] - Problem models, such as 0/1 knapsack
//
// # Architecture
//
// The data flow of one worker iteration:
//
//	fringe.Shared.Pop
//	         ↓
//	    [dd] restricted compile → incumbent
//	         ↓
//	    [dd] relaxed compile → upper bound
//	         ↓
//	    [dd] cutset → fringe.Shared.Push
//
// # Quick Start
//
//	k, _ := knapsack.New(inst)
//	s, _ := solver.New(solver.Model[knapsack.State]{
//	    Problem:    k,
//	    Relaxation: k,
//	    Ranking:    k,
//	}, solver.Config{Threads: 4})
//	res, err := s.Maximize(ctx)
//
// Supporting packages: [errors] for coded errors, [observability] for
// solver hooks and [buildinfo] for version information.
//
// [dd]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/dd
// [fringe]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/fringe
// [barrier]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/barrier
// [solver]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/solver
// [models]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/models/knapsack
// [errors]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/ddsolve/pkg/buildinfo
package pkg
