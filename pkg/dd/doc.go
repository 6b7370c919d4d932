// Package dd compiles layered multi-valued decision diagrams for
// branch-and-bound search.
//
// A [Problem] describes a maximization problem as a sequence of decisions
// over comparable states. A [Diagram] compiles the subproblem rooted at a
// [SubProblem] in one of three modes:
//
//   - [Exact] enumerates every reachable state, layer by layer, merging equal
//     states within a layer.
//   - [Restricted] keeps only the best nodes of each layer, so every path is a
//     feasible solution and the best one is a lower bound.
//   - [Relaxed] merges the surplus nodes of each layer with a [Relaxation],
//     so the best path is an upper bound.
//
// After a relaxed compilation that is not exact, [Diagram.DrainCutset] emits
// the exact cutset: subproblems that together cover every feasible
// completion of the compiled subproblem. The [CutsetPolicy] selects between
// the last exact layer and the finer frontier cutset.
//
// Compilation consults an optional [Barrier] so that dominated nodes are not
// expanded twice, and prunes nodes whose [RoughBounder] estimate cannot beat
// the incumbent.
//
// # Typical Usage
//
//	d := dd.New[State](dd.Frontier)
//	err := d.Compile(ctx, &dd.Input[State]{
//		Mode:       dd.Relaxed,
//		MaxWidth:   100,
//		Problem:    p,
//		Relaxation: r,
//		Ranking:    rk,
//		Residual:   root,
//		BestLB:     incumbent,
//	})
//	if err == nil && !d.IsExact() {
//		d.DrainCutset(func(sp dd.SubProblem[State]) { queue.Push(sp) })
//	}
//
// A Diagram is reused across compilations and must not be shared between
// goroutines.
package dd
