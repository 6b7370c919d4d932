package dd

// WidthHeuristic chooses the maximum layer width of the diagrams compiled for
// a subproblem rooted at state, depth decisions below the problem root.
type WidthHeuristic[S comparable] interface {
	MaxWidth(depth int, state S) int
}

// WidthFunc adapts a function to the WidthHeuristic interface.
type WidthFunc[S comparable] func(depth int, state S) int

// MaxWidth calls f.
func (f WidthFunc[S]) MaxWidth(depth int, state S) int { return f(depth, state) }

// FixedWidth returns a heuristic that always answers w.
func FixedWidth[S comparable](w int) WidthHeuristic[S] {
	return WidthFunc[S](func(int, S) int { return max(w, 1) })
}

// Unassigned returns a heuristic whose width is the number of variables not
// yet assigned at the subproblem root.
func Unassigned[S comparable](nbVars int) WidthHeuristic[S] {
	return WidthFunc[S](func(depth int, _ S) int { return max(nbVars-depth, 1) })
}

// Scaled multiplies the width answered by h by k.
func Scaled[S comparable](h WidthHeuristic[S], k int) WidthHeuristic[S] {
	if k <= 1 {
		return h
	}
	return WidthFunc[S](func(depth int, state S) int {
		return max(h.MaxWidth(depth, state)*k, 1)
	})
}
