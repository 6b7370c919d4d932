package dd

import "math"

type (
	nodeID = int
	edgeID = int
)

const (
	noNode nodeID = -1
	noEdge edgeID = -1
)

type flags uint8

const (
	flagExact flags = 1 << iota
	flagRelaxed
	flagMarked
	flagCutset
	flagDeleted
	flagPrunedByBarrier

	inherited = flagExact | flagRelaxed
)

func (f flags) has(bit flags) bool { return f&bit != 0 }

// node is one vertex of the layered diagram. Nodes live in an arena slice
// and refer to each other through edge ids.
type node[S comparable] struct {
	state S
	value int
	depth int

	// best is the inbound edge on the longest path from the root.
	best edgeID
	// inbound heads the list of inbound edges, chained through edge.next.
	inbound edgeID

	// valueBot is the longest path from this node to a terminal node.
	valueBot int
	// theta is the threshold recorded in the barrier once the diagram is
	// complete.
	theta int
	// rub is the rough upper bound on the value of any completion.
	rub int

	flags flags
}

type edge struct {
	from     nodeID
	decision Decision
	cost     int
	next     edgeID
}

// satAdd returns a+b clamped to the int range.
func satAdd(a, b int) int {
	c := a + b
	if (c > a) == (b > 0) {
		return c
	}
	if b > 0 {
		return math.MaxInt
	}
	return math.MinInt
}

// satSub returns a-b clamped to the int range.
func satSub(a, b int) int {
	c := a - b
	if (c < a) == (b > 0) {
		return c
	}
	if b > 0 {
		return math.MinInt
	}
	return math.MaxInt
}
