package dd

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
)

// Input describes one compilation.
type Input[S comparable] struct {
	Mode     Mode
	MaxWidth int

	Problem    Problem[S]
	Relaxation Relaxation[S]
	Ranking    Ranking[S]

	// Residual is the subproblem the diagram is rooted at.
	Residual SubProblem[S]
	// BestLB is the value of the incumbent, or math.MinInt without one.
	BestLB int
	// Barrier is optional. Relaxed compilations record thresholds in it and
	// every compilation prunes the nodes it dominates.
	Barrier Barrier[S]
}

// Stats counts the work done by compilations.
type Stats struct {
	NodesCreated  int `json:"nodes_created"`
	NodesExpanded int `json:"nodes_expanded"`
	NodesMerged   int `json:"nodes_merged"`
	NodesDropped  int `json:"nodes_dropped"`
	BarrierPruned int `json:"barrier_pruned"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.NodesCreated += o.NodesCreated
	s.NodesExpanded += o.NodesExpanded
	s.NodesMerged += o.NodesMerged
	s.NodesDropped += o.NodesDropped
	s.BarrierPruned += o.BarrierPruned
}

// Diagram is a reusable layered decision diagram. A Diagram is not safe for
// concurrent use: each worker owns one and recompiles it for every
// subproblem it processes. Compile discards the previous contents while
// keeping the allocated buffers.
type Diagram[S comparable] struct {
	policy CutsetPolicy
	mode   Mode

	barrier Barrier[S]

	rootPath []Decision
	nodes    []node[S]
	edges    []edge

	prevLayer []nodeID
	currLayer []nodeID
	nextLayer []nodeID
	nextIndex map[S]nodeID

	cutset   []nodeID
	lelDepth int

	best        nodeID
	exact       bool
	approximate bool

	stats  Stats
	states []S
}

// New returns an empty diagram extracting cutsets with the given policy.
func New[S comparable](policy CutsetPolicy) *Diagram[S] {
	d := &Diagram[S]{
		policy:    policy,
		nextIndex: make(map[S]nodeID),
	}
	d.clear()
	return d
}

// Policy returns the cutset policy of d.
func (d *Diagram[S]) Policy() CutsetPolicy { return d.policy }

func (d *Diagram[S]) clear() {
	d.barrier = nil
	d.rootPath = d.rootPath[:0]
	d.nodes = d.nodes[:0]
	d.edges = d.edges[:0]
	d.prevLayer = d.prevLayer[:0]
	d.currLayer = d.currLayer[:0]
	d.nextLayer = d.nextLayer[:0]
	clear(d.nextIndex)
	d.cutset = d.cutset[:0]
	d.lelDepth = -1
	d.best = noNode
	d.exact = true
	d.approximate = false
	d.stats = Stats{}
}

// Compile builds the diagram of in.Residual layer by layer.
//
// Restricted compilations keep the in.MaxWidth best nodes of each layer and
// yield feasible solutions. Relaxed compilations merge the surplus nodes and
// yield an upper bound; once compiled, their cutset can be drained. Nodes
// whose rough bound cannot beat in.BestLB are not expanded.
//
// The context is checked once per layer. When it is done, Compile returns an
// error wrapping ErrInterrupted and the diagram contents are unspecified.
func (d *Diagram[S]) Compile(ctx context.Context, in *Input[S]) error {
	if in.Mode != Exact && in.MaxWidth < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWidth, in.MaxWidth)
	}

	d.clear()
	d.mode = in.Mode
	d.barrier = in.Barrier
	d.rootPath = append(d.rootPath, in.Residual.Path...)

	rootDepth := len(d.rootPath)
	rootRub := math.MaxInt
	if in.Residual.UB != math.MaxInt {
		rootRub = satSub(in.Residual.UB, in.Residual.Value)
	}
	d.nodes = append(d.nodes, node[S]{
		state:    in.Residual.State,
		value:    in.Residual.Value,
		depth:    rootDepth,
		best:     noEdge,
		inbound:  noEdge,
		valueBot: math.MinInt,
		theta:    math.MaxInt,
		rub:      rootRub,
		flags:    flagExact,
	})
	d.nextIndex[in.Residual.State] = 0
	d.nextLayer = append(d.nextLayer, 0)
	d.stats.NodesCreated++

	rough, hasRough := in.Problem.(RoughBounder[S])
	nbVars := in.Problem.NbVariables()

	for depth := rootDepth; ; depth++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		v, ok := in.Problem.NextVariable(depth, d.layerStates(d.nextLayer))
		if !ok {
			break
		}

		d.prevLayer, d.currLayer, d.nextLayer = d.currLayer, d.nextLayer, d.prevLayer[:0]
		clear(d.nextIndex)

		if len(d.currLayer) == 0 {
			// Every path died out.
			break
		}

		if depth > rootDepth && d.barrier != nil {
			d.pruneByBarrier()
		}

		switch in.Mode {
		case Restricted:
			if len(d.currLayer) > in.MaxWidth {
				d.restrict(in)
			}
		case Relaxed:
			if len(d.currLayer) > in.MaxWidth && depth > rootDepth+1 {
				d.relax(in)
			}
		}

		for _, id := range d.currLayer {
			state, value := d.nodes[id].state, d.nodes[id].value
			rub := math.MaxInt
			if hasRough {
				rub = rough.RoughBound(state, nbVars-depth)
			}
			d.nodes[id].rub = rub
			exact := d.nodes[id].flags.has(flagExact)

			if satAdd(value, rub) > in.BestLB {
				for dec := range in.Problem.Domain(v, state) {
					d.branch(id, dec, in.Problem)
				}
				d.stats.NodesExpanded++
				if in.Mode == Relaxed && exact {
					d.record(depth, state, value, false)
				}
			} else {
				theta := satSub(in.BestLB, rub)
				d.nodes[id].theta = theta
				if in.Mode == Relaxed && exact {
					d.record(depth, state, theta, false)
				}
			}
		}
	}

	for _, id := range d.nextLayer {
		if d.best == noNode || d.nodes[id].value > d.nodes[d.best].value {
			d.best = id
		}
	}
	d.exact = !d.approximate || (in.Mode == Relaxed && d.hasExactBestPath())

	if in.Mode == Relaxed {
		d.computeLocalBounds(in.BestLB)
	}
	return nil
}

// IsExact reports whether the best value of the diagram is the true optimum
// of the residual problem.
func (d *Diagram[S]) IsExact() bool { return d.exact }

// BestValue returns the value of the best terminal node. For a relaxed
// diagram this is an upper bound, for a restricted one a feasible value.
func (d *Diagram[S]) BestValue() (int, bool) {
	if d.best == noNode {
		return 0, false
	}
	return d.nodes[d.best].value, true
}

// BestSolution returns the full decision sequence leading to the best
// terminal node, starting with the path of the residual problem.
func (d *Diagram[S]) BestSolution() ([]Decision, bool) {
	if d.best == noNode {
		return nil, false
	}
	return d.pathTo(d.best), true
}

// Stats returns the counters of the last compilation.
func (d *Diagram[S]) Stats() Stats { return d.stats }

// Width returns the number of live nodes of the widest layer.
func (d *Diagram[S]) Width() int {
	counts := make(map[int]int)
	widest := 0
	for i := range d.nodes {
		if d.nodes[i].flags.has(flagDeleted) {
			continue
		}
		counts[d.nodes[i].depth]++
		widest = max(widest, counts[d.nodes[i].depth])
	}
	return widest
}

func (d *Diagram[S]) layerStates(layer []nodeID) iter.Seq[S] {
	return func(yield func(S) bool) {
		for _, id := range layer {
			if !yield(d.nodes[id].state) {
				return
			}
		}
	}
}

// branch adds the arc obtained by applying dec to node from.
func (d *Diagram[S]) branch(from nodeID, dec Decision, p Problem[S]) {
	parent := d.nodes[from]
	next, cost := p.Transition(parent.state, dec)
	value := satAdd(parent.value, cost)
	eid := len(d.edges)

	if id, ok := d.nextIndex[next]; ok {
		n := &d.nodes[id]
		d.edges = append(d.edges, edge{from: from, decision: dec, cost: cost, next: n.inbound})
		n.inbound = eid
		if value > n.value || (value == n.value && parent.flags.has(flagExact)) {
			n.value = value
			n.best = eid
			n.flags = parent.flags & inherited
		}
		return
	}

	d.edges = append(d.edges, edge{from: from, decision: dec, cost: cost, next: noEdge})
	id := len(d.nodes)
	d.nodes = append(d.nodes, node[S]{
		state:    next,
		value:    value,
		depth:    parent.depth + 1,
		best:     eid,
		inbound:  eid,
		valueBot: math.MinInt,
		theta:    math.MaxInt,
		rub:      math.MaxInt,
		flags:    parent.flags & inherited,
	})
	d.nextIndex[next] = id
	d.nextLayer = append(d.nextLayer, id)
	d.stats.NodesCreated++
}

// pruneByBarrier removes the exact nodes of the current layer that do not
// beat the threshold recorded for their state.
func (d *Diagram[S]) pruneByBarrier() {
	kept := d.currLayer[:0]
	for _, id := range d.currLayer {
		n := &d.nodes[id]
		if n.flags.has(flagRelaxed) {
			kept = append(kept, id)
			continue
		}
		theta, ok := d.barrier.Threshold(n.depth, n.state)
		if !ok || n.value > theta {
			kept = append(kept, id)
			continue
		}
		n.theta = theta
		n.flags |= flagPrunedByBarrier
		d.stats.BarrierPruned++
	}
	d.currLayer = kept
}

// sortLayer orders the current layer by decreasing value, then by
// decreasing rank. The sort is stable so creation order settles the rest.
func (d *Diagram[S]) sortLayer(r Ranking[S]) {
	slices.SortStableFunc(d.currLayer, func(a, b nodeID) int {
		na, nb := &d.nodes[a], &d.nodes[b]
		if c := cmp.Compare(nb.value, na.value); c != 0 {
			return c
		}
		if r == nil {
			return 0
		}
		return r.Compare(nb.state, na.state)
	})
}

func (d *Diagram[S]) restrict(in *Input[S]) {
	d.approximate = true
	d.sortLayer(in.Ranking)
	d.stats.NodesDropped += len(d.currLayer) - in.MaxWidth
	d.currLayer = d.currLayer[:in.MaxWidth]
}

func (d *Diagram[S]) relax(in *Input[S]) {
	if d.policy == LastExactLayer && !d.approximate {
		for _, id := range d.prevLayer {
			d.nodes[id].flags |= flagCutset
			d.cutset = append(d.cutset, id)
			d.lelDepth = d.nodes[id].depth
		}
	}
	d.approximate = true
	d.sortLayer(in.Ranking)

	w := in.MaxWidth
	keep, surplus := d.currLayer[:w-1], d.currLayer[w-1:]

	d.states = d.states[:0]
	for _, id := range surplus {
		d.states = append(d.states, d.nodes[id].state)
	}
	merged := in.Relaxation.Merge(slices.Values(d.states))

	recycled := noNode
	for _, id := range keep {
		if d.nodes[id].state == merged {
			recycled = id
			break
		}
	}

	mergedID := recycled
	if recycled == noNode {
		mergedID = len(d.nodes)
		d.nodes = append(d.nodes, node[S]{
			state:    merged,
			value:    math.MinInt,
			depth:    d.nodes[surplus[0]].depth,
			best:     noEdge,
			inbound:  noEdge,
			valueBot: math.MinInt,
			theta:    math.MaxInt,
			rub:      math.MaxInt,
		})
		d.stats.NodesCreated++
	}
	d.nodes[mergedID].flags = d.nodes[mergedID].flags&^flagExact | flagRelaxed

	for _, drop := range surplus {
		d.nodes[drop].flags |= flagDeleted
		dst := d.nodes[drop].state
		for eid := d.nodes[drop].inbound; eid != noEdge; eid = d.edges[eid].next {
			e := d.edges[eid]
			src := &d.nodes[e.from]
			cost := in.Relaxation.Relax(src.state, dst, merged, e.decision, e.cost)
			value := satAdd(src.value, cost)

			m := &d.nodes[mergedID]
			neid := len(d.edges)
			d.edges = append(d.edges, edge{from: e.from, decision: e.decision, cost: cost, next: m.inbound})
			m.inbound = neid
			if value >= m.value {
				m.value = value
				m.best = neid
			}
		}
	}
	d.stats.NodesMerged += len(surplus)

	if recycled != noNode {
		// The merged state already had a node: keep the first surplus node
		// alive so the layer still holds w nodes.
		d.currLayer = d.currLayer[:w]
		d.nodes[d.currLayer[w-1]].flags &^= flagDeleted
		d.stats.NodesMerged--
	} else {
		d.currLayer = append(d.currLayer[:w-1], mergedID)
	}
}

// hasExactBestPath reports whether the best terminal node is reached
// through exact nodes only.
func (d *Diagram[S]) hasExactBestPath() bool {
	if d.best == noNode {
		return true
	}
	for id := d.best; ; {
		n := &d.nodes[id]
		switch {
		case n.flags.has(flagExact):
			return true
		case n.flags.has(flagRelaxed):
			return false
		case n.best == noEdge:
			return true
		}
		id = d.edges[n.best].from
	}
}

func (d *Diagram[S]) pathTo(id nodeID) []Decision {
	path := make([]Decision, len(d.rootPath), d.nodes[id].depth)
	copy(path, d.rootPath)
	start := len(path)
	for eid := d.nodes[id].best; eid != noEdge; eid = d.nodes[d.edges[eid].from].best {
		path = append(path, d.edges[eid].decision)
	}
	slices.Reverse(path[start:])
	return path
}

func (d *Diagram[S]) record(depth int, state S, theta int, explored bool) {
	if d.barrier == nil {
		return
	}
	if d.policy == LastExactLayer && d.lelDepth >= 0 && depth > d.lelDepth {
		return
	}
	d.barrier.Record(depth, state, theta, explored)
}
