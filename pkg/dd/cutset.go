package dd

// computeLocalBounds walks a compiled relaxed diagram bottom-up. It computes
// the longest path from every node to the terminal layer, derives the
// thresholds recorded in the barrier and, for the frontier policy, detects
// the cutset.
func (d *Diagram[S]) computeLocalBounds(bestLB int) {
	for _, id := range d.nextLayer {
		n := &d.nodes[id]
		n.valueBot = 0
		n.flags |= flagMarked

		switch d.policy {
		case LastExactLayer:
			if !d.approximate {
				n.flags |= flagCutset
			}
		case Frontier:
			// Exact terminal nodes carry their own solution; they join the
			// cutset so that no exact path is lost when the diagram is not
			// exact.
			if n.flags.has(flagExact) {
				n.flags |= flagCutset
				d.cutset = append(d.cutset, id)
			}
		}
	}

	// Arcs always point to nodes created later, so walking ids backwards
	// visits every node after all of its successors.
	for id := len(d.nodes) - 1; id >= 0; id-- {
		n := &d.nodes[id]
		if n.flags.has(flagDeleted) {
			continue
		}

		if n.flags.has(flagCutset) {
			if satAdd(n.value, n.valueBot) < bestLB {
				n.theta = min(n.theta, satSub(bestLB, n.valueBot))
			} else {
				n.theta = min(n.theta, n.value)
			}
		}

		if n.flags.has(flagExact) && !n.flags.has(flagPrunedByBarrier) {
			d.record(n.depth, n.state, n.theta, !n.flags.has(flagCutset))
		}

		marked := n.flags.has(flagMarked)
		for eid := n.inbound; eid != noEdge; eid = d.edges[eid].next {
			e := &d.edges[eid]
			parent := &d.nodes[e.from]

			if marked {
				parent.valueBot = max(parent.valueBot, satAdd(n.valueBot, e.cost))
				parent.flags |= flagMarked
			}
			parent.theta = min(parent.theta, satSub(n.theta, e.cost))

			if d.policy == Frontier && marked && !n.flags.has(flagExact) &&
				parent.flags.has(flagExact) && !parent.flags.has(flagCutset) {
				parent.flags |= flagCutset
				d.cutset = append(d.cutset, e.from)
			}
		}
	}
}

// DrainCutset passes every subproblem of the cutset of a relaxed diagram to
// fn and empties the cutset. Nodes from which no terminal node is reachable
// are skipped. The bound of each subproblem is the tightest of its rough
// bound, its local bound and the best value of the diagram.
//
// DrainCutset yields nothing for an exact diagram: there is nothing left to
// explore below it.
func (d *Diagram[S]) DrainCutset(fn func(SubProblem[S])) {
	defer func() { d.cutset = d.cutset[:0] }()

	if d.exact || d.best == noNode {
		return
	}
	bestValue := d.nodes[d.best].value

	for _, id := range d.cutset {
		n := &d.nodes[id]
		if !n.flags.has(flagMarked) {
			continue
		}
		ub := min(satAdd(n.value, n.rub), satAdd(n.value, n.valueBot), bestValue)
		fn(SubProblem[S]{
			State: n.state,
			Value: n.value,
			Path:  d.pathTo(id),
			UB:    ub,
		})
	}
}
