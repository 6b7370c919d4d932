package fringe

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/matzehuels/ddsolve/pkg/dd"
)

// ErrClosed is returned by Push once the search has been interrupted.
var ErrClosed = errors.New("fringe closed")

// Status tells a worker what to do after Pop.
type Status int

const (
	// Work means a subproblem was handed out.
	Work Status = iota
	// Complete means the fringe is empty and no worker is running: the
	// search is exhaustive.
	Complete
	// Interrupted means the search was stopped before completion.
	Interrupted
)

func (s Status) String() string {
	switch s {
	case Work:
		return "work"
	case Complete:
		return "complete"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

// Verdict is the answer of an accept filter about a popped subproblem.
type Verdict int

const (
	// Take hands the subproblem to the worker.
	Take Verdict = iota
	// Skip discards the subproblem and pops the next one.
	Skip
	// SkipAll discards the subproblem and everything still queued. Entries
	// are popped best bound first, so once a bound cannot beat the
	// incumbent none of the remaining ones can.
	SkipAll
)

// AcceptFunc filters popped subproblems. It runs with the fringe locked and
// must not call back into the fringe.
type AcceptFunc[S comparable] func(sp dd.SubProblem[S]) Verdict

const noBound = math.MinInt

// Shared wraps a Queue for concurrent workers. It hands out subproblems,
// blocks workers while others may still produce work, and detects global
// termination: the queue is empty and no worker holds a subproblem.
//
// Shared also tracks the number of open and running subproblems per depth.
// When every subproblem at the shallowest active depth is done, the
// OnLayerDone callback fires for that depth.
type Shared[S comparable] struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue Queue[S]

	ongoing        int
	openByDepth    []int
	ongoingByDepth []int
	lowestActive   int
	onLayerDone    func(depth int)

	workerUB    []int
	interrupted bool
	bestUB      int

	popped int
}

// Option configures a Shared fringe.
type Option func(*options)

type options struct {
	onLayerDone func(depth int)
}

// WithLayerDone sets the callback fired, with the fringe locked, when no
// open or running subproblem remains at a depth or above it.
func WithLayerDone(fn func(depth int)) Option {
	return func(o *options) { o.onLayerDone = fn }
}

// NewShared wraps q for the given number of workers of a problem with nbVars
// decision variables.
func NewShared[S comparable](q Queue[S], nbVars, workers int, opts ...Option) *Shared[S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Shared[S]{
		queue:          q,
		openByDepth:    make([]int, nbVars+1),
		ongoingByDepth: make([]int, nbVars+1),
		onLayerDone:    o.onLayerDone,
		workerUB:       make([]int, max(workers, 1)),
		bestUB:         noBound,
	}
	for i := range s.workerUB {
		s.workerUB[i] = noBound
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push queues subproblems and wakes up waiting workers. Subproblems deeper
// than the problem allows are rejected silently.
func (s *Shared[S]) Push(sps ...dd.SubProblem[S]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interrupted {
		return ErrClosed
	}
	for _, sp := range sps {
		depth := sp.Depth()
		if depth >= len(s.openByDepth) {
			continue
		}
		if s.queue.Push(sp) {
			s.openByDepth[depth]++
		}
	}
	s.cond.Broadcast()
	return nil
}

// Pop hands the next accepted subproblem to worker. It blocks while the
// queue is empty and other workers are still running. A nil accept takes
// every subproblem.
//
// Pop returns Interrupted once ctx is done or Interrupt was called; the
// first such call records the best bound still open and clears the queue.
func (s *Shared[S]) Pop(ctx context.Context, worker int, accept AcceptFunc[S]) (dd.SubProblem[S], Status) {
	stop := context.AfterFunc(ctx, s.wake)
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		s.clearFinishedLayers()

		if s.interrupted {
			return dd.SubProblem[S]{}, Interrupted
		}
		if s.ongoing == 0 && s.queue.Len() == 0 {
			return dd.SubProblem[S]{}, Complete
		}
		if ctx.Err() != nil {
			s.interruptLocked()
			return dd.SubProblem[S]{}, Interrupted
		}
		if s.queue.Len() == 0 {
			s.cond.Wait()
			continue
		}

		sp, _ := s.queue.Pop()
		depth := sp.Depth()
		s.openByDepth[depth]--

		verdict := Take
		if accept != nil {
			verdict = accept(sp)
		}
		switch verdict {
		case Skip:
			continue
		case SkipAll:
			s.queue.Clear()
			clear(s.openByDepth)
			continue
		}

		s.ongoing++
		s.ongoingByDepth[depth]++
		s.workerUB[worker] = sp.UB
		s.popped++
		return sp, Work
	}
}

// Done reports that worker finished sp, after pushing its children.
func (s *Shared[S]) Done(worker int, sp dd.SubProblem[S]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ongoing--
	s.ongoingByDepth[sp.Depth()]--
	s.workerUB[worker] = noBound
	s.cond.Broadcast()
}

// Interrupt stops the search: subsequent pops return Interrupted.
// It has no effect once the search is complete.
func (s *Shared[S]) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interruptLocked()
}

func (s *Shared[S]) interruptLocked() {
	if s.interrupted || (s.ongoing == 0 && s.queue.Len() == 0) {
		return
	}
	s.interrupted = true

	ub := noBound
	for _, u := range s.workerUB {
		ub = max(ub, u)
	}
	if top, ok := s.queue.Peek(); ok {
		ub = max(ub, top.UB)
	}
	s.bestUB = ub

	s.queue.Clear()
	clear(s.openByDepth)
	s.cond.Broadcast()
}

func (s *Shared[S]) wake() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Shared[S]) clearFinishedLayers() {
	for s.lowestActive < len(s.openByDepth) &&
		s.openByDepth[s.lowestActive]+s.ongoingByDepth[s.lowestActive] == 0 {
		if s.onLayerDone != nil {
			s.onLayerDone(s.lowestActive)
		}
		s.lowestActive++
	}
}

// UpperBound returns the best bound of the subproblems that were open or
// running when the search was interrupted. It reports false when the search
// was not interrupted or nothing was left.
func (s *Shared[S]) UpperBound() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestUB, s.interrupted && s.bestUB != noBound
}

// Len returns the number of queued subproblems.
func (s *Shared[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Popped returns the number of subproblems handed out to workers.
func (s *Shared[S]) Popped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popped
}

// Interrupted reports whether the search was stopped before completion.
func (s *Shared[S]) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}
