package fringe

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/matzehuels/ddsolve/pkg/dd"
)

// Queue is a sequential max-priority queue of subproblems. The best entry
// has the highest upper bound; ties go to the state ranked higher, then to
// the entry pushed first.
type Queue[S comparable] interface {
	// Push adds sp. It reports false when sp was folded into an entry
	// already queued.
	Push(sp dd.SubProblem[S]) bool
	// Pop removes and returns the best entry.
	Pop() (dd.SubProblem[S], bool)
	// Peek returns the best entry without removing it.
	Peek() (dd.SubProblem[S], bool)
	Len() int
	Clear()
}

// Kind selects a Queue implementation.
type Kind int

const (
	// NoDup keeps at most one entry per (depth, state).
	NoDup Kind = iota
	// Simple queues every pushed subproblem.
	Simple
)

// String returns "nodup" or "simple".
func (k Kind) String() string {
	switch k {
	case NoDup:
		return "nodup"
	case Simple:
		return "simple"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts "nodup" or "simple" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "nodup", "no-dup", "":
		return NoDup, nil
	case "simple":
		return Simple, nil
	}
	return 0, fmt.Errorf("unknown fringe %q (want nodup or simple)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// NewQueue returns an empty queue of the given kind. The ranking may be nil.
func NewQueue[S comparable](kind Kind, ranking dd.Ranking[S]) Queue[S] {
	if kind == Simple {
		return NewSimpleQueue(ranking)
	}
	return NewNoDupQueue(ranking)
}

type item[S comparable] struct {
	sp    dd.SubProblem[S]
	seq   uint64
	index int
}

// entries implements heap.Interface.
type entries[S comparable] struct {
	items   []*item[S]
	ranking dd.Ranking[S]
}

func (e *entries[S]) Len() int { return len(e.items) }

func (e *entries[S]) Less(i, j int) bool {
	a, b := e.items[i], e.items[j]
	if a.sp.UB != b.sp.UB {
		return a.sp.UB > b.sp.UB
	}
	if e.ranking != nil {
		if c := e.ranking.Compare(a.sp.State, b.sp.State); c != 0 {
			return c > 0
		}
	}
	return a.seq < b.seq
}

func (e *entries[S]) Swap(i, j int) {
	e.items[i], e.items[j] = e.items[j], e.items[i]
	e.items[i].index = i
	e.items[j].index = j
}

func (e *entries[S]) Push(x any) {
	it := x.(*item[S])
	it.index = len(e.items)
	e.items = append(e.items, it)
}

func (e *entries[S]) Pop() any {
	old := e.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	e.items = old[:n-1]
	it.index = -1
	return it
}

// SimpleQueue is a binary heap of subproblems.
type SimpleQueue[S comparable] struct {
	h   entries[S]
	seq uint64
}

// NewSimpleQueue returns an empty SimpleQueue.
func NewSimpleQueue[S comparable](ranking dd.Ranking[S]) *SimpleQueue[S] {
	return &SimpleQueue[S]{h: entries[S]{ranking: ranking}}
}

// Push adds sp and always reports true.
func (q *SimpleQueue[S]) Push(sp dd.SubProblem[S]) bool {
	q.seq++
	heap.Push(&q.h, &item[S]{sp: sp, seq: q.seq})
	return true
}

func (q *SimpleQueue[S]) Pop() (dd.SubProblem[S], bool) {
	if q.h.Len() == 0 {
		return dd.SubProblem[S]{}, false
	}
	return heap.Pop(&q.h).(*item[S]).sp, true
}

func (q *SimpleQueue[S]) Peek() (dd.SubProblem[S], bool) {
	if q.h.Len() == 0 {
		return dd.SubProblem[S]{}, false
	}
	return q.h.items[0].sp, true
}

func (q *SimpleQueue[S]) Len() int { return q.h.Len() }

func (q *SimpleQueue[S]) Clear() {
	clear(q.h.items)
	q.h.items = q.h.items[:0]
}

type key[S comparable] struct {
	depth int
	state S
}

// NoDupQueue is a binary heap holding at most one subproblem per residual
// problem. When an equivalent subproblem is pushed, the queued entry keeps
// the longer path and the larger bound.
type NoDupQueue[S comparable] struct {
	h     entries[S]
	seq   uint64
	index map[key[S]]*item[S]
}

// NewNoDupQueue returns an empty NoDupQueue.
func NewNoDupQueue[S comparable](ranking dd.Ranking[S]) *NoDupQueue[S] {
	return &NoDupQueue[S]{
		h:     entries[S]{ranking: ranking},
		index: make(map[key[S]]*item[S]),
	}
}

func (q *NoDupQueue[S]) Push(sp dd.SubProblem[S]) bool {
	k := key[S]{depth: sp.Depth(), state: sp.State}
	if it, ok := q.index[k]; ok {
		ub := max(it.sp.UB, sp.UB)
		if sp.Value > it.sp.Value {
			it.sp = sp
		}
		it.sp.UB = ub
		heap.Fix(&q.h, it.index)
		return false
	}

	q.seq++
	it := &item[S]{sp: sp, seq: q.seq}
	heap.Push(&q.h, it)
	q.index[k] = it
	return true
}

func (q *NoDupQueue[S]) Pop() (dd.SubProblem[S], bool) {
	if q.h.Len() == 0 {
		return dd.SubProblem[S]{}, false
	}
	it := heap.Pop(&q.h).(*item[S])
	delete(q.index, key[S]{depth: it.sp.Depth(), state: it.sp.State})
	return it.sp, true
}

func (q *NoDupQueue[S]) Peek() (dd.SubProblem[S], bool) {
	if q.h.Len() == 0 {
		return dd.SubProblem[S]{}, false
	}
	return q.h.items[0].sp, true
}

func (q *NoDupQueue[S]) Len() int { return q.h.Len() }

func (q *NoDupQueue[S]) Clear() {
	clear(q.h.items)
	q.h.items = q.h.items[:0]
	clear(q.index)
}
