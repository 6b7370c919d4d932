// Package barrier implements the dominance memory shared by the workers of
// the barrier search variant.
//
// The store maps a residual problem, identified by its depth (the number of
// decisions already taken) and its state, to a threshold theta: any
// subproblem reaching that state at that depth with a value not above theta
// cannot improve the incumbent. Each record also remembers whether the
// residual problem has been explored with value theta.
//
// Records only ever improve. A missing record never prunes anything, so a
// cleared layer only costs extra work.
package barrier

import "sync"

// Entry is one barrier record.
type Entry struct {
	Theta    int  `json:"theta"`
	Explored bool `json:"explored"`
}

// improves reports whether e should replace old.
func (e Entry) improves(old Entry) bool {
	return e.Theta > old.Theta || (e.Theta == old.Theta && e.Explored && !old.Explored)
}

// dominates reports whether a subproblem of the given value is made useless
// by e.
func (e Entry) dominates(value int) bool {
	return value < e.Theta || (value == e.Theta && e.Explored)
}

type layer[S comparable] struct {
	mu      sync.RWMutex
	entries map[S]Entry
}

// Store is a set of per-depth barrier layers. Each layer has its own lock, so
// workers only contend when they touch the same depth. A Store is safe for
// concurrent use.
type Store[S comparable] struct {
	layers []layer[S]
}

// New returns a store for a problem with nbVars decision variables: depths
// range from 0 to nbVars included.
func New[S comparable](nbVars int) *Store[S] {
	s := &Store[S]{layers: make([]layer[S], nbVars+1)}
	for i := range s.layers {
		s.layers[i].entries = make(map[S]Entry)
	}
	return s
}

func (s *Store[S]) layer(depth int) *layer[S] {
	if depth < 0 || depth >= len(s.layers) {
		return nil
	}
	return &s.layers[depth]
}

// Get returns the record of (depth, state).
func (s *Store[S]) Get(depth int, state S) (Entry, bool) {
	l := s.layer(depth)
	if l == nil {
		return Entry{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[state]
	return e, ok
}

// Threshold returns the theta recorded for (depth, state).
func (s *Store[S]) Threshold(depth int, state S) (int, bool) {
	e, ok := s.Get(depth, state)
	return e.Theta, ok
}

// Check reports whether a subproblem reaching state at depth with the given
// value is dominated by a record and can be discarded.
func (s *Store[S]) Check(depth int, state S, value int) bool {
	e, ok := s.Get(depth, state)
	return ok && e.dominates(value)
}

// Record stores (theta, explored) for (depth, state) unless an equal or
// better record exists. It reports whether the store changed.
func (s *Store[S]) Record(depth int, state S, theta int, explored bool) bool {
	l := s.layer(depth)
	if l == nil {
		return false
	}
	e := Entry{Theta: theta, Explored: explored}

	l.mu.RLock()
	old, ok := l.entries[state]
	l.mu.RUnlock()
	if ok && !e.improves(old) {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another writer may have improved the record meanwhile.
	if old, ok := l.entries[state]; ok && !e.improves(old) {
		return false
	}
	l.entries[state] = e
	return true
}

// Admit decides whether a subproblem popped from the fringe must be
// explored. A subproblem is admitted when no record dominates it; it is then
// recorded as explored with its own value, so that an equivalent subproblem
// popped later is discarded. The check and the update are atomic.
func (s *Store[S]) Admit(depth int, state S, value int) bool {
	l := s.layer(depth)
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.entries[state]; ok && old.dominates(value) {
		return false
	}
	l.entries[state] = Entry{Theta: value, Explored: true}
	return true
}

// Clear drops every record of the given depth. The search clears a layer
// once no open or running subproblem remains at or above it.
func (s *Store[S]) Clear(depth int) {
	l := s.layer(depth)
	if l == nil {
		return
	}
	l.mu.Lock()
	clear(l.entries)
	l.mu.Unlock()
}

// Len returns the number of records across all depths.
func (s *Store[S]) Len() int {
	n := 0
	for i := range s.layers {
		l := &s.layers[i]
		l.mu.RLock()
		n += len(l.entries)
		l.mu.RUnlock()
	}
	return n
}
