package solver

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/ddsolve/pkg/dd"
)

// incumbent is the best solution found so far, shared by every worker. Its
// value never decreases.
type incumbent struct {
	has   atomic.Bool
	value atomic.Int64

	mu   sync.Mutex
	path []dd.Decision
}

// Value returns the incumbent value, or math.MinInt without a solution.
func (i *incumbent) Value() int {
	if !i.has.Load() {
		return math.MinInt
	}
	return int(i.value.Load())
}

// Offer replaces the incumbent when value is strictly better. It reports
// whether the incumbent changed.
func (i *incumbent) Offer(value int, path []dd.Decision) bool {
	if value <= i.Value() {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	// Re-check under the lock: another worker may have improved it.
	if value <= i.Value() {
		return false
	}
	i.path = slices.Clone(path)
	i.value.Store(int64(value))
	i.has.Store(true)
	return true
}

// Best returns the incumbent value and decision sequence.
func (i *incumbent) Best() (int, []dd.Decision, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.has.Load() {
		return 0, nil, false
	}
	return int(i.value.Load()), slices.Clone(i.path), true
}
