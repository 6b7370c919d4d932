package dd

import (
	"errors"
	"fmt"
	"strings"
)

// SubProblem is a residual problem: the state reached by Path, the value
// accumulated along it, and an upper bound on any completion. It is the unit
// of work exchanged between the fringe and the workers.
type SubProblem[S comparable] struct {
	State S
	Value int
	Path  []Decision
	UB    int
}

// Depth returns the number of decisions already taken.
func (sp SubProblem[S]) Depth() int { return len(sp.Path) }

// Mode selects how a diagram copes with layers wider than the width budget.
type Mode int

const (
	// Exact never bounds the width.
	Exact Mode = iota
	// Relaxed merges the surplus nodes into one over-approximating node.
	Relaxed
	// Restricted drops the surplus nodes.
	Restricted
)

var modeNames = map[Mode]string{
	Exact:      "exact",
	Relaxed:    "relaxed",
	Restricted: "restricted",
}

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts "exact", "relaxed" or "restricted" to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: only 'exact', 'relaxed' and 'restricted' are allowed, got %q", ErrUnknownMode, s)
}

// CutsetPolicy selects which exact nodes of a relaxed diagram become
// subproblems.
type CutsetPolicy int

const (
	// LastExactLayer uses every node of the deepest layer above the first
	// merge.
	LastExactLayer CutsetPolicy = iota
	// Frontier uses every exact node with an arc into a merged node, plus the
	// exact terminal nodes.
	Frontier
)

// String returns "lel" or "frontier".
func (c CutsetPolicy) String() string {
	switch c {
	case LastExactLayer:
		return "lel"
	case Frontier:
		return "frontier"
	default:
		return fmt.Sprintf("CutsetPolicy(%d)", int(c))
	}
}

// ParseCutsetPolicy converts "lel" or "frontier" to a CutsetPolicy.
func ParseCutsetPolicy(s string) (CutsetPolicy, error) {
	switch strings.ToLower(s) {
	case "lel", "last-exact-layer":
		return LastExactLayer, nil
	case "frontier":
		return Frontier, nil
	}
	return 0, fmt.Errorf("%w: the only supported cutsets are 'lel' and 'frontier', got %q", ErrUnknownCutset, s)
}

var (
	// ErrInterrupted is returned by Compile when its context is done before
	// the last layer was expanded.
	ErrInterrupted = errors.New("compilation interrupted")

	// ErrInvalidWidth is returned by Compile when a width-bounded mode is
	// requested with a width below one.
	ErrInvalidWidth = errors.New("maximum width must be at least 1")

	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("unknown compilation mode")

	// ErrUnknownCutset is returned by ParseCutsetPolicy.
	ErrUnknownCutset = errors.New("unknown cutset policy")
)

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c CutsetPolicy) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CutsetPolicy) UnmarshalText(text []byte) error {
	v, err := ParseCutsetPolicy(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
