package fringe_test

import (
	"cmp"
	"testing"

	"github.com/matzehuels/ddsolve/pkg/dd"
	"github.com/matzehuels/ddsolve/pkg/fringe"
)

type byValue struct{}

func (byValue) Compare(a, b int) int { return cmp.Compare(a, b) }

// sub builds a subproblem at the given depth.
func sub(state, value, ub, depth int) dd.SubProblem[int] {
	return dd.SubProblem[int]{State: state, Value: value, UB: ub, Path: make([]dd.Decision, depth)}
}

func drainStates(q fringe.Queue[int]) []int {
	var out []int
	for {
		sp, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, sp.State)
	}
}

func TestQueueOrder(t *testing.T) {
	for _, kind := range []fringe.Kind{fringe.Simple, fringe.NoDup} {
		t.Run(kind.String(), func(t *testing.T) {
			q := fringe.NewQueue[int](kind, byValue{})
			q.Push(sub(1, 0, 10, 1))
			q.Push(sub(2, 0, 30, 1))
			q.Push(sub(3, 0, 20, 1))
			q.Push(sub(4, 0, 20, 1)) // same bound, ranked higher than 3
			q.Push(sub(5, 0, 5, 1))

			if top, _ := q.Peek(); top.State != 2 {
				t.Errorf("Peek = %d, want 2", top.State)
			}
			got := drainStates(q)
			want := []int{2, 4, 3, 1, 5}
			if len(got) != len(want) {
				t.Fatalf("popped %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("popped %v, want %v", got, want)
				}
			}
		})
	}
}

func TestQueueInsertionOrderBreaksTies(t *testing.T) {
	q := fringe.NewSimpleQueue[int](nil)
	for state := range 6 {
		q.Push(sub(state, 0, 7, 1))
	}
	for want := range 6 {
		sp, _ := q.Pop()
		if sp.State != want {
			t.Fatalf("pop %d: got state %d", want, sp.State)
		}
	}
}

func TestNoDupFoldsEquivalentEntries(t *testing.T) {
	q := fringe.NewNoDupQueue[int](byValue{})

	if !q.Push(sub(9, 4, 10, 2)) {
		t.Fatal("first push should be new")
	}
	if q.Push(sub(9, 6, 8, 2)) {
		t.Fatal("equivalent push should be folded")
	}
	if !q.Push(sub(9, 1, 3, 3)) {
		t.Fatal("same state at another depth is a different entry")
	}
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}

	sp, _ := q.Pop()
	if sp.Value != 6 || sp.UB != 10 || sp.Depth() != 2 {
		t.Errorf("folded entry = value %d ub %d depth %d, want 6 10 2", sp.Value, sp.UB, sp.Depth())
	}

	// Once popped, the state may be queued again.
	if !q.Push(sub(9, 0, 1, 2)) {
		t.Error("push after pop should be new")
	}
}

func TestNoDupRaisedBoundMovesUp(t *testing.T) {
	q := fringe.NewNoDupQueue[int](nil)
	q.Push(sub(1, 0, 10, 1))
	q.Push(sub(2, 0, 5, 1))
	q.Push(sub(2, 0, 50, 1))

	if sp, _ := q.Pop(); sp.State != 2 || sp.UB != 50 {
		t.Errorf("Pop = %+v, want state 2 with bound 50", sp)
	}
}

func TestClear(t *testing.T) {
	for _, kind := range []fringe.Kind{fringe.Simple, fringe.NoDup} {
		q := fringe.NewQueue[int](kind, nil)
		q.Push(sub(1, 0, 1, 0))
		q.Push(sub(2, 0, 1, 0))
		q.Clear()
		if q.Len() != 0 {
			t.Errorf("%s: Len after Clear = %d", kind, q.Len())
		}
		if _, ok := q.Pop(); ok {
			t.Errorf("%s: Pop after Clear returned an entry", kind)
		}
		if !q.Push(sub(1, 0, 1, 0)) {
			t.Errorf("%s: push after Clear should be new", kind)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    fringe.Kind
		wantErr bool
	}{
		{"nodup", fringe.NoDup, false},
		{"SIMPLE", fringe.Simple, false},
		{"", fringe.NoDup, false},
		{"fifo", 0, true},
	}
	for _, tt := range tests {
		got, err := fringe.ParseKind(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("ParseKind(%q) = %v, %v", tt.in, got, err)
		}
	}
}
