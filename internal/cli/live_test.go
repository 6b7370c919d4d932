package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/ddsolve/pkg/observability"
)

func TestLiveModelIncumbents(t *testing.T) {
	m := newLiveModel("toy", time.Minute, &searchCounters{}, nil)

	for _, v := range []int{5, 9, 7, 12} {
		next, _ := m.Update(liveIncumbentMsg{value: v, elapsed: time.Duration(v) * time.Millisecond})
		m = next.(LiveModel)
	}

	if len(m.history) != 3 {
		t.Fatalf("history = %v, want the three improvements", m.history)
	}
	view := m.View()
	for _, want := range []string{"ddsolve toy", "searching", "12", "↑3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}
}

func TestLiveModelHistoryIsBounded(t *testing.T) {
	m := newLiveModel("toy", 0, &searchCounters{}, nil)
	m.maxHistory = 2
	for v := range 5 {
		next, _ := m.Update(liveIncumbentMsg{value: v})
		m = next.(LiveModel)
	}
	if len(m.history) != 2 || m.history[1].value != 4 {
		t.Errorf("history = %v", m.history)
	}
}

func TestLiveModelQuitCancelsSearch(t *testing.T) {
	cancelled := 0
	m := newLiveModel("toy", 0, &searchCounters{}, func() { cancelled++ })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(LiveModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(LiveModel)

	if cancelled != 1 {
		t.Errorf("cancel called %d times, want 1", cancelled)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Errorf("view should show the stop:\n%s", m.View())
	}
}

func TestLiveModelDone(t *testing.T) {
	m := newLiveModel("toy", 0, &searchCounters{}, nil)
	next, cmd := m.Update(liveDoneMsg(observability.SolveSummary{Value: 16, HasSolution: true, Proved: true, UpperBound: 16}))
	m = next.(LiveModel)

	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should return tea.Quit")
	}
	if !strings.Contains(m.View(), "optimal") {
		t.Errorf("view should show the final status:\n%s", m.View())
	}
}
