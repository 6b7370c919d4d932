package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ddsolve/pkg/observability"
)

const liveRefresh = 100 * time.Millisecond

var (
	liveLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	liveDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type (
	liveTickMsg      time.Time
	liveIncumbentMsg struct {
		value   int
		elapsed time.Duration
	}
	liveDoneMsg observability.SolveSummary
)

// =============================================================================
// LiveModel - Search dashboard
// =============================================================================

// LiveModel is the bubbletea model of the --live dashboard. It shows the
// incumbent history and the search counters while the solver runs.
type LiveModel struct {
	Instance string
	Timeout  time.Duration

	counters *searchCounters
	cancel   context.CancelFunc

	start      time.Time
	now        time.Time
	history    []liveIncumbentMsg
	summary    *observability.SolveSummary
	stopped    bool
	maxHistory int
}

// newLiveModel creates a dashboard reading counters. Pressing q cancels the
// search through cancel.
func newLiveModel(instance string, timeout time.Duration, counters *searchCounters, cancel context.CancelFunc) LiveModel {
	now := time.Now()
	return LiveModel{
		Instance:   instance,
		Timeout:    timeout,
		counters:   counters,
		cancel:     cancel,
		start:      now,
		now:        now,
		maxHistory: 8,
	}
}

func liveTick() tea.Cmd {
	return tea.Tick(liveRefresh, func(t time.Time) tea.Msg { return liveTickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return liveTick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.stopped && m.cancel != nil {
				m.cancel()
			}
			m.stopped = true
		}
	case liveTickMsg:
		m.now = time.Time(msg)
		if m.summary != nil {
			return m, nil
		}
		return m, liveTick()
	case liveIncumbentMsg:
		if n := len(m.history); n > 0 && msg.value <= m.history[n-1].value {
			return m, nil
		}
		m.history = append(m.history, msg)
		if len(m.history) > m.maxHistory {
			m.history = m.history[len(m.history)-m.maxHistory:]
		}
	case liveDoneMsg:
		s := observability.SolveSummary(msg)
		m.summary = &s
		m.now = time.Now()
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.maxHistory = max(msg.Height-14, 3)
	}
	return m, nil
}

func (m LiveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("ddsolve " + m.Instance))
	b.WriteString("\n")
	b.WriteString(liveDimStyle.Render("q stop search"))
	b.WriteString("\n\n")

	elapsed := m.now.Sub(m.start).Truncate(100 * time.Millisecond)
	status := StyleNumber.Render("searching")
	switch {
	case m.summary != nil && m.summary.Err != nil:
		status = styleIconError.Render("failed")
	case m.summary != nil && m.summary.Proved:
		status = StyleSuccess.Render("optimal")
	case m.summary != nil:
		status = StyleWarning.Render("stopped")
	case m.stopped:
		status = StyleWarning.Render("stopping")
	}

	clock := elapsed.String()
	if m.Timeout > 0 {
		clock += " / " + m.Timeout.String()
	}
	rows := [][]string{
		{"status", status},
		{"elapsed", clock},
		{"explored", fmt.Sprint(m.counters.explored.Load())},
		{"pruned", fmt.Sprint(m.counters.pruned.Load())},
		{"dominated", fmt.Sprint(m.counters.dominated.Load())},
		{"nodes", fmt.Sprint(m.counters.nodes.Load())},
	}
	if m.summary != nil && m.summary.HasSolution {
		rows = append(rows, []string{"bound", formatBound(m.summary.UpperBound)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return liveLabelStyle.PaddingRight(1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	b.WriteString(liveLabelStyle.Render("incumbents"))
	b.WriteString("\n")
	if len(m.history) == 0 {
		b.WriteString(liveDimStyle.Render("  none yet"))
		b.WriteString("\n")
	}
	for i, h := range m.history {
		line := fmt.Sprintf("  %8s  %s", h.elapsed.Round(time.Millisecond), StyleNumber.Render(fmt.Sprint(h.value)))
		if i > 0 {
			line += liveDimStyle.Render(fmt.Sprintf("  ↑%d", h.value-m.history[i-1].value))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Hooks
// =============================================================================

// liveHooks forwards solver events to a running bubbletea program.
type liveHooks struct {
	observability.NoopSolverHooks
	send func(tea.Msg)
}

func (h liveHooks) OnIncumbent(_ context.Context, value int, elapsed time.Duration) {
	h.send(liveIncumbentMsg{value: value, elapsed: elapsed})
}

func (h liveHooks) OnSolveComplete(_ context.Context, s observability.SolveSummary) {
	h.send(liveDoneMsg(s))
}
