package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/ddsolve/pkg/observability"
)

func TestHooksRecordEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHooks(reg)
	ctx := context.Background()

	h.OnSolveStart(ctx, observability.SolveInfo{Threads: 2})
	h.OnIncumbent(ctx, 10, time.Millisecond)
	h.OnIncumbent(ctx, 14, 2*time.Millisecond)
	h.OnSubproblem(ctx, 0, 3, observability.OutcomeExplored)
	h.OnSubproblem(ctx, 1, 4, observability.OutcomePruned)
	h.OnSubproblem(ctx, 1, 4, observability.OutcomePruned)
	h.OnCompile(ctx, "relaxed", 25, time.Microsecond)
	h.OnCompile(ctx, "relaxed", 5, time.Microsecond)
	h.OnSolveComplete(ctx, observability.SolveSummary{Value: 14, HasSolution: true, Proved: true, UpperBound: 14})

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"incumbent", h.incumbent, 14},
		{"improvements", h.improvement, 2},
		{"upper bound", h.upperBound, 14},
		{"explored", h.subproblems.WithLabelValues("explored"), 1},
		{"pruned", h.subproblems.WithLabelValues("pruned"), 2},
		{"relaxed nodes", h.nodes.WithLabelValues("relaxed"), 30},
		{"proved solves", h.solves.WithLabelValues("proved"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSolveStatus(t *testing.T) {
	h := NewHooks(prometheus.NewRegistry())
	ctx := context.Background()
	h.OnSolveComplete(ctx, observability.SolveSummary{Proved: false})
	h.OnSolveComplete(ctx, observability.SolveSummary{Err: errors.New("boom")})

	if got := testutil.ToFloat64(h.solves.WithLabelValues("interrupted")); got != 1 {
		t.Errorf("interrupted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.solves.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHooks(reg)
	h.OnIncumbent(context.Background(), 7, time.Second)

	path := filepath.Join(t.TempDir(), "ddsolve.prom")
	if err := WriteFile(path, reg); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ddsolve_incumbent_value 7") {
		t.Errorf("textfile misses the incumbent:\n%s", data)
	}
}
