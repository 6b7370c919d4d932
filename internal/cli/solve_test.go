package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/ddsolve/pkg/errors"
)

const toyInstance = `
name = "toy"
capacity = 10

[[items]]
profit = 6
weight = 4

[[items]]
profit = 5
weight = 3

[[items]]
profit = 8
weight = 5

[[items]]
profit = 3
weight = 2

[[items]]
profit = 7
weight = 6
`

// execute runs the root command with args and returns stdout and the log.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, logs bytes.Buffer
	c := New(&logs, log.DebugLevel)
	c.Out = &out

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "toy.toml", toyInstance)
	result := filepath.Join(dir, "result.json")
	prom := filepath.Join(dir, "ddsolve.prom")

	for _, variant := range []string{"parallel", "barrier"} {
		t.Run(variant, func(t *testing.T) {
			out, logs, err := execute(t, "solve", inst,
				"--variant", variant, "--cutset", "frontier", "--threads", "2", "--width-multiplier", "1",
				"-o", result, "--metrics-out", prom)
			if err != nil {
				t.Fatalf("solve: %v\n%s", err, logs)
			}
			for _, want := range []string{"Optimal solution for toy", "16", "1 2 3"} {
				if !strings.Contains(out, want) {
					t.Errorf("output misses %q:\n%s", want, out)
				}
			}
			if !strings.Contains(logs, "Search complete") {
				t.Errorf("log misses the completion line:\n%s", logs)
			}

			data, err := os.ReadFile(result)
			if err != nil {
				t.Fatal(err)
			}
			var report struct {
				RunID  string `json:"run_id"`
				Config struct {
					Variant string `json:"variant"`
					Cutset  string `json:"cutset"`
				} `json:"config"`
				Result struct {
					Value  int  `json:"value"`
					Proved bool `json:"proved"`
				} `json:"result"`
				Packing struct {
					Packed []int `json:"packed"`
				} `json:"packing"`
			}
			if err := json.Unmarshal(data, &report); err != nil {
				t.Fatalf("result is not JSON: %v\n%s", err, data)
			}
			if report.RunID == "" || report.Config.Variant != variant || report.Config.Cutset != "frontier" {
				t.Errorf("unexpected report header: %+v", report)
			}
			if report.Result.Value != 16 || !report.Result.Proved || len(report.Packing.Packed) != 3 {
				t.Errorf("unexpected report result: %+v", report)
			}

			metrics, err := os.ReadFile(prom)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(metrics), `ddsolve_solves_total{status="proved"} 1`) {
				t.Errorf("metrics miss the proved solve:\n%s", metrics)
			}
		})
	}
}

func TestSolveCommandUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "toy.json", `{"name": "json-toy", "capacity": 10, "items": [
		{"profit": 6, "weight": 4}, {"profit": 5, "weight": 3}, {"profit": 8, "weight": 5},
		{"profit": 3, "weight": 2}, {"profit": 7, "weight": 6}]}`)
	cfg := writeFile(t, dir, "ddsolve.toml", "[solver]\nvariant = \"barrier\"\nthreads = 1\n")

	out, logs, err := execute(t, "solve", inst, "--config", cfg)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !strings.Contains(out, "Optimal solution for json-toy") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(logs, "with 1 threads (barrier") {
		t.Errorf("config file settings not applied:\n%s", logs)
	}
}

func TestSolveCommandErrors(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "toy.toml", toyInstance)
	bad := writeFile(t, dir, "bad.toml", "capacity = -1\n")

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"missing instance", []string{"solve", filepath.Join(dir, "none.toml")}, errs.ErrCodeFileNotFound},
		{"wrong extension", []string{"solve", filepath.Join(dir, "toy.yaml")}, errs.ErrCodeInvalidFormat},
		{"invalid instance", []string{"solve", bad}, errs.ErrCodeInvalidInstance},
		{"bad variant", []string{"solve", inst, "--variant", "dfs"}, errs.ErrCodeInvalidConfig},
		{"bad cutset", []string{"solve", inst, "--cutset", "middle"}, errs.ErrCodeInvalidConfig},
		{"bad timeout", []string{"solve", inst, "--timeout", "soon"}, errs.ErrCodeInvalidConfig},
		{"negative threads", []string{"solve", inst, "--threads", "-3"}, errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestDiagramCommand(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "toy.toml", toyInstance)

	out, logs, err := execute(t, "diagram", inst, "--mode", "relaxed", "--width", "2", "--cutset", "frontier")
	if err != nil {
		t.Fatalf("diagram: %v", err)
	}
	if !strings.HasPrefix(out, "digraph DD {") {
		t.Errorf("output is not DOT:\n%s", out)
	}
	if !strings.Contains(logs, "Compiled relaxed diagram") {
		t.Errorf("unexpected log:\n%s", logs)
	}

	dot := filepath.Join(dir, "toy.dot")
	if _, _, err := execute(t, "diagram", inst, "--mode", "exact", "-o", dot); err != nil {
		t.Fatalf("diagram -o: %v", err)
	}
	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "digraph DD {") {
		t.Errorf("file is not DOT:\n%s", data)
	}
}

func TestDiagramCommandErrors(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "toy.toml", toyInstance)

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"bad mode", []string{"diagram", inst, "--mode", "fuzzy"}, errs.ErrCodeInvalidConfig},
		{"bad cutset", []string{"diagram", inst, "--cutset", "middle"}, errs.ErrCodeInvalidConfig},
		{"bad width", []string{"diagram", inst, "--width", "-1"}, errs.ErrCodeInvalidConfig},
		{"bad output", []string{"diagram", inst, "-o", filepath.Join(dir, "toy.png")}, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}
