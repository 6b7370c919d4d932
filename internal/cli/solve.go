package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ddsolve/internal/metrics"
	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/fringe"
	"github.com/matzehuels/ddsolve/pkg/models/knapsack"
	"github.com/matzehuels/ddsolve/pkg/observability"
	"github.com/matzehuels/ddsolve/pkg/solver"
)

// solveOpts holds the command-line flags of the solve command. Flags that
// were set override the config file.
type solveOpts struct {
	config          string
	variant         string
	cutset          string
	fringe          string
	threads         int
	timeout         string
	widthMultiplier int
	output          string
	metricsOut      string
	live            bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve [instance]",
		Short: "Solve a knapsack instance",
		Long: `Solve a knapsack instance with decision diagram branch-and-bound.

The instance is a TOML or JSON file with a capacity and a list of items. The
search runs until optimality is proved, the timeout expires or it is
interrupted; in the last two cases the best solution found so far is reported
together with the best known upper bound.

Solver settings are read from the [solver] table of --config (default:
~/.config/ddsolve/config.toml when present). Flags override the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return c.runSolve(cmd.Context(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "TOML config file with a [solver] table")
	cmd.Flags().StringVar(&opts.variant, "variant", string(solver.DefaultVariant), "search variant: parallel, barrier")
	cmd.Flags().StringVar(&opts.cutset, "cutset", solver.DefaultCutset.String(), "cutset policy: lel, frontier")
	cmd.Flags().StringVar(&opts.fringe, "fringe", solver.DefaultFringe.String(), "fringe: nodup, simple")
	cmd.Flags().IntVarP(&opts.threads, "threads", "t", 0, "number of workers (default: number of CPUs)")
	cmd.Flags().StringVar(&opts.timeout, "timeout", "", "stop the search after this duration, e.g. 30s (default: none)")
	cmd.Flags().IntVarP(&opts.widthMultiplier, "width-multiplier", "w", solver.DefaultWidthMultiplier, "scale the diagram width")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&opts.live, "live", false, "show a live dashboard instead of progress logs")

	return cmd
}

// resolve merges the config file and the flags that were set.
func (o solveOpts) resolve(cmd *cobra.Command) (solver.Config, error) {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("variant") {
		if cfg.Variant, err = solver.ParseVariant(o.variant); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("cutset") {
		if cfg.Cutset, err = dd.ParseCutsetPolicy(o.cutset); err != nil {
			return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid --cutset")
		}
	}
	if flags.Changed("fringe") {
		if cfg.Fringe, err = fringe.ParseKind(o.fringe); err != nil {
			return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid --fringe")
		}
	}
	if flags.Changed("threads") {
		cfg.Threads = o.threads
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = parseTimeout(o.timeout); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("width-multiplier") {
		cfg.WidthMultiplier = o.widthMultiplier
	}
	return cfg, nil
}

// runSolve loads the instance, runs the solver and reports the result.
func (c *CLI) runSolve(ctx context.Context, path string, cfg solver.Config, opts solveOpts) error {
	if err := errs.ValidateInstancePath(path); err != nil {
		return err
	}
	inst, err := knapsack.Load(path)
	if err != nil {
		return err
	}
	k, err := knapsack.New(inst)
	if err != nil {
		return err
	}

	logger, runID := runLogger(c.Logger)
	ctx = withLogger(ctx, logger)
	cfg.Logger = logger

	counters := &searchCounters{}
	solverHooks := observability.MultiSolverHooks{observability.Solver()}
	searchHooks := observability.MultiSearchHooks{observability.Search(), counters}

	var reg *prometheus.Registry
	if opts.metricsOut != "" {
		reg = prometheus.NewRegistry()
		m := metrics.NewHooks(reg)
		solverHooks = append(solverHooks, m)
		searchHooks = append(searchHooks, m)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var live *tea.Program
	liveDone := make(chan error, 1)
	if opts.live {
		// Progress lines would tear the dashboard apart.
		logger.SetOutput(io.Discard)
		live = tea.NewProgram(newLiveModel(inst.Name, cfg.Timeout, counters, cancel), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
		solverHooks = append(solverHooks, liveHooks{send: live.Send})
		go func() {
			_, err := live.Run()
			liveDone <- err
		}()
	} else {
		rep := newReporter(loggerFromContext(ctx), cfg.Timeout, counters)
		solverHooks = append(solverHooks, rep)
		go rep.run(ctx)
	}
	cfg.Hooks = solverHooks
	cfg.SearchHooks = searchHooks

	s, err := solver.New(solver.Model[knapsack.State]{
		Problem:    k,
		Relaxation: k,
		Ranking:    k,
		Width:      k.Width(),
	}, cfg)
	if err != nil {
		return err
	}
	logger.Debug("loaded instance", "path", path, "items", len(inst.Items), "capacity", inst.Capacity)

	res, solveErr := s.Maximize(ctx)
	if live != nil {
		if err := <-liveDone; err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			logger.Debug("live view failed", "err", err)
		}
	}

	report := solveReport{
		RunID:    runID,
		Instance: inst.Name,
		Config:   s.Config(),
		Result:   res,
	}
	if res.HasSolution {
		sol, err := k.Decode(res.Solution)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "decode solution")
		}
		report.Packing = &sol
	}
	c.printReport(report)

	if opts.output != "" {
		if err := writeJSON(opts.output, report); err != nil {
			return err
		}
		printFile(c.Out, opts.output)
	}
	if reg != nil {
		if err := metrics.WriteFile(opts.metricsOut, reg); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "write metrics %s", opts.metricsOut)
		}
		printFile(c.Out, opts.metricsOut)
	}

	if solveErr != nil {
		return solveErr
	}
	return context.Cause(ctx)
}

// solveReport is the JSON document written by --output.
type solveReport struct {
	RunID    string             `json:"run_id"`
	Instance string             `json:"instance"`
	Config   solver.Config      `json:"config"`
	Result   solver.Result      `json:"result"`
	Packing  *knapsack.Solution `json:"packing,omitempty"`
}

func (c *CLI) printReport(r solveReport) {
	w := c.Out
	res := r.Result

	switch {
	case res.Proved && res.HasSolution:
		printSuccess(w, "Optimal solution for %s", r.Instance)
	case res.Proved:
		printWarning(w, "%s has no feasible solution", r.Instance)
	case res.HasSolution:
		printWarning(w, "Best solution found for %s (not proved optimal)", r.Instance)
	default:
		printError(w, "No solution found for %s", r.Instance)
	}

	if res.HasSolution {
		printKeyValue(w, "Value", StyleNumber.Render(fmt.Sprint(res.Value)))
	}
	printKeyValue(w, "Upper bound", formatBound(res.UpperBound))
	if !res.Proved {
		printKeyValue(w, "Gap", formatGap(res.Gap()))
	}
	if p := r.Packing; p != nil {
		items := make([]string, len(p.Packed))
		for i, idx := range p.Packed {
			items[i] = fmt.Sprint(idx)
		}
		printKeyValue(w, "Packed", strings.Join(items, " "))
		printKeyValue(w, "Weight", fmt.Sprint(p.Weight))
	}
	printKeyValue(w, "Elapsed", res.Elapsed.Round(time.Millisecond).String())
	printStats(w,
		statCount{res.Stats.Explored, "explored"},
		statCount{res.Stats.Pruned, "pruned"},
		statCount{res.Stats.Dominated, "dominated"},
		statCount{res.Stats.NodesCreated, "nodes"},
	)
	printInfo(w, "run %s", StyleDim.Render(r.RunID))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
