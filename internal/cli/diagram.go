package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/models/knapsack"
)

// diagramOpts holds the command-line flags of the diagram command.
type diagramOpts struct {
	mode     string
	width    int
	cutset   string
	output   string
	detailed bool
}

// diagramCommand creates the diagram command for exporting the root diagram.
func (c *CLI) diagramCommand() *cobra.Command {
	opts := diagramOpts{
		mode:   dd.Relaxed.String(),
		cutset: dd.LastExactLayer.String(),
	}

	cmd := &cobra.Command{
		Use:   "diagram [instance]",
		Short: "Compile the root decision diagram of an instance",
		Long: `Compile the root decision diagram of an instance and export it.

The diagram is written in Graphviz DOT format, or rendered to SVG when the
output file ends in .svg. Without --output the DOT source is printed.

Merged nodes are dashed, cutset nodes have a double border and the best
path is drawn in bold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiagram(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", opts.mode, "compilation: exact, relaxed, restricted")
	cmd.Flags().IntVar(&opts.width, "width", 0, "maximum layer width (default: number of items)")
	cmd.Flags().StringVar(&opts.cutset, "cutset", opts.cutset, "cutset policy: lel, frontier")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.dot, .gv or .svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show bounds and thresholds in node labels")

	return cmd
}

// runDiagram compiles the root diagram and writes it out.
func (c *CLI) runDiagram(ctx context.Context, path string, opts diagramOpts) error {
	mode, err := dd.ParseMode(opts.mode)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid --mode")
	}
	policy, err := dd.ParseCutsetPolicy(opts.cutset)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid --cutset")
	}
	if opts.width < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "width must not be negative, got %d", opts.width)
	}
	if opts.output != "" {
		if err := errs.ValidateDiagramPath(opts.output); err != nil {
			return err
		}
	}
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

	width := opts.width
	if width == 0 {
		width = max(len(inst.Items), 1)
	}

	prog := newProgress(c.Logger)
	d := dd.New[knapsack.State](policy)
	err = d.Compile(ctx, &dd.Input[knapsack.State]{
		Mode:       mode,
		MaxWidth:   width,
		Problem:    k,
		Relaxation: k,
		Ranking:    k,
		Residual: dd.SubProblem[knapsack.State]{
			State: k.InitialState(),
			Value: k.InitialValue(),
			UB:    math.MaxInt,
		},
		BestLB: math.MinInt,
	})
	if err != nil {
		return fmt.Errorf("compile %s diagram: %w", mode, err)
	}
	st := d.Stats()
	prog.done(fmt.Sprintf("Compiled %s diagram: %d nodes, width %d", mode, st.NodesCreated, d.Width()))

	dot := d.ToDOT(dd.DOTOptions{
		Detailed: opts.detailed,
		StateLabel: func(s any) string {
			return fmt.Sprintf("c%d", s.(knapsack.State).Capacity)
		},
	})

	if best, ok := d.BestValue(); ok {
		c.Logger.Info("Best path", "value", best, "exact", d.IsExact())
	} else {
		c.Logger.Info("No feasible path")
	}
	cutset := 0
	d.DrainCutset(func(dd.SubProblem[knapsack.State]) { cutset++ })
	if cutset > 0 {
		c.Logger.Info("Cutset", "policy", policy, "nodes", cutset)
	}

	if opts.output == "" {
		_, err := fmt.Fprint(c.Out, dot)
		return err
	}

	data := []byte(dot)
	if strings.EqualFold(filepath.Ext(opts.output), ".svg") {
		spin := newSpinner(ctx, os.Stderr, "Rendering SVG...")
		spin.Start()
		data, err = dd.RenderSVG(ctx, dot)
		spin.Stop()
		if err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "render svg")
		}
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", opts.output)
	}
	printFile(c.Out, opts.output)
	return nil
}
