package solver

import (
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/fringe"
	"github.com/matzehuels/ddsolve/pkg/observability"
)

// Variant selects the search driver.
type Variant string

const (
	// VariantParallel is best-first branch-and-bound without dominance
	// pruning.
	VariantParallel Variant = "parallel"
	// VariantBarrier adds barrier checks around subproblem expansion. Its
	// shared store is not tuned for high thread counts.
	VariantBarrier Variant = "barrier"
)

// ValidVariants lists the accepted variant names.
var ValidVariants = map[Variant]bool{
	VariantParallel: true,
	VariantBarrier:  true,
}

// ParseVariant converts "parallel" or "barrier" to a Variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(s))
	if !ValidVariants[v] {
		return "", errs.New(errs.ErrCodeInvalidConfig, "invalid variant: %q (must be one of: parallel, barrier)", s)
	}
	return v, nil
}

// Default configuration values.
const (
	DefaultVariant         = VariantParallel
	DefaultCutset          = dd.LastExactLayer
	DefaultFringe          = fringe.NoDup
	DefaultWidthMultiplier = 1
)

// Config configures a solve. The zero value is valid: every field has a
// default applied by ValidateAndSetDefaults.
type Config struct {
	Variant Variant         `json:"variant"`
	Cutset  dd.CutsetPolicy `json:"cutset"`
	Fringe  fringe.Kind     `json:"fringe"`

	// Threads is the number of workers. Defaults to runtime.NumCPU().
	Threads int `json:"threads"`
	// Timeout bounds the search. Zero means no limit.
	Timeout time.Duration `json:"timeout"`
	// WidthMultiplier scales the width chosen by the model heuristic.
	WidthMultiplier int `json:"width_multiplier"`

	// Logger receives progress records. Defaults to log.Default().
	Logger *log.Logger `json:"-"`
	// Hooks overrides the globally registered observability hooks.
	Hooks       observability.SolverHooks `json:"-"`
	SearchHooks observability.SearchHooks `json:"-"`
}

// ValidateAndSetDefaults checks the configuration and fills in defaults.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if !ValidVariants[c.Variant] {
		return errs.New(errs.ErrCodeInvalidConfig, "invalid variant: %q (must be one of: parallel, barrier)", c.Variant)
	}
	if c.Cutset != dd.LastExactLayer && c.Cutset != dd.Frontier {
		return errs.New(errs.ErrCodeInvalidConfig, "invalid cutset policy: %s", c.Cutset)
	}
	if c.Fringe != fringe.NoDup && c.Fringe != fringe.Simple {
		return errs.New(errs.ErrCodeInvalidConfig, "invalid fringe: %s", c.Fringe)
	}
	if c.Threads < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "threads must not be negative, got %d", c.Threads)
	}
	if c.Threads == 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.Timeout < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "timeout must not be negative, got %s", c.Timeout)
	}
	if c.WidthMultiplier < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "width multiplier must not be negative, got %d", c.WidthMultiplier)
	}
	if c.WidthMultiplier == 0 {
		c.WidthMultiplier = DefaultWidthMultiplier
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Hooks == nil {
		c.Hooks = observability.Solver()
	}
	if c.SearchHooks == nil {
		c.SearchHooks = observability.Search()
	}
	return nil
}
