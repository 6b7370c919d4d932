package cli

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ddsolve/pkg/dd"
	errs "github.com/matzehuels/ddsolve/pkg/errors"
	"github.com/matzehuels/ddsolve/pkg/fringe"
	"github.com/matzehuels/ddsolve/pkg/solver"
)

// fileConfig is the layout of a ddsolve config file:
//
//	[solver]
//	variant = "barrier"
//	cutset = "frontier"
//	fringe = "nodup"
//	threads = 8
//	timeout = "30s"
//	width_multiplier = 2
type fileConfig struct {
	Solver solverSection `toml:"solver"`
}

type solverSection struct {
	Variant         string          `toml:"variant"`
	Cutset          dd.CutsetPolicy `toml:"cutset"`
	Fringe          fringe.Kind     `toml:"fringe"`
	Threads         int             `toml:"threads"`
	Timeout         string          `toml:"timeout"`
	WidthMultiplier int             `toml:"width_multiplier"`
}

// loadConfig reads the [solver] table of the TOML file at path. An empty
// path falls back to the file in the config directory, if any; without a
// file the zero Config is returned.
func loadConfig(path string) (solver.Config, error) {
	var cfg solver.Config
	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file not found: %s", path)
	}
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}

	s := fc.Solver
	if md.IsDefined("solver", "variant") {
		if cfg.Variant, err = solver.ParseVariant(s.Variant); err != nil {
			return cfg, err
		}
	}
	cfg.Cutset = s.Cutset
	cfg.Fringe = s.Fringe
	cfg.Threads = s.Threads
	cfg.WidthMultiplier = s.WidthMultiplier
	if cfg.Timeout, err = parseTimeout(s.Timeout); err != nil {
		return cfg, err
	}
	check := cfg
	return cfg, check.ValidateAndSetDefaults()
}

// parseTimeout accepts a Go duration ("90s", "2m") or a number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid timeout %q", s)
	}
	return d, nil
}
