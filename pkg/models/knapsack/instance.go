package knapsack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/ddsolve/pkg/errors"
)

// Item is one object that may be put in the knapsack.
type Item struct {
	Name   string `json:"name,omitempty" toml:"name"`
	Profit int    `json:"profit" toml:"profit"`
	Weight int    `json:"weight" toml:"weight"`
}

// Instance is a 0/1 knapsack instance.
type Instance struct {
	Name     string `json:"name,omitempty" toml:"name"`
	Capacity int    `json:"capacity" toml:"capacity"`
	Items    []Item `json:"items" toml:"items"`
}

// Validate reports the first inconsistency of inst as an INVALID_INSTANCE
// error.
func (inst Instance) Validate() error {
	if inst.Capacity < 0 {
		return errs.New(errs.ErrCodeInvalidInstance, "capacity must not be negative, got %d", inst.Capacity)
	}
	if len(inst.Items) == 0 {
		return errs.New(errs.ErrCodeInvalidInstance, "instance has no items")
	}
	for i, it := range inst.Items {
		if it.Weight < 0 {
			return errs.New(errs.ErrCodeInvalidInstance, "item %d: weight must not be negative, got %d", i, it.Weight)
		}
		if it.Profit < 0 {
			return errs.New(errs.ErrCodeInvalidInstance, "item %d: profit must not be negative, got %d", i, it.Profit)
		}
	}
	return nil
}

// ReadJSON decodes an instance from r.
//
//	{"capacity": 10, "items": [{"profit": 6, "weight": 4}, {"profit": 5, "weight": 3}]}
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (Instance, error) {
	var inst Instance
	if err := json.NewDecoder(r).Decode(&inst); err != nil {
		return Instance{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode JSON instance")
	}
	return inst, inst.Validate()
}

// ReadTOML decodes an instance from r.
//
//	capacity = 10
//
//	[[items]]
//	profit = 6
//	weight = 4
//
// ReadTOML does not close r.
func ReadTOML(r io.Reader) (Instance, error) {
	var inst Instance
	if _, err := toml.NewDecoder(r).Decode(&inst); err != nil {
		return Instance{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode TOML instance")
	}
	return inst, inst.Validate()
}

// Load reads the instance file at path. The format follows the extension:
// ".toml" or ".json".
func Load(path string) (Instance, error) {
	if err := errs.ValidateInstancePath(path); err != nil {
		return Instance{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Instance{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "instance %s not found", path)
		}
		return Instance{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var inst Instance
	if strings.EqualFold(filepath.Ext(path), ".json") {
		inst, err = ReadJSON(f)
	} else {
		inst, err = ReadTOML(f)
	}
	if err != nil {
		return Instance{}, fmt.Errorf("%s: %w", path, err)
	}
	if inst.Name == "" {
		inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return inst, nil
}
