package program

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCost is the casting cost of an instruction that does not set one.
const DefaultCost = 1.0

// ErrInvalidEmission is returned for a malformed emission table.
var ErrInvalidEmission = errors.New("invalid emission table")

// Spec is one instruction template in an emission table.
type Spec struct {
	Op       string         `yaml:"op" json:"op"`
	Category Category       `yaml:"category" json:"category"`
	Cost     float64        `yaml:"cost,omitempty" json:"cost,omitempty"`
	Args     map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// EmissionTable maps a word meaning to the instructions it emits, in order.
type EmissionTable map[string][]Spec

// ParseTable decodes a YAML emission table and validates it.
//
//	Add:
//	  - op: add
//	    category: operator
//	Five:
//	  - {op: push, category: number, cost: 5, args: {value: 5}}
func ParseTable(data []byte) (EmissionTable, error) {
	var t EmissionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmission, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks every entry and fills default costs in place.
func (t EmissionTable) Validate() error {
	var errs []error
	for _, meaning := range t.Meanings() {
		specs := t[meaning]
		if len(specs) == 0 {
			errs = append(errs, fmt.Errorf("%w: %q emits nothing", ErrInvalidEmission, meaning))
			continue
		}
		for i := range specs {
			s := &specs[i]
			switch {
			case strings.TrimSpace(s.Op) == "":
				errs = append(errs, fmt.Errorf("%w: %q instruction %d has no op", ErrInvalidEmission, meaning, i))
			case !s.Category.Valid():
				errs = append(errs, fmt.Errorf("%w: %q instruction %d: unknown category %q", ErrInvalidEmission, meaning, i, s.Category))
			case s.Cost < 0:
				errs = append(errs, fmt.Errorf("%w: %q instruction %d: negative cost", ErrInvalidEmission, meaning, i))
			case s.Cost == 0:
				s.Cost = DefaultCost
			}
		}
	}
	return errors.Join(errs...)
}

// Meanings returns the table's meanings, sorted.
func (t EmissionTable) Meanings() []string {
	return slices.Sorted(maps.Keys(t))
}

// Clone returns a deep copy of the table's structure. Arg values are shared.
func (t EmissionTable) Clone() EmissionTable {
	out := make(EmissionTable, len(t))
	for m, specs := range t {
		cp := make([]Spec, len(specs))
		for i, s := range specs {
			s.Args = maps.Clone(s.Args)
			cp[i] = s
		}
		out[m] = cp
	}
	return out
}
