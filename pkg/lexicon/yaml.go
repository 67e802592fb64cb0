package lexicon

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// gridFile is the YAML form of a Grid.
//
//	dialect: v1
//	consonants: [K, L, M, N, P, R, S, T, V, W]
//	rows:
//	  - vowel: A
//	    cells: [I, "", Add, Negate, Target X, Reciprocal, Multiply, Five, X slider, ""]
type gridFile struct {
	Dialect    string    `yaml:"dialect"`
	Consonants []string  `yaml:"consonants"`
	Rows       []rowFile `yaml:"rows"`
}

type rowFile struct {
	Vowel string   `yaml:"vowel"`
	Cells []string `yaml:"cells"`
}

// ParseYAML reads a tabular lexicon source. The dialect id comes from the
// document; it is required.
func ParseYAML(data []byte) (*Table, error) {
	var f gridFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedGrid, err)
	}
	if f.Dialect == "" {
		return nil, ErrDialectRequired
	}

	var (
		g    Grid
		errs []error
	)
	for _, c := range f.Consonants {
		p, err := phoneme.Parse(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: column header %q: %w", ErrMalformedGrid, c, err))
			continue
		}
		g.Consonants = append(g.Consonants, p)
	}
	for _, r := range f.Rows {
		v, err := phoneme.Parse(r.Vowel)
		if err != nil || !v.IsVowel() {
			errs = append(errs, fmt.Errorf("%w: row header %q is not a vowel", ErrMalformedGrid, r.Vowel))
			continue
		}
		g.Rows = append(g.Rows, GridRow{Vowel: v, Cells: r.Cells})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ParseGrid(f.Dialect, g)
}

// MarshalYAML renders the table as a tabular source in its recorded layout.
func (t *Table) MarshalYAML() (any, error) {
	g := t.Grid()
	f := gridFile{Dialect: t.dialect}
	for _, c := range g.Consonants {
		f.Consonants = append(f.Consonants, c.String())
	}
	for _, r := range g.Rows {
		f.Rows = append(f.Rows, rowFile{Vowel: r.Vowel.String(), Cells: r.Cells})
	}
	return f, nil
}
