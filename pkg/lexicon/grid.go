package lexicon

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Grid is the tabular source form of a lexicon: one column per consonant,
// one row per vowel, an empty cell is a gap.
type Grid struct {
	Consonants []phoneme.Phoneme
	Rows       []GridRow
}

// GridRow is one vowel row of a Grid.
type GridRow struct {
	Vowel phoneme.Phoneme
	Cells []string
}

// ParseGrid flattens a tabular source into a Table. Rows and columns may
// appear in any order and the order is kept only as the table's Layout.
func ParseGrid(dialectID string, g Grid) (*Table, error) {
	var errs []error
	seenCol := make(map[phoneme.Phoneme]bool, len(g.Consonants))
	for i, c := range g.Consonants {
		if !c.IsConsonant() {
			errs = append(errs, fmt.Errorf("%w: column %d header %s is not a consonant", ErrMalformedGrid, i, c))
		}
		if seenCol[c] {
			errs = append(errs, fmt.Errorf("%w: column header %s repeated", ErrMalformedGrid, c))
		}
		seenCol[c] = true
	}

	layout := Layout{Consonants: append([]phoneme.Phoneme(nil), g.Consonants...)}
	var entries []Entry
	for ri, row := range g.Rows {
		if len(row.Cells) > len(g.Consonants) {
			errs = append(errs, fmt.Errorf("%w: row %d (%s) has %d cells for %d columns",
				ErrMalformedGrid, ri, row.Vowel, len(row.Cells), len(g.Consonants)))
			continue
		}
		layout.Vowels = append(layout.Vowels, row.Vowel)
		for ci, cell := range row.Cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			entries = append(entries, Entry{
				Syllable:  phoneme.New(g.Consonants[ci], row.Vowel),
				Primitive: cell,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return build(dialectID, entries, layout)
}

// Grid renders the table in its recorded layout.
func (t *Table) Grid() Grid {
	return t.GridIn(t.layout)
}

// GridIn renders the table with an arbitrary row and column order. Missing
// vowels or consonants in l are filled in alphabet order.
func (t *Table) GridIn(l Layout) Grid {
	l = complete(l)
	g := Grid{Consonants: l.Consonants}
	for _, v := range l.Vowels {
		row := GridRow{Vowel: v, Cells: make([]string, len(l.Consonants))}
		for i, c := range l.Consonants {
			row.Cells[i], _ = t.Lookup(phoneme.New(c, v))
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func complete(l Layout) Layout {
	out := Layout{
		Vowels:     append([]phoneme.Phoneme(nil), l.Vowels...),
		Consonants: append([]phoneme.Phoneme(nil), l.Consonants...),
	}
	for _, v := range phoneme.Vowels() {
		if !slices.Contains(out.Vowels, v) {
			out.Vowels = append(out.Vowels, v)
		}
	}
	for _, c := range phoneme.Consonants() {
		if !slices.Contains(out.Consonants, c) {
			out.Consonants = append(out.Consonants, c)
		}
	}
	return out
}
