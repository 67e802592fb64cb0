// Package lexicon provides the immutable, versioned mapping from syllables to
// primitive labels.
//
// A Table is keyed by the (consonant, vowel) pair only. Row and column order
// of the tabular source is kept as a Layout for rendering and never takes
// part in lookups or comparisons.
package lexicon

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Entry associates a syllable with the primitive it produces.
type Entry struct {
	Syllable  phoneme.Syllable
	Primitive string
}

// Layout is the presentational row and column order of a tabular source.
type Layout struct {
	Vowels     []phoneme.Phoneme
	Consonants []phoneme.Phoneme
}

// DefaultLayout orders rows and columns alphabetically as the alphabet does.
func DefaultLayout() Layout {
	return Layout{Vowels: phoneme.Vowels(), Consonants: phoneme.Consonants()}
}

// Table is a validated lexicon for one dialect. It is immutable and safe for
// concurrent use.
type Table struct {
	dialect   string
	cells     [phoneme.Count]string
	populated [phoneme.Count]bool
	size      int
	layout    Layout
}

// Build validates entries and returns the lexicon for dialectID.
// All entry faults are reported together.
func Build(dialectID string, entries []Entry) (*Table, error) {
	return build(dialectID, entries, DefaultLayout())
}

func build(dialectID string, entries []Entry, layout Layout) (*Table, error) {
	dialectID = strings.TrimSpace(dialectID)
	if dialectID == "" {
		return nil, ErrDialectRequired
	}

	t := &Table{dialect: dialectID, layout: layout}
	var errs []error
	for i, e := range entries {
		idx := e.Syllable.Index()
		if idx < 0 {
			errs = append(errs, &MalformedSyllableError{Dialect: dialectID, Syllable: e.Syllable, Index: i})
			continue
		}
		if strings.TrimSpace(e.Primitive) == "" {
			errs = append(errs, fmt.Errorf("dialect %s: entry %d (%s): %w", dialectID, i, e.Syllable, ErrEmptyPrimitive))
			continue
		}
		if t.populated[idx] {
			errs = append(errs, &DuplicateSyllableError{
				Dialect:  dialectID,
				Syllable: e.Syllable,
				First:    t.cells[idx],
				Second:   e.Primitive,
				Index:    i,
			})
			continue
		}
		t.cells[idx] = e.Primitive
		t.populated[idx] = true
		t.size++
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// Dialect returns the dialect id this table belongs to.
func (t *Table) Dialect() string { return t.dialect }

// Len returns the number of populated syllables.
func (t *Table) Len() int { return t.size }

// Layout returns the presentational layout recorded from the source.
func (t *Table) Layout() Layout {
	return Layout{
		Vowels:     append([]phoneme.Phoneme(nil), t.layout.Vowels...),
		Consonants: append([]phoneme.Phoneme(nil), t.layout.Consonants...),
	}
}

// Lookup returns the primitive for s. Gaps and malformed syllables report false.
func (t *Table) Lookup(s phoneme.Syllable) (string, bool) {
	idx := s.Index()
	if idx < 0 || !t.populated[idx] {
		return "", false
	}
	return t.cells[idx], true
}

// Has reports whether s is populated.
func (t *Table) Has(s phoneme.Syllable) bool {
	_, ok := t.Lookup(s)
	return ok
}

// Entries returns all populated entries ordered consonant-major.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.size)
	for _, s := range phoneme.All() {
		if p, ok := t.Lookup(s); ok {
			out = append(out, Entry{Syllable: s, Primitive: p})
		}
	}
	return out
}

// Gaps returns the well-formed syllables that have no primitive.
func (t *Table) Gaps() []phoneme.Syllable {
	var out []phoneme.Syllable
	for _, s := range phoneme.All() {
		if !t.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Primitives returns the distinct primitive labels, sorted.
func (t *Table) Primitives() []string {
	seen := make(map[string]struct{}, t.size)
	for _, e := range t.Entries() {
		seen[e.Primitive] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Equivalent reports whether t and other map the same syllables to the same
// primitives. Dialect id and layout are ignored.
func (t *Table) Equivalent(other *Table) bool {
	if other == nil {
		return false
	}
	return t.cells == other.cells && t.populated == other.populated
}
