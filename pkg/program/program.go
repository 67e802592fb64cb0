// Package program translates decoded units into the instruction list handed
// to the spell engine.
//
// Translation is a pure table lookup. An Emitter is only constructed for a
// dictionary whose every meaning has an entry, so a missing meaning during
// Emit is a programming error and panics.
package program

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/dictionary"
	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// ErrMissingMeaning is returned when a dictionary meaning has no emission entry.
var ErrMissingMeaning = errors.New("meaning has no emission entry")

// MissingMeaningError lists every dictionary meaning the table does not cover.
type MissingMeaningError struct {
	Dialect  string
	Meanings []string
}

func (e *MissingMeaningError) Error() string {
	return fmt.Sprintf("dialect %s: %s: %s", e.Dialect, ErrMissingMeaning, strings.Join(e.Meanings, ", "))
}

func (e *MissingMeaningError) Unwrap() error { return ErrMissingMeaning }

// Instruction is one record for the spell engine.
type Instruction struct {
	Op       string            `json:"op"`
	Category Category          `json:"category"`
	Cost     float64           `json:"cost"`
	Args     map[string]any    `json:"args,omitempty"`
	Meaning  string            `json:"meaning"`
	Word     dictionary.WordID `json:"word"`
	Span     phoneme.Span      `json:"span"`
}

// Emitter maps decoded units to instructions for one dialect.
type Emitter struct {
	dialect string
	table   EmissionTable
}

// NewEmitter validates that table covers every meaning in dict.
func NewEmitter(dict *dictionary.Dictionary, table EmissionTable) (*Emitter, error) {
	t := table.Clone()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("dialect %s: %w", dict.Dialect(), err)
	}
	var missing []string
	for _, m := range dict.Meanings() {
		if _, ok := t[m]; !ok {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &MissingMeaningError{Dialect: dict.Dialect(), Meanings: missing}
	}
	return &Emitter{dialect: dict.Dialect(), table: t}, nil
}

// Dialect returns the dialect the emitter was built for.
func (e *Emitter) Dialect() string { return e.dialect }

// Lookup returns the instruction templates for meaning.
func (e *Emitter) Lookup(meaning string) ([]Spec, bool) {
	specs, ok := e.table[meaning]
	return specs, ok
}

// Table returns a copy of the emission table.
func (e *Emitter) Table() EmissionTable { return e.table.Clone() }

// Emit translates units into a program.
func (e *Emitter) Emit(units []decoder.DecodedUnit) *Program {
	p := &Program{dialect: e.dialect}
	for _, u := range units {
		e.append(p, u)
	}
	return p
}

// EmitSeq drains seq into a program. On a decode fault it returns the
// program emitted so far together with the fault.
func (e *Emitter) EmitSeq(seq iter.Seq2[decoder.DecodedUnit, error]) (*Program, error) {
	p := &Program{dialect: e.dialect}
	for u, err := range seq {
		if err != nil {
			return p, err
		}
		e.append(p, u)
	}
	return p, nil
}

func (e *Emitter) append(p *Program, u decoder.DecodedUnit) {
	specs, ok := e.table[u.Word.Meaning]
	if !ok {
		panic(fmt.Sprintf("program: dialect %s has no emission for %q", e.dialect, u.Word.Meaning))
	}
	p.starts = append(p.starts, len(p.instrs))
	p.units = append(p.units, u)
	for _, s := range specs {
		p.instrs = append(p.instrs, Instruction{
			Op:       s.Op,
			Category: s.Category,
			Cost:     s.Cost,
			Args:     maps.Clone(s.Args),
			Meaning:  u.Word.Meaning,
			Word:     u.Word.ID,
			Span:     u.Span,
		})
	}
}
