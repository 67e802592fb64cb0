// Package dialect assembles a lexicon, its word dictionary and its emission
// table into one named, validated unit, and keeps the process-wide registry
// of loaded dialects.
//
// A Dialect is immutable once built. Decoding always names its dialect
// explicitly; there is no default.
package dialect

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/dictionary"
	"github.com/leapstack-labs/incant/pkg/lexicon"
	"github.com/leapstack-labs/incant/pkg/program"
)

// Dialect is a validated lexicon, dictionary and emitter for one dialect id.
type Dialect struct {
	ID         string
	Lexicon    *lexicon.Table
	Dictionary *dictionary.Dictionary
	Emitter    *program.Emitter
}

// WordSource is one multi-syllable word in a dialect source.
type WordSource struct {
	Spelling string `yaml:"spelling" json:"spelling"`
	Meaning  string `yaml:"meaning,omitempty" json:"meaning,omitempty"`
}

// New builds a dialect from its parts. With no words, every populated
// syllable becomes a one-syllable word named after its primitive.
func New(table *lexicon.Table, words []WordSource, emission program.EmissionTable) (*Dialect, error) {
	if table == nil {
		return nil, dictionary.ErrNoLexicon
	}
	if table.Dialect() == "" {
		return nil, ErrDialectRequired
	}

	var (
		dict *dictionary.Dictionary
		err  error
	)
	if len(words) == 0 {
		dict, err = dictionary.SingleSyllable(table)
	} else {
		dict, err = buildDictionary(table, words)
	}
	if err != nil {
		return nil, err
	}

	em, err := program.NewEmitter(dict, emission)
	if err != nil {
		return nil, err
	}
	return &Dialect{
		ID:         strings.ToLower(table.Dialect()),
		Lexicon:    table,
		Dictionary: dict,
		Emitter:    em,
	}, nil
}

func buildDictionary(table *lexicon.Table, words []WordSource) (*dictionary.Dictionary, error) {
	b := dictionary.NewBuilder(table)
	for _, w := range words {
		if _, err := b.RegisterSpelled(w.Spelling, w.Meaning); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Decode returns the lazy unit sequence for r.
func (d *Dialect) Decode(r io.Reader) iter.Seq2[decoder.DecodedUnit, error] {
	return decoder.Decode(d.Dictionary, r)
}

// Compile decodes stream and emits its program. On a fault the program
// holds the instructions emitted before it.
func (d *Dialect) Compile(stream string) (*program.Program, error) {
	p, err := d.Emitter.EmitSeq(d.Decode(strings.NewReader(stream)))
	if err != nil {
		return p, fmt.Errorf("dialect %s: %w", d.ID, err)
	}
	return p, nil
}

func (d *Dialect) String() string {
	return fmt.Sprintf("%s (%d syllables, %d words)", d.ID, d.Lexicon.Len(), d.Dictionary.Len())
}
