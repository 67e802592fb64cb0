// Package dictionary maps registered words (non-empty syllable sequences) to
// their meanings for one dialect.
//
// A Builder is the only mutable form. Build runs the ambiguity validator and,
// on success, returns an immutable Dictionary that decoders may share freely.
package dictionary

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/incant/pkg/ambiguity"
	"github.com/leapstack-labs/incant/pkg/lexicon"
	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/trie"
)

// WordID identifies a word within one dictionary. IDs are assigned densely in
// registration order.
type WordID int

// Word is a registered syllable sequence and its meaning.
// Slices are shared with the dictionary and must not be modified.
type Word struct {
	ID         WordID
	Syllables  []phoneme.Syllable
	Primitives []string
	Meaning    string
}

// Spelling returns the word's letters, e.g. "KOVA".
func (w Word) Spelling() string {
	return phoneme.Join(w.Syllables)
}

func (w Word) String() string {
	return fmt.Sprintf("%s(%s)", w.Spelling(), w.Meaning)
}

// Builder collects words during the construction phase.
type Builder struct {
	table  *lexicon.Table
	words  []Word
	index  *trie.Trie
	sealed bool
}

// NewBuilder starts a dictionary over table.
func NewBuilder(table *lexicon.Table) *Builder {
	return &Builder{table: table, index: trie.New()}
}

// Register adds a word. An empty meaning defaults to the word's primitives
// joined by spaces.
func (b *Builder) Register(syllables []phoneme.Syllable, meaning string) (WordID, error) {
	if b.sealed {
		return 0, ErrSealed
	}
	if b.table == nil {
		return 0, ErrNoLexicon
	}
	if len(syllables) == 0 {
		return 0, fmt.Errorf("dialect %s: %w", b.table.Dialect(), ErrEmptySequence)
	}

	spelling := phoneme.Join(syllables)
	prims := make([]string, len(syllables))
	for i, s := range syllables {
		p, ok := b.table.Lookup(s)
		if !ok {
			return 0, &UnknownSyllableError{Dialect: b.table.Dialect(), Spelling: spelling, Syllable: s, Index: i}
		}
		prims[i] = p
	}

	id := WordID(len(b.words))
	if existing, ok := b.index.Insert(syllables, int(id)); !ok {
		return 0, &DuplicateWordError{Dialect: b.table.Dialect(), Spelling: spelling, Existing: WordID(existing)}
	}

	if strings.TrimSpace(meaning) == "" {
		meaning = strings.Join(prims, " ")
	}
	b.words = append(b.words, Word{
		ID:         id,
		Syllables:  append([]phoneme.Syllable(nil), syllables...),
		Primitives: prims,
		Meaning:    meaning,
	})
	return id, nil
}

// RegisterSpelled is Register for a spelled word such as "KOVA".
func (b *Builder) RegisterSpelled(spelling, meaning string) (WordID, error) {
	syls, err := phoneme.Split(spelling)
	if err != nil {
		return 0, err
	}
	return b.Register(syls, meaning)
}

// Len returns the number of registered words.
func (b *Builder) Len() int { return len(b.words) }

// Build validates the words and seals the builder. A dictionary that fails
// validation is rejected wholesale; the builder cannot be reused either way.
func (b *Builder) Build() (*Dictionary, error) {
	if b.sealed {
		return nil, ErrSealed
	}
	if b.table == nil {
		return nil, ErrNoLexicon
	}
	b.sealed = true

	seqs := make([][]phoneme.Syllable, len(b.words))
	for i, w := range b.words {
		seqs[i] = w.Syllables
	}
	if err := ambiguity.Check(seqs); err != nil {
		return nil, fmt.Errorf("dialect %s: %w", b.table.Dialect(), err)
	}

	return &Dictionary{table: b.table, words: b.words, index: b.index}, nil
}

// Dictionary is a validated, immutable word set. Safe for concurrent use.
type Dictionary struct {
	table *lexicon.Table
	words []Word
	index *trie.Trie
}

// SingleSyllable returns a dictionary with one word per populated syllable of
// table, each meaning its primitive label.
func SingleSyllable(table *lexicon.Table) (*Dictionary, error) {
	b := NewBuilder(table)
	for _, e := range table.Entries() {
		if _, err := b.Register([]phoneme.Syllable{e.Syllable}, e.Primitive); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Dialect returns the dialect id of the underlying lexicon.
func (d *Dictionary) Dialect() string { return d.table.Dialect() }

// Lexicon returns the lexicon the words were drawn from.
func (d *Dictionary) Lexicon() *lexicon.Table { return d.table }

// Len returns the number of words.
func (d *Dictionary) Len() int { return len(d.words) }

// Word returns the word with the given id.
func (d *Dictionary) Word(id WordID) (Word, bool) {
	if id < 0 || int(id) >= len(d.words) {
		return Word{}, false
	}
	return d.words[id], true
}

// Words returns all words in id order.
func (d *Dictionary) Words() []Word {
	return append([]Word(nil), d.words...)
}

// Lookup returns the word spelled exactly by syllables.
func (d *Dictionary) Lookup(syllables []phoneme.Syllable) (Word, bool) {
	id, ok := d.index.Get(syllables)
	if !ok {
		return Word{}, false
	}
	return d.words[id], true
}

// Cursor returns a trie cursor for incremental matching.
func (d *Dictionary) Cursor() trie.Cursor {
	return d.index.Cursor()
}

// Meanings returns every distinct meaning in first-registration order.
func (d *Dictionary) Meanings() []string {
	seen := make(map[string]struct{}, len(d.words))
	var out []string
	for _, w := range d.words {
		if _, ok := seen[w.Meaning]; ok {
			continue
		}
		seen[w.Meaning] = struct{}{}
		out = append(out, w.Meaning)
	}
	return out
}
