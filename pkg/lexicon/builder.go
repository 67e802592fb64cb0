package lexicon

import "github.com/leapstack-labs/incant/pkg/phoneme"

// Builder accumulates entries for a Table. Errors are deferred to Build.
//
//	table, err := lexicon.NewBuilder("v1").
//		Set("MA", "Add").
//		Set("SA", "Multiply").
//		Build()
type Builder struct {
	dialect string
	entries []Entry
	layout  Layout
}

// NewBuilder starts a table for dialectID.
func NewBuilder(dialectID string) *Builder {
	return &Builder{dialect: dialectID, layout: DefaultLayout()}
}

// Set adds a spelled syllable such as "MA". Spellings that are not two
// letters are kept as-is so Build can report them as malformed.
func (b *Builder) Set(syllable, primitive string) *Builder {
	var s phoneme.Syllable
	if len(syllable) == 2 {
		s = phoneme.New(phoneme.Phoneme(syllable[0]), phoneme.Phoneme(syllable[1]))
	}
	return b.Add(s, primitive)
}

// Add adds an entry.
func (b *Builder) Add(s phoneme.Syllable, primitive string) *Builder {
	b.entries = append(b.entries, Entry{Syllable: s, Primitive: primitive})
	return b
}

// WithLayout records the presentational layout.
func (b *Builder) WithLayout(l Layout) *Builder {
	b.layout = l
	return b
}

// Build validates and returns the table.
func (b *Builder) Build() (*Table, error) {
	return build(b.dialect, b.entries, b.layout)
}
