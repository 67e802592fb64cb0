package trie

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

func seq(s string) []phoneme.Syllable { return phoneme.MustSplit(s) }

func TestInsertGet(t *testing.T) {
	tr := New()
	_, ok := tr.Insert(seq("MA"), 0)
	require.True(t, ok)
	_, ok = tr.Insert(seq("KOVA"), 1)
	require.True(t, ok)

	existing, ok := tr.Insert(seq("KOVA"), 7)
	assert.False(t, ok)
	assert.Equal(t, 1, existing)
	assert.Equal(t, 2, tr.Len())

	id, ok := tr.Get(seq("KOVA"))
	require.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = tr.Get(seq("KO"))
	assert.False(t, ok, "interior node is not a word")
}

func TestExtensions(t *testing.T) {
	tr := New()
	tr.Insert(seq("ME"), 0)
	tr.Insert(seq("MESI"), 1)
	tr.Insert(seq("MESIKA"), 2)
	tr.Insert(seq("SA"), 3)

	assert.True(t, tr.HasExtension(seq("ME")))
	assert.False(t, tr.HasExtension(seq("SA")))
	assert.False(t, tr.HasExtension(seq("TA")))

	ext := tr.Extensions(seq("ME"))
	sort.Ints(ext)
	assert.Equal(t, []int{1, 2}, ext)
}

func TestPrefixesAndLongest(t *testing.T) {
	tr := New()
	tr.Insert(seq("RE"), 0)
	tr.Insert(seq("RESO"), 1)

	var lengths []int
	tr.Prefixes(seq("RESOMA"), func(_, l int) bool {
		lengths = append(lengths, l)
		return true
	})
	assert.Equal(t, []int{1, 2}, lengths)

	id, l, ok := tr.Longest(seq("RESOMA"))
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, 2, l)

	_, _, ok = tr.Longest(seq("MA"))
	assert.False(t, ok)
}

func TestCursor(t *testing.T) {
	tr := New()
	tr.Insert(seq("KOVA"), 4)

	c := tr.Cursor()
	require.True(t, c.Step(phoneme.MustParseSyllable("KO")))
	_, ok := c.Terminal()
	assert.False(t, ok)
	assert.True(t, c.CanExtend())

	assert.False(t, c.Step(phoneme.MustParseSyllable("KO")))
	assert.Equal(t, 1, c.Depth(), "failed step leaves cursor in place")

	require.True(t, c.Step(phoneme.MustParseSyllable("VA")))
	id, ok := c.Terminal()
	require.True(t, ok)
	assert.Equal(t, 4, id)
	assert.False(t, c.CanExtend())
}
