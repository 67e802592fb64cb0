package ambiguity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

func words(spelled ...string) [][]phoneme.Syllable {
	out := make([][]phoneme.Syllable, len(spelled))
	for i, s := range spelled {
		out[i] = phoneme.MustSplit(s)
	}
	return out
}

// classicVocabulary is the multi-syllable word set of the original game.
var classicVocabulary = []string{
	"TI", "TU", "TA", "TE",
	"SEVA", "SEVI", "ME",
	"KOVA", "KOVI",
	"LE", "PO", "LUSA", "MESI",
	"KE",
	"MA", "SA", "NA", "RESO", "SOLO",
	"SILA", "VILA", "PA", "PI",
	"NO", "MO", "RE", "ROVO",
}

func requireAmbiguity(t *testing.T, err error) *AmbiguousSegmentationError {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrAmbiguousSegmentation))
	var amb *AmbiguousSegmentationError
	require.True(t, errors.As(err, &amb))
	return amb
}

func TestCheckSingleSyllableWordsAlwaysValidate(t *testing.T) {
	var all []string
	for _, s := range phoneme.All() {
		all = append(all, s.String())
	}
	assert.NoError(t, Check(words(all...)))
	assert.NoError(t, Check(words("MA", "SA")))
	assert.NoError(t, Check(nil))
}

func TestCheckPrefixFreeMultiSyllable(t *testing.T) {
	assert.NoError(t, Check(words("KOVA", "KOVI", "MA", "SA", "TITI", "TITU")))
}

func TestCheckPrefixConflict(t *testing.T) {
	amb := requireAmbiguity(t, Check(words("SA", "MA", "MASA")))

	assert.Equal(t, PrefixConflict, amb.Kind)
	assert.Equal(t, [2]int{1, 2}, amb.Words)
	assert.Equal(t, []int{1, 2}, amb.AltSplit)
	assert.Equal(t, "MA|SA", FormatSplit(amb.Stream, amb.AltSplit))
	assert.Contains(t, amb.Error(), "MA is a proper prefix of MASA")
}

func TestCheckRejectsClassicVocabulary(t *testing.T) {
	amb := requireAmbiguity(t, Check(words(classicVocabulary...)))
	assert.Equal(t, PrefixConflict, amb.Kind)
	assert.Equal(t, "ME", phoneme.Join(amb.Sequences[0]))
	assert.Equal(t, "MESI", phoneme.Join(amb.Sequences[1]))
}

func TestCheckDuplicateAndEmpty(t *testing.T) {
	amb := requireAmbiguity(t, Check(words("MA", "SA", "MA")))
	assert.Equal(t, DuplicateSequence, amb.Kind)
	assert.Equal(t, [2]int{0, 2}, amb.Words)

	amb = requireAmbiguity(t, Check([][]phoneme.Syllable{phoneme.MustSplit("MA"), {}}))
	assert.Equal(t, EmptyWord, amb.Kind)
}

func TestCheckPairsCrossBoundary(t *testing.T) {
	ws := words("MA", "SAKO", "MASA", "KO")
	tr, err := Index(ws)
	require.NoError(t, err)

	amb := requireAmbiguity(t, checkPairs(tr, ws))
	assert.Equal(t, CrossBoundary, amb.Kind)
	assert.Equal(t, [2]int{0, 1}, amb.Words)
	assert.Equal(t, []int{1, 3}, amb.Split)
	assert.Equal(t, []int{2, 3}, amb.AltSplit)
	assert.Equal(t, []int{2, 3}, amb.AltWords)
	assert.Contains(t, amb.Error(), "MA|SAKO but also as MASA|KO")
}

func TestCheckPairsMunchMismatch(t *testing.T) {
	ws := words("RE", "RESO", "SOMA")
	tr, err := Index(ws)
	require.NoError(t, err)

	amb := requireAmbiguity(t, checkPairs(tr, ws))
	assert.Equal(t, MunchMismatch, amb.Kind)
	assert.Equal(t, [2]int{0, 2}, amb.Words)
	assert.Equal(t, []int{2, 3}, amb.AltSplit, "munch takes RESO then gets stuck on MA")
}

func TestSegmentations(t *testing.T) {
	ws := words("MA", "SA", "MASA")
	tr, err := Index(ws)
	require.NoError(t, err)

	var got [][]int
	Segmentations(tr, phoneme.MustSplit("MASA"), func(p Parse) bool {
		got = append(got, p.IDs)
		return true
	})
	assert.Equal(t, [][]int{{0, 1}, {2}}, got)
}

func TestFormatSplit(t *testing.T) {
	stream := phoneme.MustSplit("KOVAMA")
	assert.Equal(t, "KOVA|MA", FormatSplit(stream, []int{2, 3}))
	assert.Equal(t, "KO|VAMA…", FormatSplit(stream, []int{1}))
	assert.Equal(t, "KOVAMA", FormatSplit(stream, []int{3}))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "prefix", PrefixConflict.String())
	assert.Equal(t, "cross-boundary", CrossBoundary.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
