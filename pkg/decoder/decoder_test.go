package decoder

import (
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/incant/pkg/dictionary"
	"github.com/leapstack-labs/incant/pkg/lexicon"
	"github.com/leapstack-labs/incant/pkg/phoneme"
)

func addMultiply(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	table, err := lexicon.NewBuilder("v1").Set("MA", "Add").Set("SA", "Multiply").Build()
	require.NoError(t, err)
	b := dictionary.NewBuilder(table)
	_, err = b.RegisterSpelled("MA", "Add")
	require.NoError(t, err)
	_, err = b.RegisterSpelled("SA", "Multiply")
	require.NoError(t, err)
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func vectors(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	table, err := lexicon.NewBuilder("v1").
		Set("KO", "Unit").Set("VA", "X").Set("VI", "Y").
		Set("MA", "Add").Set("SA", "Multiply").Set("TI", "One").
		Build()
	require.NoError(t, err)
	b := dictionary.NewBuilder(table)
	for _, w := range []struct{ spelling, meaning string }{
		{"KOVA", "Unit X"},
		{"KOVI", "Unit Y"},
		{"MA", "Add"},
		{"SA", "Multiply"},
		{"TITI", "Two"},
		{"TIVATI", "Three"},
	} {
		_, err := b.RegisterSpelled(w.spelling, w.meaning)
		require.NoError(t, err)
	}
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func meanings(units []DecodedUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Word.Meaning
	}
	return out
}

func TestDecodeAddMultiply(t *testing.T) {
	d := addMultiply(t)

	units, err := DecodeString(d, "MASA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Add", "Multiply"}, meanings(units))
	assert.Equal(t, phoneme.Span{Start: 0, End: 2}, units[0].Span)
	assert.Equal(t, phoneme.Span{Start: 2, End: 4}, units[1].Span)
	assert.Equal(t, 1, units[1].Index)

	units, err = DecodeString(d, "MAS")
	assert.Equal(t, []string{"Add"}, meanings(units))
	var trunc *TruncatedWordError
	require.True(t, errors.As(err, &trunc))
	assert.Equal(t, 2, trunc.Position)
	assert.Equal(t, "S", trunc.Partial)
}

func TestDecodeEmptyStream(t *testing.T) {
	units, err := DecodeString(addMultiply(t), "")
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDecodeFaults(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIs    error
		wantPos   int
		wantUnits int
	}{
		{"gap syllable", "MANA", ErrUnknownWord, 2, 1},
		{"unregistered first syllable", "WA", ErrUnknownWord, 0, 0},
		{"character outside alphabet", "MAXA", ErrMalformedInput, 2, 1},
		{"lowercase", "ma", ErrMalformedInput, 0, 0},
		{"whitespace", "MA SA", ErrMalformedInput, 2, 1},
		{"vowel where consonant expected", "MAA", ErrMalformedInput, 2, 1},
		{"consonant where vowel expected", "MSA", ErrMalformedInput, 1, 0},
		{"lone trailing consonant", "MASAM", ErrTruncatedWord, 4, 2},
		{"lone consonant only", "M", ErrTruncatedWord, 0, 0},
	}

	d := addMultiply(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := DecodeString(d, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
			assert.Len(t, units, tt.wantUnits)

			switch e := err.(type) {
			case *UnknownWordError:
				assert.Equal(t, tt.wantPos, e.Position)
			case *MalformedInputError:
				assert.Equal(t, tt.wantPos, e.Position)
			case *TruncatedWordError:
				assert.Equal(t, tt.wantPos, e.Position)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestDecodeGapReportsSyllable(t *testing.T) {
	_, err := DecodeString(addMultiply(t), "MANA")
	var unk *UnknownWordError
	require.True(t, errors.As(err, &unk))
	assert.Equal(t, "NA", unk.Syllable.String())
	assert.Equal(t, 2, unk.WordStart)
	assert.Contains(t, unk.Error(), "no word continues with NA")
}

func TestDecodeMultiSyllable(t *testing.T) {
	d := vectors(t)

	units, err := DecodeString(d, "KOVAMAKOVITIVATITITI")
	require.NoError(t, err)
	assert.Equal(t, []string{"Unit X", "Add", "Unit Y", "Three", "Two"}, meanings(units))
	assert.Equal(t, phoneme.Span{Start: 6, End: 10}, units[2].Span)
	assert.Equal(t, phoneme.Span{Start: 10, End: 16}, units[3].Span)
}

func TestDecodeMultiSyllableFaults(t *testing.T) {
	d := vectors(t)

	t.Run("dead end inside word", func(t *testing.T) {
		_, err := DecodeString(d, "MAKOKO")
		var unk *UnknownWordError
		require.True(t, errors.As(err, &unk))
		assert.Equal(t, 4, unk.Position)
		assert.Equal(t, 2, unk.WordStart)
		assert.Equal(t, "KOKO", unk.Fragment)
		assert.Contains(t, unk.Suggestions, "KOVA")
	})

	t.Run("ends between syllables of a word", func(t *testing.T) {
		_, err := DecodeString(d, "MAKO")
		var trunc *TruncatedWordError
		require.True(t, errors.As(err, &trunc))
		assert.Equal(t, 2, trunc.Position)
		assert.Equal(t, "KO", trunc.Partial)
	})

	t.Run("ends inside a syllable of a word", func(t *testing.T) {
		_, err := DecodeString(d, "TIVAT")
		var trunc *TruncatedWordError
		require.True(t, errors.As(err, &trunc))
		assert.Equal(t, 0, trunc.Position)
		assert.Equal(t, "TIVAT", trunc.Partial)
	})

	t.Run("malformed inside a word", func(t *testing.T) {
		units, err := DecodeString(d, "SAKOVE")
		assert.Len(t, units, 1)
		var unk *UnknownWordError
		require.True(t, errors.As(err, &unk), "VE is well formed but not in the word set")
		assert.Equal(t, 4, unk.Position)

		_, err = DecodeString(d, "SAKOV1")
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestNextIsSticky(t *testing.T) {
	dec := NewString(addMultiply(t), "MAXX")
	_, err := dec.Next()
	require.NoError(t, err)

	_, err1 := dec.Next()
	_, err2 := dec.Next()
	require.Error(t, err1)
	assert.Same(t, err1, err2)

	done := NewString(addMultiply(t), "MA")
	_, err = done.Next()
	require.NoError(t, err)
	_, err = done.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = done.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, done.Position())
}

func TestDecodeIsLazy(t *testing.T) {
	r := strings.NewReader("MASAMASA")
	var got []string
	for u, err := range Decode(addMultiply(t), r) {
		require.NoError(t, err)
		got = append(got, u.Word.Meaning)
		break
	}
	assert.Equal(t, []string{"Add"}, got)
	assert.Equal(t, 6, r.Len(), "only the first syllable is consumed")
}

func TestDecodeNonByteReader(t *testing.T) {
	var got []string
	for u, err := range Decode(addMultiply(t), iotest.OneByteReader(strings.NewReader("SAMA"))) {
		require.NoError(t, err)
		got = append(got, u.Word.Meaning)
	}
	assert.Equal(t, []string{"Multiply", "Add"}, got)
}

func TestDecodeDeterministic(t *testing.T) {
	d := vectors(t)
	for _, input := range []string{"KOVAMASA", "KOVAMAKOKO", "TIVA", "SAX"} {
		u1, err1 := DecodeString(d, input)
		u2, err2 := DecodeString(d, input)
		assert.Equal(t, u1, u2, input)
		if err1 == nil {
			assert.NoError(t, err2)
			continue
		}
		assert.Equal(t, err1.Error(), err2.Error(), input)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	d := vectors(t)
	words := d.Words()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		n := rng.Intn(12)
		var (
			stream strings.Builder
			want   []dictionary.WordID
		)
		for j := 0; j < n; j++ {
			w := words[rng.Intn(len(words))]
			stream.WriteString(w.Spelling())
			want = append(want, w.ID)
		}

		units, err := DecodeString(d, stream.String())
		require.NoError(t, err, stream.String())
		got := make([]dictionary.WordID, 0, len(units))
		for _, u := range units {
			got = append(got, u.Word.ID)
		}
		if len(want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, want, got, stream.String())
	}
}

func TestDecodeConcurrentStreams(t *testing.T) {
	d := vectors(t)
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			units, err := DecodeString(d, strings.Repeat("KOVAMA", i+1))
			if err == nil && len(units) != 2*(i+1) {
				err = errors.New("wrong unit count")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
