package decoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Fault kinds. Every runtime fault unwraps to one of these.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrUnknownWord    = errors.New("unknown word")
	ErrTruncatedWord  = errors.New("truncated word")
)

// MalformedInputError reports a character outside the alphabet or a break in
// consonant/vowel alternation.
type MalformedInputError struct {
	Position int
	Char     byte
	Expected phoneme.Kind
}

func (e *MalformedInputError) Error() string {
	got := "invalid character"
	if k := phoneme.KindOf(e.Char); k != phoneme.Invalid {
		got = k.String()
	}
	return fmt.Sprintf("%s at %d: expected %s, got %s %q", ErrMalformedInput, e.Position, e.Expected, got, e.Char)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// UnknownWordError reports that no registered word matches at WordStart.
// Syllable is the first syllable that could not continue any word.
type UnknownWordError struct {
	// Position is the offset of Syllable, where decoding got stuck.
	Position int
	// WordStart is the cursor: the offset where the unmatched word began.
	WordStart   int
	Syllable    phoneme.Syllable
	Fragment    string
	Suggestions []string
}

func (e *UnknownWordError) Error() string {
	msg := fmt.Sprintf("%s at %d: no word continues with %s", ErrUnknownWord, e.Position, e.Syllable)
	if e.Fragment != e.Syllable.String() {
		msg += fmt.Sprintf(" (after %q)", strings.TrimSuffix(e.Fragment, e.Syllable.String()))
	}
	if len(e.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

func (e *UnknownWordError) Unwrap() error { return ErrUnknownWord }

// TruncatedWordError reports that the stream ended inside the word starting at Position.
type TruncatedWordError struct {
	Position int
	Partial  string
}

func (e *TruncatedWordError) Error() string {
	return fmt.Sprintf("%s at %d: stream ended after %q", ErrTruncatedWord, e.Position, e.Partial)
}

func (e *TruncatedWordError) Unwrap() error { return ErrTruncatedWord }
