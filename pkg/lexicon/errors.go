package lexicon

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Error kinds. Every typed error in this package unwraps to one of these.
var (
	ErrDuplicateSyllable = errors.New("duplicate syllable")
	ErrMalformedSyllable = phoneme.ErrMalformedSyllable
	ErrEmptyPrimitive    = errors.New("empty primitive label")
	ErrDialectRequired   = errors.New("dialect id is required")
	ErrMalformedGrid     = errors.New("malformed grid")
)

// DuplicateSyllableError reports a syllable defined twice in one build.
type DuplicateSyllableError struct {
	Dialect  string
	Syllable phoneme.Syllable
	First    string // primitive from the earlier entry
	Second   string // primitive from the colliding entry
	Index    int    // position of the colliding entry
}

func (e *DuplicateSyllableError) Error() string {
	return fmt.Sprintf("dialect %s: entry %d: duplicate syllable %s (already %q, got %q)",
		e.Dialect, e.Index, e.Syllable, e.First, e.Second)
}

func (e *DuplicateSyllableError) Unwrap() error { return ErrDuplicateSyllable }

// MalformedSyllableError reports an entry whose consonant or vowel is not in the alphabet.
type MalformedSyllableError struct {
	Dialect  string
	Syllable phoneme.Syllable
	Index    int
}

func (e *MalformedSyllableError) Error() string {
	return fmt.Sprintf("dialect %s: entry %d: malformed syllable %s", e.Dialect, e.Index, e.Syllable)
}

func (e *MalformedSyllableError) Unwrap() error { return ErrMalformedSyllable }
