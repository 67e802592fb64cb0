package dictionary

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Error kinds.
var (
	ErrEmptySequence   = errors.New("empty syllable sequence")
	ErrUnknownSyllable = errors.New("unknown syllable")
	ErrDuplicateWord   = errors.New("duplicate word")
	ErrSealed          = errors.New("dictionary is sealed")
	ErrNoLexicon       = errors.New("dictionary requires a lexicon")
)

// UnknownSyllableError reports a syllable with no entry in the lexicon.
type UnknownSyllableError struct {
	Dialect  string
	Spelling string
	Syllable phoneme.Syllable
	Index    int // syllable index within the word
}

func (e *UnknownSyllableError) Error() string {
	return fmt.Sprintf("dialect %s: word %s: syllable %d (%s) has no lexicon entry",
		e.Dialect, e.Spelling, e.Index, e.Syllable)
}

func (e *UnknownSyllableError) Unwrap() error { return ErrUnknownSyllable }

// DuplicateWordError reports a syllable sequence registered twice.
type DuplicateWordError struct {
	Dialect  string
	Spelling string
	Existing WordID
}

func (e *DuplicateWordError) Error() string {
	return fmt.Sprintf("dialect %s: word %s already registered as #%d", e.Dialect, e.Spelling, e.Existing)
}

func (e *DuplicateWordError) Unwrap() error { return ErrDuplicateWord }
