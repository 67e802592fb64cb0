package phoneme

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSyllable is returned when a syllable is not a consonant
// followed by a vowel.
var ErrMalformedSyllable = errors.New("malformed syllable")

// Count is the number of distinct well-formed syllables (10 consonants × 5 vowels).
const Count = len(consonants) * len(vowels)

// Syllable is a consonant followed by a vowel.
type Syllable struct {
	Consonant Phoneme
	Vowel     Phoneme
}

// New returns the syllable c+v without validating it.
func New(c, v Phoneme) Syllable {
	return Syllable{Consonant: c, Vowel: v}
}

// Valid reports whether s is a consonant followed by a vowel.
func (s Syllable) Valid() bool {
	return s.Consonant.IsConsonant() && s.Vowel.IsVowel()
}

// Validate returns ErrMalformedSyllable (wrapped with the offending text) if s is not valid.
func (s Syllable) Validate() error {
	if s.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformedSyllable, s)
}

func (s Syllable) String() string {
	return string([]byte{byte(s.Consonant), byte(s.Vowel)})
}

// Index returns a dense index in [0, Count) for a valid syllable, or -1.
func (s Syllable) Index() int {
	if !s.Valid() {
		return -1
	}
	ci := strings.IndexByte(consonantLetters, byte(s.Consonant))
	vi := strings.IndexByte(vowelLetters, byte(s.Vowel))
	return ci*len(vowels) + vi
}

const (
	consonantLetters = "KLMNPRSTVW"
	vowelLetters     = "AEIOU"
)

// ParseSyllable parses a two-letter syllable such as "MA".
func ParseSyllable(s string) (Syllable, error) {
	if len(s) != 2 {
		return Syllable{}, fmt.Errorf("%w: %q must be two letters", ErrMalformedSyllable, s)
	}
	syl := Syllable{Consonant: Phoneme(s[0]), Vowel: Phoneme(s[1])}
	if err := syl.Validate(); err != nil {
		return Syllable{}, err
	}
	return syl, nil
}

// MustParseSyllable is like ParseSyllable but panics on error.
// Intended for tables and tests.
func MustParseSyllable(s string) Syllable {
	syl, err := ParseSyllable(s)
	if err != nil {
		panic(err)
	}
	return syl
}

// Split splits a spelled word such as "KOVA" into its syllables.
func Split(word string) ([]Syllable, error) {
	if len(word)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has an odd number of letters", ErrMalformedSyllable, word)
	}
	out := make([]Syllable, 0, len(word)/2)
	for i := 0; i < len(word); i += 2 {
		syl, err := ParseSyllable(word[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", i, err)
		}
		out = append(out, syl)
	}
	return out, nil
}

// MustSplit is like Split but panics on error.
func MustSplit(word string) []Syllable {
	syls, err := Split(word)
	if err != nil {
		panic(err)
	}
	return syls
}

// Join spells a syllable sequence back into letters.
func Join(syls []Syllable) string {
	var b strings.Builder
	b.Grow(len(syls) * 2)
	for _, s := range syls {
		b.WriteByte(byte(s.Consonant))
		b.WriteByte(byte(s.Vowel))
	}
	return b.String()
}

// Equal reports whether two syllable sequences are identical.
func Equal(a, b []Syllable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// All returns every well-formed syllable, consonant-major.
func All() []Syllable {
	out := make([]Syllable, 0, Count)
	for _, c := range consonants {
		for _, v := range vowels {
			out = append(out, Syllable{Consonant: c, Vowel: v})
		}
	}
	return out
}
