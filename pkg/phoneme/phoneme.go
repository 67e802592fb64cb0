// Package phoneme defines the spoken alphabet: the fixed vowel and consonant
// letters, the syllable well-formedness rule and source positions.
//
// A syllable is exactly one consonant followed by exactly one vowel. Every
// other package builds on these value types; none of them carries state.
package phoneme

import (
	"fmt"
	"strings"
)

// Kind classifies a phoneme.
type Kind int

// Phoneme kinds.
const (
	Invalid Kind = iota
	Vowel
	Consonant
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Vowel:
		return "vowel"
	case Consonant:
		return "consonant"
	default:
		return "invalid"
	}
}

// Phoneme is a single spoken letter.
type Phoneme byte

// Vowels and consonants of the alphabet.
const (
	A Phoneme = 'A'
	E Phoneme = 'E'
	I Phoneme = 'I'
	O Phoneme = 'O'
	U Phoneme = 'U'

	K Phoneme = 'K'
	L Phoneme = 'L'
	M Phoneme = 'M'
	N Phoneme = 'N'
	P Phoneme = 'P'
	R Phoneme = 'R'
	S Phoneme = 'S'
	T Phoneme = 'T'
	V Phoneme = 'V'
	W Phoneme = 'W'
)

var (
	vowels     = [...]Phoneme{A, E, I, O, U}
	consonants = [...]Phoneme{K, L, M, N, P, R, S, T, V, W}
)

// kinds is indexed by byte value for branch-free classification in the decoder.
var kinds [256]Kind

func init() {
	for _, v := range vowels {
		kinds[v] = Vowel
	}
	for _, c := range consonants {
		kinds[c] = Consonant
	}
}

// Vowels returns the five vowels in alphabet order.
func Vowels() []Phoneme {
	out := make([]Phoneme, len(vowels))
	copy(out, vowels[:])
	return out
}

// Consonants returns the ten consonants in alphabet order.
func Consonants() []Phoneme {
	out := make([]Phoneme, len(consonants))
	copy(out, consonants[:])
	return out
}

// KindOf classifies a raw byte. Anything outside the alphabet is Invalid,
// including lowercase letters.
func KindOf(b byte) Kind {
	return kinds[b]
}

// Kind returns the classification of p.
func (p Phoneme) Kind() Kind {
	return kinds[p]
}

// IsVowel reports whether p is one of the five vowels.
func (p Phoneme) IsVowel() bool { return kinds[p] == Vowel }

// IsConsonant reports whether p is one of the ten consonants.
func (p Phoneme) IsConsonant() bool { return kinds[p] == Consonant }

func (p Phoneme) String() string {
	if kinds[p] == Invalid {
		return fmt.Sprintf("%q", byte(p))
	}
	return string(rune(p))
}

// Parse converts a one-letter string into a Phoneme.
func Parse(s string) (Phoneme, error) {
	if len(s) != 1 || KindOf(s[0]) == Invalid {
		return 0, fmt.Errorf("%q is not a phoneme", s)
	}
	return Phoneme(s[0]), nil
}

// StripSpace removes ASCII whitespace so a stream may be written in
// spaced-out syllables. The decoder itself treats whitespace as malformed.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, s)
}
