// Package ambiguity proves or disproves that a set of words can always be
// segmented back out of an undelimited syllable stream.
//
// Check runs two passes over a trie of the words. The first rejects any word
// that is a proper prefix of another. The second takes every ordered pair
// (A, B), enumerates every complete parse of A‖B with backtracking and
// replays the runtime maximal-munch rule; both must reproduce exactly the
// A|B boundary. A set that passes is safe for a non-backtracking decoder.
package ambiguity

import (
	"slices"

	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/trie"
)

// Check validates words, indexed by id. It returns nil or an
// *AmbiguousSegmentationError describing the first offending pair found.
// Pairs are visited in id order so the result is deterministic.
func Check(words [][]phoneme.Syllable) error {
	tr, err := index(words)
	if err != nil {
		return err
	}
	if err := checkPrefixes(tr, words); err != nil {
		return err
	}
	return checkPairs(tr, words)
}

// Index builds the trie for words. Callers that already ran Check can reuse it.
func Index(words [][]phoneme.Syllable) (*trie.Trie, error) {
	return index(words)
}

func index(words [][]phoneme.Syllable) (*trie.Trie, error) {
	tr := trie.New()
	for id, w := range words {
		if len(w) == 0 {
			return nil, &AmbiguousSegmentationError{Kind: EmptyWord, Words: [2]int{id, id}}
		}
		if prev, ok := tr.Insert(w, id); !ok {
			return nil, &AmbiguousSegmentationError{
				Kind:      DuplicateSequence,
				Words:     [2]int{prev, id},
				Sequences: [2][]phoneme.Syllable{words[prev], w},
				Stream:    w,
				Split:     []int{len(w)},
				AltSplit:  []int{len(w)},
				AltWords:  []int{prev},
			}
		}
	}
	return tr, nil
}

func checkPrefixes(tr *trie.Trie, words [][]phoneme.Syllable) error {
	for id, w := range words {
		if !tr.HasExtension(w) {
			continue
		}
		longer := slices.Min(tr.Extensions(w))
		lw := words[longer]
		return &AmbiguousSegmentationError{
			Kind:      PrefixConflict,
			Words:     [2]int{id, longer},
			Sequences: [2][]phoneme.Syllable{w, lw},
			Stream:    lw,
			Split:     []int{len(lw)},
			AltSplit:  []int{len(w), len(lw)},
			AltWords:  []int{id},
		}
	}
	return nil
}

func checkPairs(tr *trie.Trie, words [][]phoneme.Syllable) error {
	for a, wa := range words {
		for b, wb := range words {
			stream := make([]phoneme.Syllable, 0, len(wa)+len(wb))
			stream = append(append(stream, wa...), wb...)
			intended := []int{len(wa), len(stream)}

			fail := func(kind Kind, alt, altWords []int) error {
				return &AmbiguousSegmentationError{
					Kind:      kind,
					Words:     [2]int{a, b},
					Sequences: [2][]phoneme.Syllable{wa, wb},
					Stream:    stream,
					Split:     intended,
					AltSplit:  alt,
					AltWords:  altWords,
				}
			}

			var alt *Parse
			Segmentations(tr, stream, func(p Parse) bool {
				if !slices.Equal(p.Ends, intended) {
					alt = &p
					return false
				}
				return true
			})
			if alt != nil {
				return fail(CrossBoundary, alt.Ends, alt.IDs)
			}

			munch := MaximalMunch(tr, stream)
			if !slices.Equal(munch.Ends, intended) {
				return fail(MunchMismatch, munch.Ends, munch.IDs)
			}
		}
	}
	return nil
}
