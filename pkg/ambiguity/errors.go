package ambiguity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// ErrAmbiguousSegmentation is the kind sentinel for every validation failure.
var ErrAmbiguousSegmentation = errors.New("ambiguous segmentation")

// Kind says which check found the ambiguity.
type Kind int

// Ambiguity kinds.
const (
	// PrefixConflict means one word is a proper prefix of another.
	PrefixConflict Kind = iota
	// CrossBoundary means the concatenation of two words has a second parse.
	CrossBoundary
	// MunchMismatch means maximal munch does not reproduce the word boundary.
	MunchMismatch
	// DuplicateSequence means two words share a syllable sequence.
	DuplicateSequence
	// EmptyWord means a word has no syllables.
	EmptyWord
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case PrefixConflict:
		return "prefix"
	case CrossBoundary:
		return "cross-boundary"
	case MunchMismatch:
		return "maximal-munch"
	case DuplicateSequence:
		return "duplicate"
	case EmptyWord:
		return "empty"
	default:
		return "unknown"
	}
}

// AmbiguousSegmentationError reports the offending pair of words and the
// alternate split discovered for their concatenation.
type AmbiguousSegmentationError struct {
	Kind Kind

	// Words holds the ids of the offending pair (A, B).
	Words [2]int
	// Sequences holds the syllables of A and B.
	Sequences [2][]phoneme.Syllable

	// Stream is the syllable stream that admits two readings.
	Stream []phoneme.Syllable
	// Split is the intended reading as cumulative syllable offsets.
	Split []int
	// AltSplit is the competing reading. For a prefix conflict the last
	// segment is the dangling remainder of the longer word.
	AltSplit []int
	// AltWords holds the word ids of the competing reading, one per complete
	// segment of AltSplit.
	AltWords []int
}

func (e *AmbiguousSegmentationError) Error() string {
	a, b := phoneme.Join(e.Sequences[0]), phoneme.Join(e.Sequences[1])
	switch e.Kind {
	case PrefixConflict:
		return fmt.Sprintf("%s: %s is a proper prefix of %s (%s)",
			ErrAmbiguousSegmentation, a, b, FormatSplit(e.Stream, e.AltSplit))
	case DuplicateSequence:
		return fmt.Sprintf("%s: words %d and %d are both spelled %s",
			ErrAmbiguousSegmentation, e.Words[0], e.Words[1], a)
	case EmptyWord:
		return fmt.Sprintf("%s: word %d has no syllables", ErrAmbiguousSegmentation, e.Words[0])
	default:
		return fmt.Sprintf("%s (%s): %s+%s reads as %s but also as %s",
			ErrAmbiguousSegmentation, e.Kind, a, b,
			FormatSplit(e.Stream, e.Split), FormatSplit(e.Stream, e.AltSplit))
	}
}

func (e *AmbiguousSegmentationError) Unwrap() error { return ErrAmbiguousSegmentation }

// FormatSplit spells stream with a '|' at each boundary in ends.
// The final boundary at len(stream) is implied.
func FormatSplit(stream []phoneme.Syllable, ends []int) string {
	var b strings.Builder
	start := 0
	for _, end := range ends {
		if end <= start || end > len(stream) {
			continue
		}
		if start > 0 {
			b.WriteByte('|')
		}
		b.WriteString(phoneme.Join(stream[start:end]))
		start = end
	}
	if start < len(stream) {
		if start > 0 {
			b.WriteByte('|')
		}
		b.WriteString(phoneme.Join(stream[start:]))
		b.WriteString("…")
	}
	return b.String()
}
