package ambiguity

import (
	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/trie"
)

// Parse is one reading of a stream: the word id and end offset of each segment.
type Parse struct {
	IDs  []int
	Ends []int
}

// Segmentations calls fn for every complete parse of stream into words of tr,
// depth first with shorter words tried first. It stops when fn returns false.
func Segmentations(tr *trie.Trie, stream []phoneme.Syllable, fn func(Parse) bool) {
	var (
		ids  []int
		ends []int
	)
	var walk func(pos int) bool
	walk = func(pos int) bool {
		if pos == len(stream) {
			return fn(Parse{IDs: append([]int(nil), ids...), Ends: append([]int(nil), ends...)})
		}
		cont := true
		tr.Prefixes(stream[pos:], func(id, length int) bool {
			ids = append(ids, id)
			ends = append(ends, pos+length)
			cont = walk(pos + length)
			ids = ids[:len(ids)-1]
			ends = ends[:len(ends)-1]
			return cont
		})
		return cont
	}
	walk(0)
}

// MaximalMunch replays the decoder rule: take the longest word at each
// position, never backtrack. A reading that gets stuck ends with the offset
// of the unparsed remainder and no id for it.
func MaximalMunch(tr *trie.Trie, stream []phoneme.Syllable) Parse {
	var p Parse
	pos := 0
	for pos < len(stream) {
		id, length, ok := tr.Longest(stream[pos:])
		if !ok {
			p.Ends = append(p.Ends, len(stream))
			return p
		}
		pos += length
		p.IDs = append(p.IDs, id)
		p.Ends = append(p.Ends, pos)
	}
	return p
}
