// Package decoder turns an undelimited phoneme stream into decoded words.
//
// The decoder is a single forward scan with maximal munch: at each word
// boundary it follows the dictionary trie as far as the input allows and
// emits the longest word seen. Dictionaries are validated ambiguity-free
// before they get here, so no backtracking is ever needed.
//
// Decoders hold only a private cursor and may run concurrently against the
// same dictionary. A fault ends the stream; it is never skipped.
package decoder

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/leapstack-labs/incant/pkg/dictionary"
	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// DecodedUnit is one matched word and where it came from.
type DecodedUnit struct {
	Word  dictionary.Word
	Span  phoneme.Span // phoneme offsets in the stream
	Index int          // ordinal of the unit in the stream
}

// errLoneConsonant marks a consonant cut off by the end of the stream.
var errLoneConsonant = errors.New("lone consonant")

// item is one syllable read from the stream, or the fault that stopped reading.
type item struct {
	syl phoneme.Syllable
	at  int
	err error
}

// Decoder reads one stream. It is not safe for concurrent use.
type Decoder struct {
	dict    *dictionary.Dictionary
	r       io.ByteReader
	pos     int    // offset of the next byte to read
	cursor  int    // offset where the next word starts
	pending []item // read ahead of the last match, replayed first
	units   int
	err     error // sticky terminal state (io.EOF or a fault)
}

// New returns a decoder over r.
func New(dict *dictionary.Dictionary, r io.Reader) *Decoder {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{dict: dict, r: br}
}

// NewString returns a decoder over s.
func NewString(dict *dictionary.Dictionary, s string) *Decoder {
	return New(dict, strings.NewReader(s))
}

// Position returns the offset where the next word starts.
func (d *Decoder) Position() int { return d.cursor }

// Next returns the next decoded unit. It returns io.EOF when the stream ends
// exactly on a word boundary, or a fault. Both are sticky.
func (d *Decoder) Next() (DecodedUnit, error) {
	if d.err != nil {
		return DecodedUnit{}, d.err
	}

	start := d.cursor
	cur := d.dict.Cursor()
	var (
		read      []item
		matchLen  = -1
		matchID   dictionary.WordID
		stop      item
		hasStop   bool
		exhausted bool
	)

	for {
		it := d.read()
		if errors.Is(it.err, io.EOF) {
			exhausted = true
			break
		}
		if it.err != nil || !cur.Step(it.syl) {
			stop, hasStop = it, true
			break
		}
		read = append(read, it)
		if id, ok := cur.Terminal(); ok {
			matchLen, matchID = len(read), dictionary.WordID(id)
		}
		if !cur.CanExtend() {
			break
		}
	}

	if matchLen < 0 {
		d.err = d.fault(start, read, stop, hasStop, exhausted)
		return DecodedUnit{}, d.err
	}

	back := append([]item(nil), read[matchLen:]...)
	if hasStop {
		back = append(back, stop)
	}
	d.pending = append(back, d.pending...)

	word, _ := d.dict.Word(matchID)
	end := read[matchLen-1].at + 2
	unit := DecodedUnit{Word: word, Span: phoneme.Span{Start: start, End: end}, Index: d.units}
	d.cursor = end
	d.units++
	return unit, nil
}

func (d *Decoder) fault(start int, read []item, stop item, hasStop, exhausted bool) error {
	partial := spell(read)
	switch {
	case exhausted && len(read) == 0:
		return io.EOF
	case exhausted, hasStop && errors.Is(stop.err, errLoneConsonant):
		if hasStop {
			partial += stop.syl.Consonant.String()
		}
		return &TruncatedWordError{Position: start, Partial: partial}
	case hasStop && stop.err != nil:
		return stop.err
	default:
		fragment := partial + stop.syl.String()
		return &UnknownWordError{
			Position:    stop.at,
			WordStart:   start,
			Syllable:    stop.syl,
			Fragment:    fragment,
			Suggestions: d.dict.Suggest(fragment, 3),
		}
	}
}

// read returns the next syllable, replaying pending items first.
func (d *Decoder) read() item {
	if len(d.pending) > 0 {
		it := d.pending[0]
		d.pending = d.pending[1:]
		return it
	}

	at := d.pos
	c, err := d.next()
	if err != nil {
		return item{at: at, err: err}
	}
	if phoneme.KindOf(c) != phoneme.Consonant {
		return item{at: at, err: &MalformedInputError{Position: at, Char: c, Expected: phoneme.Consonant}}
	}

	v, err := d.next()
	if errors.Is(err, io.EOF) {
		return item{syl: phoneme.Syllable{Consonant: phoneme.Phoneme(c)}, at: at, err: errLoneConsonant}
	}
	if err != nil {
		return item{at: at + 1, err: err}
	}
	if phoneme.KindOf(v) != phoneme.Vowel {
		return item{at: at + 1, err: &MalformedInputError{Position: at + 1, Char: v, Expected: phoneme.Vowel}}
	}
	return item{syl: phoneme.New(phoneme.Phoneme(c), phoneme.Phoneme(v)), at: at}
}

func (d *Decoder) next() (byte, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	d.pos++
	return c, nil
}

func spell(items []item) string {
	syls := make([]phoneme.Syllable, len(items))
	for i, it := range items {
		syls[i] = it.syl
	}
	return phoneme.Join(syls)
}

// All returns the remaining units as a lazy sequence. A fault is yielded once
// as the final element; a clean end yields nothing more. Stopping iteration
// early is always safe.
func (d *Decoder) All() iter.Seq2[DecodedUnit, error] {
	return func(yield func(DecodedUnit, error) bool) {
		for {
			u, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(DecodedUnit{}, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// Decode returns the lazy sequence of units decoded from r against dict.
func Decode(dict *dictionary.Dictionary, r io.Reader) iter.Seq2[DecodedUnit, error] {
	return New(dict, r).All()
}

// DecodeAll decodes all of r. On a fault it returns the units decoded
// before the fault together with the fault.
func DecodeAll(dict *dictionary.Dictionary, r io.Reader) ([]DecodedUnit, error) {
	var units []DecodedUnit
	for u, err := range New(dict, r).All() {
		if err != nil {
			return units, err
		}
		units = append(units, u)
	}
	return units, nil
}

// DecodeString is DecodeAll over a string.
func DecodeString(dict *dictionary.Dictionary, s string) ([]DecodedUnit, error) {
	return DecodeAll(dict, strings.NewReader(s))
}
