// Package trie implements a prefix tree over syllable sequences.
//
// Each terminal node stores the integer id of the word ending there. A Trie is
// written during a single-threaded construction phase and is read-only after,
// so lookups need no locking.
package trie

import "github.com/leapstack-labs/incant/pkg/phoneme"

type node struct {
	children map[phoneme.Syllable]*node
	terminal bool
	id       int
}

// Trie maps syllable sequences to word ids.
type Trie struct {
	root  node
	words int
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{}
}

// Len returns the number of stored sequences.
func (t *Trie) Len() int { return t.words }

// Insert stores seq under id. If seq is already present the existing id is
// returned with ok=false and the trie is unchanged.
func (t *Trie) Insert(seq []phoneme.Syllable, id int) (existing int, ok bool) {
	n := &t.root
	for _, s := range seq {
		if n.children == nil {
			n.children = make(map[phoneme.Syllable]*node)
		}
		next, found := n.children[s]
		if !found {
			next = &node{}
			n.children[s] = next
		}
		n = next
	}
	if n.terminal {
		return n.id, false
	}
	n.terminal = true
	n.id = id
	t.words++
	return id, true
}

// Get returns the id stored for exactly seq.
func (t *Trie) Get(seq []phoneme.Syllable) (int, bool) {
	n := t.find(seq)
	if n == nil || !n.terminal {
		return 0, false
	}
	return n.id, true
}

// HasExtension reports whether some stored sequence is strictly longer than
// seq and starts with it.
func (t *Trie) HasExtension(seq []phoneme.Syllable) bool {
	n := t.find(seq)
	return n != nil && len(n.children) > 0
}

// Extensions returns the ids of every stored sequence that strictly extends seq.
func (t *Trie) Extensions(seq []phoneme.Syllable) []int {
	n := t.find(seq)
	if n == nil {
		return nil
	}
	var out []int
	var walk func(*node)
	walk = func(m *node) {
		for _, c := range m.children {
			if c.terminal {
				out = append(out, c.id)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Prefixes calls fn with the id and length of every stored sequence that is a
// prefix of seq, shortest first. Iteration stops when fn returns false.
func (t *Trie) Prefixes(seq []phoneme.Syllable, fn func(id, length int) bool) {
	n := &t.root
	for i, s := range seq {
		n = n.children[s]
		if n == nil {
			return
		}
		if n.terminal && !fn(n.id, i+1) {
			return
		}
	}
}

// Longest returns the longest stored prefix of seq.
func (t *Trie) Longest(seq []phoneme.Syllable) (id, length int, ok bool) {
	t.Prefixes(seq, func(i, l int) bool {
		id, length, ok = i, l, true
		return true
	})
	return id, length, ok
}

func (t *Trie) find(seq []phoneme.Syllable) *node {
	n := &t.root
	for _, s := range seq {
		n = n.children[s]
		if n == nil {
			return nil
		}
	}
	return n
}

// Cursor walks the trie one syllable at a time. The decoder uses it to match
// a word without buffering the whole stream.
type Cursor struct {
	n     *node
	depth int
}

// Cursor returns a cursor positioned at the root.
func (t *Trie) Cursor() Cursor {
	return Cursor{n: &t.root}
}

// Step advances by s. It returns false, leaving the cursor unchanged, when no
// stored sequence continues with s.
func (c *Cursor) Step(s phoneme.Syllable) bool {
	next := c.n.children[s]
	if next == nil {
		return false
	}
	c.n = next
	c.depth++
	return true
}

// Terminal reports whether the syllables stepped so far form a stored sequence.
func (c Cursor) Terminal() (id int, ok bool) {
	return c.n.id, c.n.terminal
}

// CanExtend reports whether any stored sequence continues past this point.
func (c Cursor) CanExtend() bool { return len(c.n.children) > 0 }

// Depth returns the number of syllables stepped.
func (c Cursor) Depth() int { return c.depth }
