package dictionary

import (
	"sort"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const suggestThreshold = 0.7

// Suggest returns up to n registered spellings that sound closest to
// fragment, best first. Used to annotate unknown-word faults.
func (d *Dictionary) Suggest(fragment string, n int) []string {
	if fragment == "" || n <= 0 {
		return nil
	}

	type scored struct {
		spelling string
		score    float64
	}
	var candidates []scored
	for _, w := range d.words {
		sp := w.Spelling()
		score := matchr.JaroWinkler(fragment, sp, false)
		if score >= suggestThreshold {
			candidates = append(candidates, scored{sp, score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].spelling < candidates[j].spelling
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.spelling
	}
	return out
}
