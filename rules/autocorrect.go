package rules

// Autocorrect is a small in-memory index over a fixed vocabulary of
// command names, built once at configuration-install time, that answers
// "which known commands are within edit distance 2 of this typo". There
// is no third-party fuzzy-matching library anywhere in the example corpus
// (the original program hand-rolls the same thing in its own
// levenshtein.rs), so this stays a direct, dependency-free port of that
// approach rather than a stdlib workaround for a library that doesn't
// exist in the ecosystem the corpus draws from.
type Autocorrect struct {
	words []string
}

// NewAutocorrect keeps a copy of words for Suggest to scan. Rebuilt wholesale on
// every configuration install, since the vocabulary is small (one entry
// per installed command) and installs are rare compared to lookups.
func NewAutocorrect(words []string) *Autocorrect {
	cp := make([]string, len(words))
	copy(cp, words)
	return &Autocorrect{words: cp}
}

// Suggest returns every word within edit distance 2 of input, nearest
// first. An exact match returns no suggestions, since the caller only
// consults this after an exact-match lookup has already failed.
func (a *Autocorrect) Suggest(input string) []string {
	type scored struct {
		word string
		dist int
	}
	var candidates []scored
	for _, w := range a.words {
		if w == input {
			return nil
		}
		d := levenshtein(input, w)
		if d <= 2 {
			candidates = append(candidates, scored{w, d})
		}
	}
	// Stable-ish nearest-first ordering; words is already sorted by the
	// registry so ties keep deterministic output.
	for i := 1; i < len(candidates); i++ {
		j := i
		for j > 0 && candidates[j-1].dist > candidates[j].dist {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
			j--
		}
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}

// levenshtein computes the classic edit distance between a and b using a
// two-row dynamic-programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
