package similarity

import "strings"

// Score returns a normalized name similarity in [0, 1]. 1.0 means the
// normalized strings are identical; 0.0 means nothing in common. It is
// 1 - levenshtein(a, b) / max(len(a), len(b)) over case-folded,
// whitespace-collapsed runes, so the threshold behavior of the identity
// mapper is testable independently of any particular dataset.
func Score(a, b string) float64 {
	ra := []rune(normalize(a))
	rb := []rune(normalize(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 0
	}
	if string(ra) == string(rb) {
		return 1.0
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}

	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(longest)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// levenshtein computes edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min3(
				prev[j]+1,        // deletion
				current[j-1]+1,   // insertion
				prev[j-1]+cost,   // substitution
			)
		}
		prev = current
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
