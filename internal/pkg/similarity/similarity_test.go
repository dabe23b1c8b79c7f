package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Score("Priya Sharma", "Priya Sharma"))
}

func TestScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, Score("  PRIYA   sharma ", "priya sharma"))
}

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Score("", ""))
	assert.Equal(t, 0.0, Score("priya", ""))
}

func TestScore_CompletelyDifferent(t *testing.T) {
	score := Score("abc", "xyz")
	assert.Equal(t, 0.0, score)
}

func TestScore_CloseNames(t *testing.T) {
	// One substitution over 12 runes.
	score := Score("priya sharma", "priya sharna")
	assert.InDelta(t, 1.0-1.0/12.0, score, 1e-9)
	assert.Greater(t, score, 0.8)
}

func TestScore_PartialOverlap(t *testing.T) {
	score := Score("priya", "priya sharma")
	assert.Greater(t, score, 0.3)
	assert.Less(t, score, 0.8)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"", "abc", 3},
		{"abc", "abc", 0},
	}
	for _, tt := range tests {
		got := levenshtein([]rune(tt.a), []rune(tt.b))
		assert.Equal(t, tt.want, got, "levenshtein(%q, %q)", tt.a, tt.b)
	}
}
