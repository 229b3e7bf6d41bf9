package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchupsSingleRound(t *testing.T) {
	pairs := Matchups([]string{"d", "b", "a", "c"}, 1)
	require.Len(t, pairs, 6)

	// Lexicographic by (TeamA, TeamB), every unordered pair exactly once.
	expected := []Matchup{
		{"a", "b"}, {"a", "c"}, {"a", "d"},
		{"b", "c"}, {"b", "d"},
		{"c", "d"},
	}
	assert.Equal(t, expected, pairs)
}

func TestMatchupsMultipleRounds(t *testing.T) {
	pairs := Matchups([]string{"a", "b", "c"}, 2)
	require.Len(t, pairs, 6)
	assert.Equal(t, pairs[:3], pairs[3:])
}

func TestMatchupsZeroRoundsDefaultsToOne(t *testing.T) {
	assert.Len(t, Matchups([]string{"a", "b"}, 0), 1)
}

func TestNormalizeMatchup(t *testing.T) {
	assert.Equal(t, Matchup{TeamA: "a", TeamB: "b"}, NormalizeMatchup("b", "a"))
	assert.Equal(t, Matchup{TeamA: "a", TeamB: "b"}, NormalizeMatchup("a", "b"))
}
