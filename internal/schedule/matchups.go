package schedule

import "sort"

// Matchups returns every unordered team pair, repeated rounds times, in
// lexicographic (TeamA, TeamB) order. For n teams one round yields n*(n-1)/2
// pairs. The order is part of the generator contract: ties during assignment
// break toward the earliest pair in this list.
func Matchups(teamIDs []string, rounds int) []Matchup {
	ids := append([]string(nil), teamIDs...)
	sort.Strings(ids)
	if rounds <= 0 {
		rounds = 1
	}

	pairs := make([]Matchup, 0, rounds*len(ids)*(len(ids)-1)/2)
	for r := 0; r < rounds; r++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs = append(pairs, Matchup{TeamA: ids[i], TeamB: ids[j]})
			}
		}
	}
	return pairs
}

// NormalizeMatchup orders a pair so the lexicographically smaller id is TeamA.
func NormalizeMatchup(a, b string) Matchup {
	if b < a {
		a, b = b, a
	}
	return Matchup{TeamA: a, TeamB: b}
}
