package models

import "time"

// League is the top-level tenant. Every other entity is scoped to one league.
type League struct {
	LeagueID  string       `json:"leagueId"`
	Name      string       `json:"name"`
	Sport     string       `json:"sport"`
	Timezone  string       `json:"timezone"`
	Season    SeasonConfig `json:"seasonConfig"`
	Version   int64        `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SeasonConfig carries the league-wide scheduling knobs.
type SeasonConfig struct {
	SeasonStart       string     `json:"seasonStart"` // YYYY-MM-DD
	SeasonEnd         string     `json:"seasonEnd"`
	GameLengthMinutes int        `json:"gameLengthMinutes"`
	Divisions         []string   `json:"divisions,omitempty"`
	Blackouts         []Blackout `json:"blackoutDates,omitempty"`
}

// Blackout removes whole dates from availability expansion. A single-day
// blackout sets DateFrom == DateTo.
type Blackout struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	Reason   string `json:"reason,omitempty"`
}

// Covers reports whether the blackout includes the given ISO date. Lexical
// comparison is safe for YYYY-MM-DD strings.
func (b Blackout) Covers(date string) bool {
	if b.DateFrom == "" {
		return false
	}
	to := b.DateTo
	if to == "" {
		to = b.DateFrom
	}
	return date >= b.DateFrom && date <= to
}
