// Package schedule contains the deterministic round-robin generator and the
// pure validator that audits its output. Nothing in this package touches
// storage; the schedule service owns persistence.
package schedule

// Constraints bound a generation run.
type Constraints struct {
	MaxGamesPerWeek      int   `json:"maxGamesPerWeek"`
	AllowDoubleheaders   bool  `json:"allowDoubleheaders"`
	PreferredDays        []int `json:"preferredDays,omitempty"` // weekdays, 0=Sunday
	BalanceHomeAway      bool  `json:"balanceHomeAway"`
	ExternalOfferPerWeek int   `json:"externalOfferPerWeek"`
	Rounds               int   `json:"rounds"`
}

// Matchup is an unordered pair of teams, normalized so TeamA < TeamB.
type Matchup struct {
	TeamA string `json:"teamA"`
	TeamB string `json:"teamB"`
}

// Assignment is one scheduled game.
type Assignment struct {
	SlotID     string `json:"slotId"`
	GameDate   string `json:"gameDate"`
	StartMin   int    `json:"startMin"`
	EndMin     int    `json:"endMin"`
	FieldKey   string `json:"fieldKey"`
	Division   string `json:"division"`
	HomeTeamID string `json:"homeTeamId"`
	AwayTeamID string `json:"awayTeamId"`
	Week       string `json:"week"`
}

// ExternalOffer is an unclaimed slot opened to teams outside the league.
type ExternalOffer struct {
	SlotID   string `json:"slotId"`
	GameDate string `json:"gameDate"`
	StartMin int    `json:"startMin"`
	EndMin   int    `json:"endMin"`
	FieldKey string `json:"fieldKey"`
	Label    string `json:"label"`
	Week     string `json:"week"`
}

// Failure explains why a matchup could not be placed.
type Failure struct {
	Matchup Matchup `json:"matchup"`
	Reason  string  `json:"reason"`
}

// Summary aggregates a generation run.
type Summary struct {
	TotalSlots         int            `json:"totalSlots"`
	Assigned           int            `json:"assigned"`
	ExternalOffers     int            `json:"externalOffers"`
	UnassignedSlots    int            `json:"unassignedSlots"`
	UnassignedMatchups int            `json:"unassignedMatchups"`
	GamesPerTeam       map[string]int `json:"gamesPerTeam"`
}

// Result is the full, deterministic output of one generation run.
type Result struct {
	Summary            Summary         `json:"summary"`
	Assignments        []Assignment    `json:"assignments"`
	ExternalOffers     []ExternalOffer `json:"externalOffers,omitempty"`
	UnassignedSlotIDs  []string        `json:"unassignedSlots"`
	UnassignedMatchups []Matchup       `json:"unassignedMatchups"`
	Failures           []Failure       `json:"failures"`
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Issue is one validator finding.
type Issue struct {
	RuleID     string   `json:"ruleId"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	SubjectIDs []string `json:"subjectIds,omitempty"`
}
