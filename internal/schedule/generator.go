package schedule

import (
	"fmt"
	"sort"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/timeutil"
)

// Rejection reasons recorded for matchups that never found a slot.
const (
	reasonNoSlots      = "no open slots remaining"
	reasonDoubleheader = "would create a doubleheader"
	reasonWeekLimit    = "would exceed max games per week"
)

// Generator assigns round-robin matchups to open slots greedily and
// deterministically: same teams, slots and constraints always produce the
// same schedule.
type Generator struct {
	constraints Constraints
}

// NewGenerator builds a generator for one constraint set.
func NewGenerator(constraints Constraints) *Generator {
	return &Generator{constraints: constraints}
}

type teamState struct {
	games     int
	homeGames int
	dates     map[string]bool
	weeks     map[string]int
}

// Generate walks slots in (gameDate, startMin, fieldKey) order and places the
// cheapest eligible matchup into each. Eligibility is hard: a matchup that
// would double-book a team on a date (unless doubleheaders are allowed) or
// push a team past its weekly cap is skipped outright. Among eligible
// matchups cost is compared lexicographically as (max games played, total
// games played, preferred-day miss, matchup order).
func (g *Generator) Generate(slots []models.Slot, teams []models.Team) (*Result, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("need at least two teams, got %d", len(teams))
	}
	division := teams[0].Division
	teamIDs := make([]string, 0, len(teams))
	for _, team := range teams {
		if team.Division != division {
			return nil, fmt.Errorf("teams span divisions %s and %s", division, team.Division)
		}
		teamIDs = append(teamIDs, team.TeamID)
	}

	open := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Status == models.SlotOpen && slot.Division == division {
			open = append(open, slot)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		a, b := open[i], open[j]
		if a.GameDate != b.GameDate {
			return a.GameDate < b.GameDate
		}
		if a.StartMin != b.StartMin {
			return a.StartMin < b.StartMin
		}
		return a.FieldKey < b.FieldKey
	})

	pairs := Matchups(teamIDs, g.constraints.Rounds)
	pending := make([]int, len(pairs))
	for i := range pairs {
		pending[i] = i
	}
	lastReason := make(map[int]string, len(pairs))

	states := make(map[string]*teamState, len(teamIDs))
	for _, id := range teamIDs {
		states[id] = &teamState{dates: make(map[string]bool), weeks: make(map[string]int)}
	}

	preferred := make(map[int]bool, len(g.constraints.PreferredDays))
	for _, day := range g.constraints.PreferredDays {
		preferred[day] = true
	}

	result := &Result{
		Assignments:        make([]Assignment, 0, len(open)),
		ExternalOffers:     nil,
		UnassignedSlotIDs:  make([]string, 0),
		UnassignedMatchups: make([]Matchup, 0),
		Failures:           make([]Failure, 0),
	}
	unassigned := make([]models.Slot, 0)

	for _, slot := range open {
		week, err := timeutil.WeekKey(slot.GameDate)
		if err != nil {
			return nil, err
		}
		weekday, err := timeutil.Weekday(slot.GameDate)
		if err != nil {
			return nil, err
		}

		bestIdx := -1
		var bestCost [4]int
		for pos, idx := range pending {
			pair := pairs[idx]
			a, b := states[pair.TeamA], states[pair.TeamB]

			if !g.constraints.AllowDoubleheaders && (a.dates[slot.GameDate] || b.dates[slot.GameDate]) {
				lastReason[idx] = reasonDoubleheader
				continue
			}
			if limit := g.constraints.MaxGamesPerWeek; limit > 0 && (a.weeks[week]+1 > limit || b.weeks[week]+1 > limit) {
				lastReason[idx] = reasonWeekLimit
				continue
			}

			miss := 0
			if len(preferred) > 0 && !preferred[weekday] {
				miss = 1
			}
			cost := [4]int{maxInt(a.games, b.games), a.games + b.games, miss, pos}
			if bestIdx == -1 || lessCost(cost, bestCost) {
				bestIdx = pos
				bestCost = cost
			}
		}

		if bestIdx == -1 {
			unassigned = append(unassigned, slot)
			continue
		}

		idx := pending[bestIdx]
		pair := pairs[idx]
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)

		home, away := g.pickHome(pair, states)
		states[pair.TeamA].games++
		states[pair.TeamB].games++
		states[pair.TeamA].dates[slot.GameDate] = true
		states[pair.TeamB].dates[slot.GameDate] = true
		states[pair.TeamA].weeks[week]++
		states[pair.TeamB].weeks[week]++
		states[home].homeGames++

		result.Assignments = append(result.Assignments, Assignment{
			SlotID:     slot.SlotID,
			GameDate:   slot.GameDate,
			StartMin:   slot.StartMin,
			EndMin:     slot.EndMin,
			FieldKey:   slot.FieldKey,
			Division:   slot.Division,
			HomeTeamID: home,
			AwayTeamID: away,
			Week:       week,
		})
	}

	unassigned, offers, err := g.fillExternalOffers(unassigned)
	if err != nil {
		return nil, err
	}
	result.ExternalOffers = offers
	for _, slot := range unassigned {
		result.UnassignedSlotIDs = append(result.UnassignedSlotIDs, slot.SlotID)
	}

	for _, idx := range pending {
		pair := pairs[idx]
		reason := lastReason[idx]
		if reason == "" {
			reason = reasonNoSlots
		}
		result.UnassignedMatchups = append(result.UnassignedMatchups, pair)
		result.Failures = append(result.Failures, Failure{Matchup: pair, Reason: reason})
	}

	games := make(map[string]int, len(teamIDs))
	for _, id := range teamIDs {
		games[id] = states[id].games
	}
	result.Summary = Summary{
		TotalSlots:         len(open),
		Assigned:           len(result.Assignments),
		ExternalOffers:     len(result.ExternalOffers),
		UnassignedSlots:    len(result.UnassignedSlotIDs),
		UnassignedMatchups: len(result.UnassignedMatchups),
		GamesPerTeam:       games,
	}
	return result, nil
}

// pickHome chooses the home side. With balancing on, the team with fewer home
// games so far hosts; ties and the balancing-off case host the
// lexicographically smaller id (TeamA by construction).
func (g *Generator) pickHome(pair Matchup, states map[string]*teamState) (home, away string) {
	if g.constraints.BalanceHomeAway && states[pair.TeamB].homeGames < states[pair.TeamA].homeGames {
		return pair.TeamB, pair.TeamA
	}
	return pair.TeamA, pair.TeamB
}

// fillExternalOffers labels up to ExternalOfferPerWeek leftover slots per ISO
// week, in slot order, and returns the rest as still unassigned.
func (g *Generator) fillExternalOffers(leftover []models.Slot) ([]models.Slot, []ExternalOffer, error) {
	quota := g.constraints.ExternalOfferPerWeek
	if quota <= 0 || len(leftover) == 0 {
		return leftover, nil, nil
	}

	perWeek := make(map[string]int)
	offers := make([]ExternalOffer, 0)
	remaining := make([]models.Slot, 0, len(leftover))
	for _, slot := range leftover {
		week, err := timeutil.WeekKey(slot.GameDate)
		if err != nil {
			return nil, nil, err
		}
		if perWeek[week] >= quota {
			remaining = append(remaining, slot)
			continue
		}
		perWeek[week]++
		offers = append(offers, ExternalOffer{
			SlotID:   slot.SlotID,
			GameDate: slot.GameDate,
			StartMin: slot.StartMin,
			EndMin:   slot.EndMin,
			FieldKey: slot.FieldKey,
			Label:    fmt.Sprintf("External offer %s #%d", week, perWeek[week]),
			Week:     week,
		})
	}
	return remaining, offers, nil
}

func lessCost(a, b [4]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
