package schedule

import (
	"fmt"
	"sort"

	"github.com/fieldtime/scheduler-api/internal/models"
)

// Validator rule ids, stable across releases; clients key UI copy off them.
const (
	RuleDoubleHeader      = "double-header"
	RuleMaxGamesPerWeek   = "max-games-per-week"
	RuleHomeAwayImbalance = "home-away-imbalance"
	RuleMissingTeams      = "missing-teams"
	RuleOverlap           = "overlap"
)

// Validate audits a set of assignments against the constraints and the team
// roster. It is pure and returns issues ordered by rule id, then subject, so
// repeated runs over the same input produce identical reports.
func Validate(assignments []Assignment, teams []models.Team, constraints Constraints) []Issue {
	issues := make([]Issue, 0)
	issues = append(issues, checkDoubleHeaders(assignments, constraints)...)
	issues = append(issues, checkWeeklyLimit(assignments, constraints)...)
	issues = append(issues, checkHomeAwayBalance(assignments)...)
	issues = append(issues, checkMissingTeams(assignments, teams)...)
	issues = append(issues, checkOverlaps(assignments)...)

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].RuleID != issues[j].RuleID {
			return issues[i].RuleID < issues[j].RuleID
		}
		return lessSubjects(issues[i].SubjectIDs, issues[j].SubjectIDs)
	})
	return issues
}

func checkDoubleHeaders(assignments []Assignment, constraints Constraints) []Issue {
	if constraints.AllowDoubleheaders {
		return nil
	}
	perTeamDate := make(map[string][]string) // team|date -> slot ids
	for _, a := range assignments {
		for _, team := range []string{a.HomeTeamID, a.AwayTeamID} {
			key := team + "|" + a.GameDate
			perTeamDate[key] = append(perTeamDate[key], a.SlotID)
		}
	}

	keys := make([]string, 0, len(perTeamDate))
	for key := range perTeamDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	issues := make([]Issue, 0)
	for _, key := range keys {
		slots := perTeamDate[key]
		if len(slots) < 2 {
			continue
		}
		team, date := splitKey(key)
		sort.Strings(slots)
		issues = append(issues, Issue{
			RuleID:     RuleDoubleHeader,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("team %s plays %d games on %s", team, len(slots), date),
			SubjectIDs: append([]string{team}, slots...),
		})
	}
	return issues
}

func checkWeeklyLimit(assignments []Assignment, constraints Constraints) []Issue {
	if constraints.MaxGamesPerWeek <= 0 {
		return nil
	}
	perTeamWeek := make(map[string]int)
	for _, a := range assignments {
		perTeamWeek[a.HomeTeamID+"|"+a.Week]++
		perTeamWeek[a.AwayTeamID+"|"+a.Week]++
	}

	keys := make([]string, 0, len(perTeamWeek))
	for key := range perTeamWeek {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	issues := make([]Issue, 0)
	for _, key := range keys {
		count := perTeamWeek[key]
		if count <= constraints.MaxGamesPerWeek {
			continue
		}
		team, week := splitKey(key)
		issues = append(issues, Issue{
			RuleID:     RuleMaxGamesPerWeek,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("team %s has %d games in %s, limit %d", team, count, week, constraints.MaxGamesPerWeek),
			SubjectIDs: []string{team, week},
		})
	}
	return issues
}

func checkHomeAwayBalance(assignments []Assignment) []Issue {
	home := make(map[string]int)
	away := make(map[string]int)
	for _, a := range assignments {
		home[a.HomeTeamID]++
		away[a.AwayTeamID]++
	}
	teamSet := make(map[string]bool, len(home)+len(away))
	for team := range home {
		teamSet[team] = true
	}
	for team := range away {
		teamSet[team] = true
	}

	teams := make([]string, 0, len(teamSet))
	for team := range teamSet {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	issues := make([]Issue, 0)
	for _, team := range teams {
		h, a := home[team], away[team]
		diff := h - a
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			continue
		}
		issues = append(issues, Issue{
			RuleID:     RuleHomeAwayImbalance,
			Severity:   SeverityWarn,
			Message:    fmt.Sprintf("team %s has %d home and %d away games", team, h, a),
			SubjectIDs: []string{team},
		})
	}
	return issues
}

func checkMissingTeams(assignments []Assignment, teams []models.Team) []Issue {
	issues := make([]Issue, 0)
	playing := make(map[string]bool)
	for _, a := range assignments {
		if a.HomeTeamID != "" {
			playing[a.HomeTeamID] = true
		}
		if a.AwayTeamID != "" {
			playing[a.AwayTeamID] = true
		}
		// External offers live outside the assignment list, so an assignment
		// with an empty side is always broken.
		if a.HomeTeamID == "" || a.AwayTeamID == "" {
			issues = append(issues, Issue{
				RuleID:     RuleMissingTeams,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("assignment %s is missing a home or away team", a.SlotID),
				SubjectIDs: []string{a.SlotID},
			})
		}
	}

	ids := make([]string, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.TeamID)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if playing[id] {
			continue
		}
		issues = append(issues, Issue{
			RuleID:     RuleMissingTeams,
			Severity:   SeverityWarn,
			Message:    fmt.Sprintf("team %s has no games scheduled", id),
			SubjectIDs: []string{id},
		})
	}
	return issues
}

func checkOverlaps(assignments []Assignment) []Issue {
	byFieldDate := make(map[string][]Assignment)
	for _, a := range assignments {
		key := a.FieldKey + "|" + a.GameDate
		byFieldDate[key] = append(byFieldDate[key], a)
	}

	keys := make([]string, 0, len(byFieldDate))
	for key := range byFieldDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	issues := make([]Issue, 0)
	for _, key := range keys {
		group := byFieldDate[key]
		sort.Slice(group, func(i, j int) bool {
			if group[i].StartMin != group[j].StartMin {
				return group[i].StartMin < group[j].StartMin
			}
			return group[i].SlotID < group[j].SlotID
		})
		// Every earlier assignment still running at cur's start is a hit, so
		// one long interval spanning several later ones reports each pair.
		for i := 1; i < len(group); i++ {
			cur := group[i]
			for j := 0; j < i; j++ {
				prev := group[j]
				if cur.StartMin >= prev.EndMin {
					continue
				}
				field, date := splitKey(key)
				subjects := []string{prev.SlotID, cur.SlotID}
				sort.Strings(subjects)
				issues = append(issues, Issue{
					RuleID:     RuleOverlap,
					Severity:   SeverityError,
					Message:    fmt.Sprintf("assignments overlap on %s %s", field, date),
					SubjectIDs: subjects,
				})
			}
		}
	}
	return issues
}

func splitKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func lessSubjects(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
