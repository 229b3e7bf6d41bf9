// Package availability expands recurring field-availability rules into
// concrete bookable slot drafts. The engine is pure: persistence and overlap
// guarding happen in the slot repository, never here.
package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/timeutil"
)

// Window bounds an expansion run, inclusive on both ends.
type Window struct {
	From string
	To   string
}

// SlotDraft is an unpersisted slot produced by expansion.
type SlotDraft struct {
	Division string `json:"division"`
	FieldKey string `json:"fieldKey"`
	GameDate string `json:"gameDate"`
	StartMin int    `json:"startMin"`
	EndMin   int    `json:"endMin"`
}

// InvalidConfigError reports availability input that can never expand.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid availability config: " + e.Reason
}

func invalidConfig(format string, args ...interface{}) error {
	return &InvalidConfigError{Reason: fmt.Sprintf(format, args...)}
}

type interval struct {
	start int
	end   int
}

// Expand turns rules minus exceptions minus blackout dates into fixed-length
// slot drafts. Slots are emitted back-to-back from the start of each residual
// interval; a residual shorter than the game length yields nothing. Output
// is sorted by (gameDate, fieldKey, startMin) and identical inputs always
// produce identical output.
func Expand(rules []models.AvailabilityRule, exceptions []models.AvailabilityException, blackouts []models.Blackout, window Window, gameLengthMinutes int) ([]SlotDraft, error) {
	if gameLengthMinutes <= 0 {
		return nil, invalidConfig("gameLengthMinutes must be positive, got %d", gameLengthMinutes)
	}
	if _, err := timeutil.ParseDate(window.From); err != nil {
		return nil, invalidConfig("window from: %v", err)
	}
	if _, err := timeutil.ParseDate(window.To); err != nil {
		return nil, invalidConfig("window to: %v", err)
	}
	if window.To < window.From {
		return nil, invalidConfig("window end %s precedes start %s", window.To, window.From)
	}
	for _, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, err
		}
	}

	byRule := make(map[string][]models.AvailabilityException, len(exceptions))
	for _, ex := range exceptions {
		byRule[ex.RuleID] = append(byRule[ex.RuleID], ex)
	}

	drafts := make([]SlotDraft, 0)
	err := timeutil.EachDate(window.From, window.To, func(day time.Time) error {
		date := timeutil.FormatDate(day)
		if coveredByBlackout(blackouts, date) {
			return nil
		}
		weekday := int(day.Weekday())

		for _, rule := range rules {
			if !rule.OccursOn(weekday) || !ruleEffectiveOn(rule, date) {
				continue
			}
			residuals := applyExceptions(interval{rule.StartMin, rule.EndMin}, byRule[rule.RuleID], date)
			for _, iv := range residuals {
				for start := iv.start; start+gameLengthMinutes <= iv.end; start += gameLengthMinutes {
					drafts = append(drafts, SlotDraft{
						Division: rule.Division,
						FieldKey: rule.FieldKey,
						GameDate: date,
						StartMin: start,
						EndMin:   start + gameLengthMinutes,
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(drafts, func(i, j int) bool {
		a, b := drafts[i], drafts[j]
		if a.GameDate != b.GameDate {
			return a.GameDate < b.GameDate
		}
		if a.FieldKey != b.FieldKey {
			return a.FieldKey < b.FieldKey
		}
		if a.StartMin != b.StartMin {
			return a.StartMin < b.StartMin
		}
		return a.Division < b.Division
	})
	return drafts, nil
}

func validateRule(rule models.AvailabilityRule) error {
	if len(rule.DaysOfWeek) == 0 {
		return invalidConfig("rule %s: no days of week", rule.RuleID)
	}
	for _, day := range rule.DaysOfWeek {
		if day < 0 || day > 6 {
			return invalidConfig("rule %s: weekday %d out of range", rule.RuleID, day)
		}
	}
	if !timeutil.ValidMinutes(rule.StartMin, rule.EndMin) {
		return invalidConfig("rule %s: bad time range [%d, %d)", rule.RuleID, rule.StartMin, rule.EndMin)
	}
	if rule.StartsOn != "" {
		if _, err := timeutil.ParseDate(rule.StartsOn); err != nil {
			return invalidConfig("rule %s: %v", rule.RuleID, err)
		}
	}
	if rule.EndsOn != "" {
		if _, err := timeutil.ParseDate(rule.EndsOn); err != nil {
			return invalidConfig("rule %s: %v", rule.RuleID, err)
		}
	}
	return nil
}

func ruleEffectiveOn(rule models.AvailabilityRule, date string) bool {
	if rule.StartsOn != "" && date < rule.StartsOn {
		return false
	}
	if rule.EndsOn != "" && date > rule.EndsOn {
		return false
	}
	return true
}

func coveredByBlackout(blackouts []models.Blackout, date string) bool {
	for _, b := range blackouts {
		if b.Covers(date) {
			return true
		}
	}
	return false
}

// applyExceptions subtracts every exception active on the date from the rule
// interval. Each subtraction leaves zero, one or two residuals.
func applyExceptions(base interval, exceptions []models.AvailabilityException, date string) []interval {
	residuals := []interval{base}
	for _, ex := range exceptions {
		if !ex.AppliesTo(date) {
			continue
		}
		next := make([]interval, 0, len(residuals)+1)
		for _, iv := range residuals {
			next = append(next, subtract(iv, ex.StartMin, ex.EndMin)...)
		}
		residuals = next
	}
	return residuals
}

func subtract(iv interval, cutStart, cutEnd int) []interval {
	if cutEnd <= iv.start || cutStart >= iv.end {
		return []interval{iv}
	}
	out := make([]interval, 0, 2)
	if cutStart > iv.start {
		out = append(out, interval{iv.start, cutStart})
	}
	if cutEnd < iv.end {
		out = append(out, interval{cutEnd, iv.end})
	}
	return out
}
