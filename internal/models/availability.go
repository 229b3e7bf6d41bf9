package models

import "time"

// AvailabilityRule makes a field available for one division on a set of
// weekdays within an effective date range. Times are minutes from midnight.
type AvailabilityRule struct {
	RuleID     string    `json:"ruleId"`
	LeagueID   string    `json:"leagueId"`
	Division   string    `json:"division"`
	FieldKey   string    `json:"fieldKey"`
	StartsOn   string    `json:"startsOn"` // YYYY-MM-DD, inclusive
	EndsOn     string    `json:"endsOn"`   // inclusive
	DaysOfWeek []int     `json:"daysOfWeek"` // 0=Sunday .. 6=Saturday
	StartMin   int       `json:"startMin"`
	EndMin     int       `json:"endMin"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OccursOn reports whether the rule fires on the given weekday (0=Sunday).
func (r AvailabilityRule) OccursOn(weekday int) bool {
	for _, d := range r.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// AvailabilityException carves a time range out of a rule's occurrences for a
// span of dates.
type AvailabilityException struct {
	ExceptionID string    `json:"exceptionId"`
	LeagueID    string    `json:"leagueId"`
	RuleID      string    `json:"ruleId"`
	DateFrom    string    `json:"dateFrom"`
	DateTo      string    `json:"dateTo"`
	StartMin    int       `json:"startMin"`
	EndMin      int       `json:"endMin"`
	Reason      string    `json:"reason,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AppliesTo reports whether the exception affects the given date.
func (e AvailabilityException) AppliesTo(date string) bool {
	if e.DateFrom == "" {
		return false
	}
	to := e.DateTo
	if to == "" {
		to = e.DateFrom
	}
	return date >= e.DateFrom && date <= to
}
