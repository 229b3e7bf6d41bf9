package models

import (
	"fmt"
	"time"
)

// SlotStatus is the slot lifecycle state. Cancelled is terminal.
type SlotStatus string

const (
	SlotOpen      SlotStatus = "Open"
	SlotPending   SlotStatus = "Pending"
	SlotConfirmed SlotStatus = "Confirmed"
	SlotCancelled SlotStatus = "Cancelled"
)

// GameType classifies what a slot is booked for.
type GameType string

const (
	GameTypeGame     GameType = "Game"
	GameTypePractice GameType = "Practice"
	GameTypeExternal GameType = "External"
)

// Slot is a bookable time range on a field. Times are minutes from midnight;
// GameDate is an ISO date in the league's timezone.
type Slot struct {
	SlotID        string     `json:"slotId"`
	LeagueID      string     `json:"leagueId"`
	Division      string     `json:"division"`
	FieldKey      string     `json:"fieldKey"`
	GameDate      string     `json:"gameDate"`
	StartMin      int        `json:"startMin"`
	EndMin        int        `json:"endMin"`
	Status        SlotStatus `json:"status"`
	GameType      GameType   `json:"gameType,omitempty"`
	HomeTeamID    string     `json:"homeTeamId,omitempty"`
	AwayTeamID    string     `json:"awayTeamId,omitempty"`
	RequestID     string     `json:"requestId,omitempty"`
	ExternalLabel string     `json:"externalLabel,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// SlotFilter narrows slot listings.
type SlotFilter struct {
	From     string
	To       string
	FieldKey string
	Division string
	Status   SlotStatus
}

// Matches applies the filter to one slot. Empty criteria match everything.
func (f SlotFilter) Matches(s Slot) bool {
	if f.From != "" && s.GameDate < f.From {
		return false
	}
	if f.To != "" && s.GameDate > f.To {
		return false
	}
	if f.FieldKey != "" && s.FieldKey != f.FieldKey {
		return false
	}
	if f.Division != "" && s.Division != f.Division {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// TimeRange is one occupied interval inside a FieldDay.
type TimeRange struct {
	SlotID   string `json:"slotId"`
	StartMin int    `json:"startMin"`
	EndMin   int    `json:"endMin"`
}

// Overlaps reports a strict intersection; shared boundaries do not overlap.
func (r TimeRange) Overlaps(startMin, endMin int) bool {
	return startMin < r.EndMin && endMin > r.StartMin
}

// FieldDay is the per-(field, date) summary row that serializes concurrent
// slot writes for one field-date through a single version counter.
type FieldDay struct {
	LeagueID string      `json:"leagueId"`
	FieldKey string      `json:"fieldKey"`
	GameDate string      `json:"gameDate"`
	Ranges   []TimeRange `json:"ranges"`
}

// FieldDayRowKey builds the row key for a field-date summary.
func FieldDayRowKey(fieldKey, gameDate string) string {
	return fmt.Sprintf("%s|%s", fieldKey, gameDate)
}
