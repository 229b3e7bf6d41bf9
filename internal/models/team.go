package models

import "time"

// Team belongs to one division of one league.
type Team struct {
	TeamID       string    `json:"teamId"`
	LeagueID     string    `json:"leagueId"`
	Division     string    `json:"division"`
	Name         string    `json:"name"`
	CoachUserID  string    `json:"coachUserId,omitempty"`
	HomeFieldKey string    `json:"homeFieldKey,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
