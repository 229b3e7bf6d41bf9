package models

import (
	"strings"
	"time"
)

// Field is a playing surface identified by a "park/field" key within a league.
type Field struct {
	LeagueID    string    `json:"leagueId"`
	FieldKey    string    `json:"fieldKey"`
	DisplayName string    `json:"displayName"`
	Address     string    `json:"address,omitempty"`
	Lighted     bool      `json:"lighted"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SplitFieldKey separates a field key into its location and field parts on
// the first slash. Keys without a slash are all location.
func SplitFieldKey(fieldKey string) (location, field string) {
	if i := strings.Index(fieldKey, "/"); i >= 0 {
		return fieldKey[:i], fieldKey[i+1:]
	}
	return fieldKey, ""
}
