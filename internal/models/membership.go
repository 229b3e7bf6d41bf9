package models

import "time"

// Role represents what a user may do inside one league.
type Role string

const (
	RoleGlobalAdmin Role = "GlobalAdmin"
	RoleLeagueAdmin Role = "LeagueAdmin"
	RoleCoach       Role = "Coach"
	RoleViewer      Role = "Viewer"
)

// Membership binds a user to a league with a role. Coach memberships carry
// the division and team they coach.
type Membership struct {
	UserID    string    `json:"userId"`
	LeagueID  string    `json:"leagueId"`
	Role      Role      `json:"role"`
	Division  string    `json:"division,omitempty"`
	TeamID    string    `json:"teamId,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Principal is the resolved caller identity attached to each request.
// GlobalAdmin principals act as league admins in every league.
type Principal struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	LeagueID string `json:"leagueId,omitempty"`
	Role     Role   `json:"role"`
	Division string `json:"division,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
}

// IsLeagueAdmin reports whether the principal administers the current league.
func (p Principal) IsLeagueAdmin() bool {
	return p.Role == RoleLeagueAdmin || p.Role == RoleGlobalAdmin
}

// CoachesTeam reports whether the principal coaches the given team.
func (p Principal) CoachesTeam(division, teamID string) bool {
	return p.Role == RoleCoach && p.Division == division && p.TeamID == teamID
}
