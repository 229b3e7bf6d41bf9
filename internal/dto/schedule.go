package dto

import "github.com/fieldtime/scheduler-api/internal/schedule"

// GenerateScheduleRequest drives /schedule/preview and /schedule/apply.
type GenerateScheduleRequest struct {
	Division             string `json:"division" binding:"required"`
	From                 string `json:"from" binding:"required"`
	To                   string `json:"to" binding:"required"`
	MaxGamesPerWeek      int    `json:"maxGamesPerWeek,omitempty"`
	AllowDoubleheaders   bool   `json:"allowDoubleheaders,omitempty"`
	PreferredDays        []int  `json:"preferredDays,omitempty" binding:"omitempty,dive,min=0,max=6"`
	BalanceHomeAway      bool   `json:"balanceHomeAway,omitempty"`
	ExternalOfferPerWeek int    `json:"externalOfferPerWeek,omitempty"`
	Rounds               int    `json:"rounds,omitempty"`
}

// Constraints converts the request into generator constraints.
func (r GenerateScheduleRequest) Constraints() schedule.Constraints {
	return schedule.Constraints{
		MaxGamesPerWeek:      r.MaxGamesPerWeek,
		AllowDoubleheaders:   r.AllowDoubleheaders,
		PreferredDays:        r.PreferredDays,
		BalanceHomeAway:      r.BalanceHomeAway,
		ExternalOfferPerWeek: r.ExternalOfferPerWeek,
		Rounds:               r.Rounds,
	}
}

// ScheduleReport is the generator output plus the validator's findings.
type ScheduleReport struct {
	Result *schedule.Result `json:"result"`
	Issues []schedule.Issue `json:"issues"`
	// Applied is true when the run persisted its assignments.
	Applied bool `json:"applied"`
}
