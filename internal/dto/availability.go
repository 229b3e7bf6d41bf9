package dto

// CreateRuleRequest creates a recurring availability rule.
type CreateRuleRequest struct {
	Division   string `json:"division" binding:"required"`
	FieldKey   string `json:"fieldKey" binding:"required"`
	StartsOn   string `json:"startsOn" binding:"required"`
	EndsOn     string `json:"endsOn" binding:"required"`
	DaysOfWeek []int  `json:"daysOfWeek" binding:"required,min=1,dive,min=0,max=6"`
	StartMin   int    `json:"startMin" binding:"min=0,max=1439"`
	EndMin     int    `json:"endMin" binding:"required,min=1,max=1440"`
}

// CreateExceptionRequest carves a time range out of a rule's occurrences.
type CreateExceptionRequest struct {
	RuleID   string `json:"ruleId" binding:"required"`
	DateFrom string `json:"dateFrom" binding:"required"`
	DateTo   string `json:"dateTo,omitempty"`
	StartMin int    `json:"startMin" binding:"min=0,max=1439"`
	EndMin   int    `json:"endMin" binding:"required,min=1,max=1440"`
	Reason   string `json:"reason,omitempty"`
}

// ExpandRequest expands the league's rules over a window. DryRun returns the
// drafts without persisting them.
type ExpandRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	DryRun bool   `json:"dryRun,omitempty"`
}

// ExpandResponse reports what an expansion produced and, unless dry-run, how
// many drafts were persisted versus skipped as overlapping.
type ExpandResponse struct {
	Drafts    interface{} `json:"drafts"`
	Total     int         `json:"total"`
	Persisted int         `json:"persisted"`
	Skipped   int         `json:"skipped"`
	DryRun    bool        `json:"dryRun"`
}
