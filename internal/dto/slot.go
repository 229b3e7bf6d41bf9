// Package dto defines the request and response payloads of the HTTP API.
// Binding tags drive gin's validator; cross-field rules live in the services.
package dto

import "github.com/fieldtime/scheduler-api/internal/models"

// CreateSlotRequest creates one slot manually, either as an admin or as a
// coach offering their team's time.
type CreateSlotRequest struct {
	Division string          `json:"division" binding:"required"`
	FieldKey string          `json:"fieldKey" binding:"required"`
	GameDate string          `json:"gameDate" binding:"required"`
	StartMin int             `json:"startMin" binding:"min=0,max=1439"`
	EndMin   int             `json:"endMin" binding:"required,min=1,max=1440"`
	GameType models.GameType `json:"gameType,omitempty"`
	// OfferingTeamID marks the slot as a coach offer; the offering team
	// hosts when the slot is confirmed.
	OfferingTeamID string `json:"offeringTeamId,omitempty"`
}

// UpdateSlotRequest moves or resizes a slot. ExpectedVersion guards against
// concurrent edits; zero skips the check.
type UpdateSlotRequest struct {
	FieldKey        string `json:"fieldKey" binding:"required"`
	GameDate        string `json:"gameDate" binding:"required"`
	StartMin        int    `json:"startMin" binding:"min=0,max=1439"`
	EndMin          int    `json:"endMin" binding:"required,min=1,max=1440"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

// ListSlotsQuery narrows GET /slots.
type ListSlotsQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	FieldKey string `form:"fieldKey"`
	Division string `form:"division"`
	Status   string `form:"status"`
}
