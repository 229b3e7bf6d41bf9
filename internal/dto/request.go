package dto

// CreateRequestRequest is a coach's bid to claim a slot for their team.
type CreateRequestRequest struct {
	SlotID string `json:"slotId" binding:"required"`
	TeamID string `json:"teamId" binding:"required"`
	Note   string `json:"note,omitempty"`
}

// DecideRequestRequest carries the optional admin note on approve/reject.
type DecideRequestRequest struct {
	Note string `json:"note,omitempty"`
}
