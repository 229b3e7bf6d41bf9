package models

import "time"

// RequestStatus is the booking request lifecycle state. Rejected, Superseded
// and Withdrawn are terminal.
type RequestStatus string

const (
	RequestPending    RequestStatus = "Pending"
	RequestApproved   RequestStatus = "Approved"
	RequestRejected   RequestStatus = "Rejected"
	RequestSuperseded RequestStatus = "Superseded"
	RequestWithdrawn  RequestStatus = "Withdrawn"
)

// RequestKind distinguishes game requests from practice requests; practices
// follow the stricter approval gate.
type RequestKind string

const (
	RequestKindGame     RequestKind = "Game"
	RequestKindPractice RequestKind = "Practice"
)

// Request is a coach's claim on a slot, pending an admin decision.
type Request struct {
	RequestID   string        `json:"requestId"`
	LeagueID    string        `json:"leagueId"`
	SlotID      string        `json:"slotId"`
	TeamID      string        `json:"teamId"`
	Division    string        `json:"division"`
	Kind        RequestKind   `json:"kind"`
	Status      RequestStatus `json:"status"`
	RequestedBy string        `json:"requestedBy"`
	Note        string        `json:"note,omitempty"`
	DecidedBy   string        `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time    `json:"decidedAt,omitempty"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Terminal reports whether the request can no longer change state.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestSuperseded, RequestWithdrawn, RequestApproved:
		return true
	default:
		return false
	}
}
