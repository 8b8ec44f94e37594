package entity

import "time"

// ActionType enumerates locally recorded workflow actions.
type ActionType string

const (
	ActionSubmitted ActionType = "SUBMITTED"
	ActionApproved  ActionType = "APPROVED"
	ActionRejected  ActionType = "REJECTED"
	ActionDeleted   ActionType = "DELETED"
)

// ActionHistory is one row of the local audit trail. It exists for
// operators; the backend remains the system of record.
type ActionHistory struct {
	ID        int64      `json:"id"`
	MasterID  int64      `json:"masterId"`
	Action    ActionType `json:"action"`
	ActorID   int64      `json:"actorId"`
	ActorName string     `json:"actorName"`
	Detail    string     `json:"detail"`
	CreatedAt time.Time  `json:"createdAt"`
}
