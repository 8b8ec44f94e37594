package workflow

import "github.com/harborline/freightdesk/internal/domain/entity"

// NewApprovalLifecycle builds the fund request state machine positioned at
// the master's current status. APPROVE and REJECT are permitted only from
// PENDING; APPROVED, REJECTED and PAID are terminal here (PAID is reached
// only through the external payment process).
func NewApprovalLifecycle(status entity.ApprovalStatus) (StateMachine, error) {
	builder := NewBuilder()
	builder.Permit(StatePending, TriggerApprove, StateApproved)
	builder.Permit(StatePending, TriggerReject, StateRejected)
	return builder.Build(State(status))
}
