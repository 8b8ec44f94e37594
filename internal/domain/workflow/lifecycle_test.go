package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

func TestApprovalLifecycleFromPending(t *testing.T) {
	machine, err := NewApprovalLifecycle(entity.StatusPending)
	require.NoError(t, err)

	assert.True(t, machine.CanFire(TriggerApprove))
	assert.True(t, machine.CanFire(TriggerReject))

	require.NoError(t, machine.Fire(context.Background(), TriggerApprove))
	assert.Equal(t, StateApproved, machine.State())
}

func TestApprovalLifecycleTerminalStatesRefuseTriggers(t *testing.T) {
	for _, status := range []entity.ApprovalStatus{
		entity.StatusApproved,
		entity.StatusRejected,
		entity.StatusPaid,
	} {
		machine, err := NewApprovalLifecycle(status)
		require.NoError(t, err, "status %s", status)

		assert.False(t, machine.CanFire(TriggerApprove), "approve from %s", status)
		assert.False(t, machine.CanFire(TriggerReject), "reject from %s", status)
		assert.ErrorIs(t, machine.Fire(context.Background(), TriggerReject), ErrInvalidTransition)
	}
}

func TestApprovalLifecycleRejectsUnknownStatus(t *testing.T) {
	_, err := NewApprovalLifecycle(entity.ApprovalStatus("DRAFT"))
	assert.ErrorIs(t, err, ErrInvalidState)
}
