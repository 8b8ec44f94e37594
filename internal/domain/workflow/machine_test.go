package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPermitsConfiguredTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Permit(StatePending, TriggerApprove, StateApproved)

	machine, err := builder.Build(StatePending)
	require.NoError(t, err)

	assert.True(t, machine.CanFire(TriggerApprove))
	assert.False(t, machine.CanFire(TriggerReject))

	require.NoError(t, machine.Fire(context.Background(), TriggerApprove))
	assert.Equal(t, StateApproved, machine.State())
}

func TestFireRejectsUnconfiguredTrigger(t *testing.T) {
	builder := NewBuilder()
	builder.Permit(StatePending, TriggerApprove, StateApproved)

	machine, err := builder.Build(StateApproved)
	require.NoError(t, err)

	err = machine.Fire(context.Background(), TriggerApprove)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateApproved, machine.State())
}

func TestGuardBlocksTransition(t *testing.T) {
	allowed := false
	builder := NewBuilder()
	builder.PermitIf(StatePending, TriggerApprove, StateApproved, func(ctx context.Context) bool {
		return allowed
	})

	machine, err := builder.Build(StatePending)
	require.NoError(t, err)

	err = machine.Fire(context.Background(), TriggerApprove)
	assert.ErrorIs(t, err, ErrGuardFailed)
	assert.Equal(t, StatePending, machine.State())

	allowed = true
	require.NoError(t, machine.Fire(context.Background(), TriggerApprove))
	assert.Equal(t, StateApproved, machine.State())
}

func TestBuildRejectsInvalidInitialState(t *testing.T) {
	_, err := NewBuilder().Build(State("DRAFT"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Permit(StatePending, TriggerApprove, StateApproved)
	builder.Permit(StatePending, TriggerReject, StateRejected)

	machine, err := builder.Build(StatePending)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Trigger{TriggerApprove, TriggerReject}, machine.PermittedTriggers())

	require.NoError(t, machine.Fire(context.Background(), TriggerReject))
	assert.Empty(t, machine.PermittedTriggers())
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.True(t, StateApproved.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())
	assert.True(t, StatePaid.IsTerminal())
}
