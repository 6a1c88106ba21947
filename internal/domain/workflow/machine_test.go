package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StatePending, StateApproved, StateWaitingVerification, StateCompleted} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.True(t, StateRejected.IsTerminal())
}

func TestState_IsValid(t *testing.T) {
	assert.True(t, StatePending.IsValid())
	assert.True(t, StateWaitingVerification.IsValid())
	assert.False(t, State("PENDING").IsValid())
	assert.False(t, State("").IsValid())
}

func TestRequestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		trigger Trigger
		want    State
		wantErr error
	}{
		{"approve pending", "pending", TriggerApprove, StateApproved, nil},
		{"reject pending", "pending", TriggerReject, StateRejected, nil},
		{"submit expense on approved", "approved", TriggerSubmitExpense, StateWaitingVerification, nil},
		{"resubmit expense", "waiting_verification", TriggerSubmitExpense, StateWaitingVerification, nil},
		{"send back for revision", "waiting_verification", TriggerRejectExpense, StateApproved, nil},
		{"complete", "waiting_verification", TriggerComplete, StateCompleted, nil},
		{"revert complete", "completed", TriggerRevertComplete, StateWaitingVerification, nil},
		{"approve twice", "approved", TriggerApprove, StateApproved, ErrInvalidTransition},
		{"reject approved", "approved", TriggerReject, StateApproved, ErrInvalidTransition},
		{"complete approved", "approved", TriggerComplete, StateApproved, ErrInvalidTransition},
		{"revert waiting", "waiting_verification", TriggerRevertComplete, StateWaitingVerification, ErrInvalidTransition},
		{"anything from rejected", "rejected", TriggerApprove, StateRejected, ErrInvalidTransition},
		{"unknown status", "archived", TriggerApprove, State("archived"), ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.trigger)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, State(tt.from), te.From)
			assert.Equal(t, tt.trigger, te.Trigger)
		})
	}
}

func TestMachine_FireKeepsStateOnError(t *testing.T) {
	m := NewRequestMachine("pending")

	require.Error(t, m.Fire(TriggerComplete))
	assert.Equal(t, StatePending, m.State())

	require.NoError(t, m.Fire(TriggerApprove))
	assert.Equal(t, StateApproved, m.State())
	assert.True(t, m.CanFire(TriggerSubmitExpense))
	assert.False(t, m.CanFire(TriggerApprove))
}

func TestRequestLifecycle_PermittedTriggers(t *testing.T) {
	assert.Equal(t,
		[]Trigger{TriggerComplete, TriggerRejectExpense, TriggerSubmitExpense},
		NewRequestMachine("waiting_verification").PermittedTriggers())
	assert.Empty(t, NewRequestMachine("rejected").PermittedTriggers())
	assert.Empty(t, NewRequestMachine("archived").PermittedTriggers())
}

func TestTable_Allow(t *testing.T) {
	table := Table{}.
		Allow(StatePending, TriggerApprove, StateApproved).
		Allow(StatePending, TriggerApprove, StateRejected)

	assert.Equal(t, StateRejected, table[StatePending][TriggerApprove], "later Allow overrides")
	assert.Len(t, table[StatePending], 1)
}

func TestRequestLifecycle_SourceStates(t *testing.T) {
	sources := make([]State, 0, len(RequestLifecycle))
	for from := range RequestLifecycle {
		sources = append(sources, from)
	}

	assert.ElementsMatch(t,
		[]State{StatePending, StateApproved, StateWaitingVerification, StateCompleted},
		sources)
	assert.NotContains(t, RequestLifecycle, StateRejected)
}
