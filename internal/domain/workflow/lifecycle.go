package workflow

// Table maps a status and trigger to the status it leads to
type Table map[State]map[Trigger]State

// Allow registers from --trigger--> to and returns the table for chaining
func (t Table) Allow(from State, trigger Trigger, to State) Table {
	if t[from] == nil {
		t[from] = make(map[Trigger]State)
	}
	t[from][trigger] = to
	return t
}

// RequestLifecycle is the budget request lifecycle. It is read-only after init.
var RequestLifecycle = Table{}.
	Allow(StatePending, TriggerApprove, StateApproved).
	Allow(StatePending, TriggerReject, StateRejected).
	Allow(StateApproved, TriggerSubmitExpense, StateWaitingVerification).
	Allow(StateWaitingVerification, TriggerSubmitExpense, StateWaitingVerification).
	Allow(StateWaitingVerification, TriggerRejectExpense, StateApproved).
	Allow(StateWaitingVerification, TriggerComplete, StateCompleted).
	Allow(StateCompleted, TriggerRevertComplete, StateWaitingVerification)

// NewRequestMachine returns a lifecycle machine positioned at status.
// An unknown status yields a machine that permits nothing.
func NewRequestMachine(status string) *Machine {
	return &Machine{state: State(status), table: RequestLifecycle}
}

// Next fires trigger against status and returns the resulting state.
func Next(status string, trigger Trigger) (State, error) {
	m := NewRequestMachine(status)
	if err := m.Fire(trigger); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}
