package workflow

import "sort"

// Machine tracks the status of one budget request against a transition table
type Machine struct {
	state State
	table Table
}

// State returns the current status
func (m *Machine) State() State {
	return m.state
}

// CanFire reports whether trigger leaves the current status
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.table[m.state][trigger]
	return ok
}

// Fire moves the machine along trigger, leaving it untouched on error
func (m *Machine) Fire(trigger Trigger) error {
	if !m.state.IsValid() {
		return &TransitionError{From: m.state, Trigger: trigger, Err: ErrUnknownStatus}
	}
	to, ok := m.table[m.state][trigger]
	if !ok {
		return &TransitionError{From: m.state, Trigger: trigger, Err: ErrInvalidTransition}
	}
	m.state = to
	return nil
}

// PermittedTriggers lists the triggers allowed from the current status, sorted by name
func (m *Machine) PermittedTriggers() []Trigger {
	out := make([]Trigger, 0, len(m.table[m.state]))
	for trigger := range m.table[m.state] {
		out = append(out, trigger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
