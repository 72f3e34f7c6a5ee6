package agent

import (
	"errors"
	"time"
)

// State is the lifecycle state of an Agent.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Status is a point-in-time snapshot of an Agent.
type Status struct {
	State     State
	Cycles    int
	LastCycle time.Time
	LastError error

	// Processed is the current size of the processed set.
	Processed int
}

// Status returns a snapshot of the agent's state.
func (a *Agent) Status() Status {
	a.mu.Lock()
	st := a.status
	st.State = a.state
	a.mu.Unlock()

	st.Processed = a.ledger.Len()
	return st
}

// Ready reports an error unless the agent is running. It is suitable as a
// readiness check.
func (a *Agent) Ready() error {
	if a.Status().State != StateRunning {
		return errors.New("agent is not running")
	}
	return nil
}
