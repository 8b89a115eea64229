// Package submission holds the lifecycle of a single form submission as one
// explicit state value, so combinations such as "submitting and succeeded"
// cannot be represented.
package submission

import (
	"errors"
	"sync"
)

var (
	// ErrBusy is returned by Begin while a submission is already in flight.
	ErrBusy = errors.New("submission already in progress")
	// ErrNotSubmitting is returned when an outcome is reported for a machine
	// that is not submitting.
	ErrNotSubmitting = errors.New("no submission in progress")
)

// State is the phase of a form submission.
type State int

const (
	// Idle means nothing is in flight and no outcome is displayed.
	Idle State = iota
	// Submitting means a request has been dispatched and not yet answered.
	Submitting
	// Succeeded means the last request completed successfully.
	Succeeded
	// Failed means the last request was rejected or could not be sent.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the machine. Message is set only for Succeeded and
// Failed.
type Status struct {
	State   State
	Message string
}

// Machine is a mutex-guarded submission state machine. The zero value is an
// idle machine ready for use.
type Machine struct {
	mu     sync.Mutex
	status Status
}

// Begin moves the machine into Submitting and clears any previous message.
// It is the re-entrancy guard: a second caller gets ErrBusy.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.State == Submitting {
		return ErrBusy
	}
	m.status = Status{State: Submitting}
	return nil
}

// Succeed completes the in-flight submission.
func (m *Machine) Succeed(message string) error {
	return m.finish(Succeeded, message)
}

// Fail completes the in-flight submission with an error message.
func (m *Machine) Fail(message string) error {
	return m.finish(Failed, message)
}

func (m *Machine) finish(state State, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.State != Submitting {
		return ErrNotSubmitting
	}
	m.status = Status{State: state, Message: message}
	return nil
}

// Touch records a field edit. A displayed outcome is dismissed and the
// machine returns to Idle; an in-flight submission is left alone.
func (m *Machine) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.State == Succeeded || m.status.State == Failed {
		m.status = Status{State: Idle}
	}
}

// Status returns the current snapshot.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Busy reports whether a submission is in flight.
func (m *Machine) Busy() bool {
	return m.Status().State == Submitting
}
