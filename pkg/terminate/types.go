package terminate

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Signal is the termination signal requested by the user.
type Signal int

const (
	SignalTerm Signal = iota
	SignalKill
)

// String returns the symbolic name used on the helper command line.
func (s Signal) String() string {
	switch s {
	case SignalTerm:
		return "TERM"
	case SignalKill:
		return "KILL"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// Unix returns the kernel signal number.
func (s Signal) Unix() unix.Signal {
	if s == SignalKill {
		return unix.SIGKILL
	}
	return unix.SIGTERM
}

// ParseSignal accepts exactly the names String produces, TERM and KILL.
func ParseSignal(s string) (Signal, error) {
	switch s {
	case "TERM":
		return SignalTerm, nil
	case "KILL":
		return SignalKill, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadSignal, s)
}

// Scope selects the target alone or the target with all its descendants.
type Scope int

const (
	ScopeSingle Scope = iota
	ScopeTree
)

func (s Scope) String() string {
	if s == ScopeTree {
		return "tree"
	}
	return "single"
}

// State is a step of the termination protocol.
type State int

const (
	StateRequested State = iota
	StateDirectAttempt
	StateSucceeded
	StatePermissionDenied
	StateEscalationOffered
	StateEscalationAccepted
	StateEscalationRunning
	StateEscalationSucceeded
	StateEscalationFailed
	StateEscalationDeclined
	StateFailed
)

var stateNames = [...]string{
	StateRequested:           "Requested",
	StateDirectAttempt:       "DirectAttempt",
	StateSucceeded:           "Succeeded",
	StatePermissionDenied:    "PermissionDenied",
	StateEscalationOffered:   "EscalationOffered",
	StateEscalationAccepted:  "EscalationAccepted",
	StateEscalationRunning:   "EscalationRunning",
	StateEscalationSucceeded: "EscalationSucceeded",
	StateEscalationFailed:    "EscalationFailed",
	StateEscalationDeclined:  "EscalationDeclined",
	StateFailed:              "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Request is what the user asked for.
type Request struct {
	Target int
	Signal Signal
	Scope  Scope
}

// Plan is a Request resolved against one snapshot. Order lists the pids in
// delivery order; for ScopeTree every child precedes its parent.
type Plan struct {
	Request
	Order []int
	Count int
}

// Outcome is the result of running (part of) the protocol for a Plan.
type Outcome struct {
	State State
	Trail []State
	Plan  Plan

	// Delivered holds pids that were signalled or were already gone.
	Delivered []int
	// FailedPID is the pid the walk stopped at, 0 if none.
	FailedPID int
	Err       error

	// Set after escalation ran.
	ExitCode int
	Output   string
}

// Success reports whether the requested scope was handled.
func (o Outcome) Success() bool {
	return o.State == StateSucceeded || o.State == StateEscalationSucceeded
}

func (o *Outcome) advance(s State) {
	o.State = s
	o.Trail = append(o.Trail, s)
}
