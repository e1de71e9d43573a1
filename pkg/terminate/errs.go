package terminate

import (
	"errors"
	"fmt"
)

var (
	// ErrProtectedPID rejects targets <= 1.
	ErrProtectedPID = errors.New("terminate: refusing to signal pid <= 1")

	// ErrSelfTarget rejects a single-process request aimed at this process.
	ErrSelfTarget = errors.New("terminate: refusing to signal own process")

	// ErrPermissionDenied marks an EPERM during direct delivery.
	ErrPermissionDenied = errors.New("terminate: permission denied")

	// ErrEscalationFailed marks a non-zero helper or broker exit.
	ErrEscalationFailed = errors.New("terminate: escalation failed")

	// ErrNoEscalator is returned when escalation is requested but none is configured.
	ErrNoEscalator = errors.New("terminate: no escalator configured")

	ErrBadSignal = errors.New("terminate: unknown signal")
)

// DeliveryError is a failed kill(2) for one pid.
type DeliveryError struct {
	PID    int
	Signal Signal
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("terminate: SIG%s to pid %d: %v", e.Signal, e.PID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
