package terminate

import "golang.org/x/sys/unix"

// Signaler delivers a signal to one pid. Implementations return the raw
// errno so callers can tell ESRCH and EPERM apart.
type Signaler interface {
	Kill(pid int, sig unix.Signal) error
}

// UnixSignaler calls kill(2).
type UnixSignaler struct{}

func (UnixSignaler) Kill(pid int, sig unix.Signal) error { return unix.Kill(pid, sig) }

// Probe sends the zero signal to check that pid exists. It returns
// unix.ESRCH when it does not.
func Probe(s Signaler, pid int) error { return s.Kill(pid, unix.Signal(0)) }
