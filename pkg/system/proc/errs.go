package proc

import "errors"

var (
	// ErrNotFound indicates that the process vanished between listing and
	// reading. Callers treat it as expected churn, not a failure.
	ErrNotFound = errors.New("proc: no such process")

	// ErrNoStat indicates that /proc/<pid>/stat was empty or malformed.
	ErrNoStat = errors.New("proc: malformed or empty stat")

	// ErrShortStat indicates that /proc/<pid>/stat had fewer fields than expected.
	ErrShortStat = errors.New("proc: short stat")

	// ErrNoCPU indicates that /proc/stat had no aggregate CPU line.
	ErrNoCPU = errors.New("proc: no cpu line")

	// ErrNoMemInfo indicates that /proc/meminfo lacked MemTotal.
	ErrNoMemInfo = errors.New("proc: no meminfo")
)
