// Package proc reads raw process and system counters from a Linux procfs
// mount for a single point in time. It keeps no history and computes no
// deltas; that is the job of pkg/sampler.
//
// Overview
//
//   - Source interface:
//     ListPIDs() ([]int, error)
//     ReadProcess(pid int) (RawProcess, error)
//     ReadCPUTimes() (CPUTimes, error)
//     ReadMemInfo() (MemInfo, error)
//     NumCPU() int
//
//   - FS is the procfs-backed Source. NewFS("") reads /proc; tests pass a
//     temporary directory laid out like /proc.
//
//   - Files read per process:
//     /proc/<pid>/stat     : comm, ppid, utime, stime
//     /proc/<pid>/status   : VmRSS (kB), real uid
//     /proc/<pid>/cmdline  : NUL-separated argv, empty for kernel threads
//
//   - Files read system-wide:
//     /proc/stat           : aggregate "cpu" line
//     /proc/meminfo        : MemTotal, MemAvailable, SwapTotal, SwapFree
//
// Errors (errs.go)
//
//	ErrNotFound  : the pid vanished between ListPIDs and ReadProcess
//	ErrNoStat    : stat empty or malformed
//	ErrShortStat : stat has fewer fields than expected
//	ErrNoCPU     : /proc/stat lacks the aggregate cpu line
//	ErrNoMemInfo : /proc/meminfo lacks MemTotal
//
// Processes appear and disappear continuously, so ErrNotFound is the normal
// outcome of a race, not a failure. Callers skip the pid and move on. Any
// other per-process error also only skips that pid.
//
// Example: one pass over all processes
//
//	/*
//	src := proc.NewFS("")
//	pids, err := src.ListPIDs()
//	if err != nil { log.Fatal(err) }
//	for _, pid := range pids {
//	    p, err := src.ReadProcess(pid)
//	    if err != nil {
//	        continue // vanished or malformed
//	    }
//	    fmt.Println(p.PID, p.PPID, proc.DisplayName(p.Comm, p.Cmdline))
//	}
//	*/
//
// Package import path: github.com/ja7ad/frogkill/pkg/system/proc
package proc
