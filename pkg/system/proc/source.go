package proc

import "github.com/ja7ad/frogkill/pkg/types"

// RawProcess holds the counters read for one process at one instant.
// Nothing in it is derived or compared against an earlier read.
type RawProcess struct {
	PID  int
	PPID int // -1 when unparsed
	Comm string

	// Cumulative CPU time in clock ticks.
	UTime uint64
	STime uint64

	RSS     types.Bytes
	UID     uint32
	Cmdline []byte // NUL-separated, possibly empty
}

// Ticks returns user+system CPU ticks.
func (p RawProcess) Ticks() uint64 { return p.UTime + p.STime }

// CPUTimes is the aggregate "cpu" line of /proc/stat, in clock ticks.
type CPUTimes struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal uint64
	Guest, GuestNice                                      uint64
}

// Total returns all ticks spent by the machine. Guest time is already
// accounted inside User and Nice by the kernel, so it is not added again.
func (c CPUTimes) Total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait + c.IRQ + c.SoftIRQ + c.Steal
}

// IdleAll returns idle plus iowait ticks.
func (c CPUTimes) IdleAll() uint64 { return c.Idle + c.IOWait }

// MemInfo carries the /proc/meminfo fields the samplers need.
type MemInfo struct {
	MemTotal     types.Bytes
	MemAvailable types.Bytes
	SwapTotal    types.Bytes
	SwapFree     types.Bytes
}

// Source reads raw process and system counters for a single point in time.
type Source interface {
	ListPIDs() ([]int, error)
	ReadProcess(pid int) (RawProcess, error)
	ReadCPUTimes() (CPUTimes, error)
	ReadMemInfo() (MemInfo, error)
	NumCPU() int
}
