//go:build linux

package util

import (
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ja7ad/frogkill/pkg/types"
)

func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	// counter wrapped or reset
	return 0
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// Clamp limits x to [lo, hi]; NaN becomes lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// CPUCount returns the number of online logical cores.
func CPUCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// SystemSummary returns host name, kernel, core count and total memory for
// display headers. Fields that cannot be read are reported as "unknown".
func SystemSummary() (hostname, kernel, cpus, memory string) {
	hostname, kernel, memory = "unknown", "unknown", "unknown"
	if info, err := host.Info(); err == nil {
		hostname = info.Hostname
		kernel = fmt.Sprintf("%s %s", info.OS, info.KernelVersion)
	}
	cpus = strconv.Itoa(CPUCount())
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = types.Bytes(vm.Total).Humanized()
	}
	return hostname, kernel, cpus, memory
}
