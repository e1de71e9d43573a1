//go:build linux

package sampler

import (
	"log/slog"

	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/system/util"
)

// SystemSampler computes machine-wide CPU, memory and swap utilisation.
// CPU uses the same previous-counter delta technique as Sampler.
type SystemSampler struct {
	src proc.Source
	log *slog.Logger

	totalPrev uint64
	idlePrev  uint64
	havePrev  bool
}

// NewSystem returns a SystemSampler reading from src.
func NewSystem(src proc.Source, log *slog.Logger) *SystemSampler {
	if log == nil {
		log = slog.Default()
	}
	return &SystemSampler{src: src, log: log}
}

// Sample returns the current snapshot. CPU is 0 on the first call and
// whenever the total tick delta is not positive.
func (s *SystemSampler) Sample() SystemSnapshot {
	var snap SystemSnapshot

	if ct, err := s.src.ReadCPUTimes(); err != nil {
		s.log.Debug("sampler: read cpu times", "err", err)
	} else {
		total, idle := ct.Total(), ct.IdleAll()
		if s.havePrev {
			dt := util.DeltaU64(total, s.totalPrev)
			di := util.DeltaU64(idle, s.idlePrev)
			if dt > 0 {
				busy := util.DeltaU64(dt, di)
				snap.CPUPercent = util.Clamp(100*util.SafeDiv(float64(busy), float64(dt)), 0, 100)
			}
		}
		s.totalPrev, s.idlePrev, s.havePrev = total, idle, true
	}

	if mi, err := s.src.ReadMemInfo(); err != nil {
		s.log.Debug("sampler: read meminfo", "err", err)
	} else {
		snap.MemTotalMiB = mi.MemTotal.MiB()
		snap.MemUsedMiB = mi.MemTotal.Sub(mi.MemAvailable).MiB()
		snap.SwapTotalMiB = mi.SwapTotal.MiB()
		snap.SwapUsedMiB = mi.SwapTotal.Sub(mi.SwapFree).MiB()
	}
	return snap
}
