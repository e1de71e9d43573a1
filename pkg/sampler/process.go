//go:build linux

package sampler

import (
	"errors"
	"log/slog"
	"os/user"
	"sort"
	"strconv"

	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/system/util"
)

// LookupFunc resolves a uid to a user name.
type LookupFunc func(uid uint32) (string, error)

// Sampler turns successive raw process snapshots into ProcessRecords with
// delta-based CPU percentages. It is not safe for concurrent use.
type Sampler struct {
	src    proc.Source
	log    *slog.Logger
	lookup LookupFunc

	// previous aggregate ticks of /proc/stat; zero until the first pass
	totalPrev uint64
	havePrev  bool

	// pid -> utime+stime at the previous pass
	cpuPrev map[int]uint64
	users   map[uint32]string
}

type Option func(*Sampler)

// WithLogger sets the logger used for skipped records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithUserLookup replaces the os/user based uid resolver.
func WithUserLookup(fn LookupFunc) Option {
	return func(s *Sampler) {
		if fn != nil {
			s.lookup = fn
		}
	}
}

// New returns a Sampler reading from src.
func New(src proc.Source, opts ...Option) *Sampler {
	s := &Sampler{
		src:     src,
		log:     slog.Default(),
		lookup:  lookupUser,
		cpuPrev: make(map[int]uint64),
		users:   make(map[uint32]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample reads every live process and returns the records sorted by CPU
// percentage descending, ties by pid ascending. It never fails: an unreadable
// root yields an empty list, vanished or malformed processes are skipped.
func (s *Sampler) Sample() []ProcessRecord {
	var dTotal uint64
	if ct, err := s.src.ReadCPUTimes(); err != nil {
		// no baseline: the next pass must not span two intervals
		s.log.Debug("sampler: read cpu times", "err", err)
		s.havePrev = false
	} else {
		total := ct.Total()
		if s.havePrev && total > s.totalPrev {
			dTotal = total - s.totalPrev
		}
		s.totalPrev, s.havePrev = total, true
	}

	pids, err := s.src.ListPIDs()
	if err != nil {
		s.log.Debug("sampler: list pids", "err", err)
		s.prune(nil)
		return []ProcessRecord{}
	}

	cores := float64(s.src.NumCPU())
	if cores < 1 {
		cores = 1
	}
	maxPct := 100 * cores

	out := make([]ProcessRecord, 0, len(pids))
	for _, pid := range pids {
		raw, err := s.src.ReadProcess(pid)
		if err != nil {
			if !errors.Is(err, proc.ErrNotFound) {
				s.log.Debug("sampler: skip process", "pid", pid, "err", err)
			}
			continue
		}

		ticks := raw.Ticks()
		var pct float64
		if prev, ok := s.cpuPrev[pid]; ok && dTotal > 0 && ticks > prev {
			pct = 100 * util.SafeDiv(float64(ticks-prev), float64(dTotal)) * cores
			pct = util.Clamp(pct, 0, maxPct)
		}
		s.cpuPrev[pid] = ticks

		out = append(out, ProcessRecord{
			PID:        pid,
			PPID:       raw.PPID,
			Name:       proc.DisplayName(raw.Comm, raw.Cmdline),
			User:       s.userName(raw.UID),
			RSSMiB:     raw.RSS.MiB(),
			CPUPercent: pct,
		})
	}
	s.prune(out)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CPUPercent != out[j].CPUPercent {
			return out[i].CPUPercent > out[j].CPUPercent
		}
		return out[i].PID < out[j].PID
	})
	return out
}

// history returns a copy of the per-pid tick history.
func (s *Sampler) history() map[int]uint64 {
	h := make(map[int]uint64, len(s.cpuPrev))
	for pid, t := range s.cpuPrev {
		h[pid] = t
	}
	return h
}

// prune keeps history entries only for pids present in recs.
func (s *Sampler) prune(recs []ProcessRecord) {
	keep := make(map[int]struct{}, len(recs))
	for _, r := range recs {
		keep[r.PID] = struct{}{}
	}
	for pid := range s.cpuPrev {
		if _, ok := keep[pid]; !ok {
			delete(s.cpuPrev, pid)
		}
	}
}

func (s *Sampler) userName(uid uint32) string {
	if name, ok := s.users[uid]; ok {
		return name
	}
	name, err := s.lookup(uid)
	if err != nil || name == "" {
		name = strconv.FormatUint(uint64(uid), 10)
	}
	s.users[uid] = name
	return name
}

func lookupUser(uid uint32) (string, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
