//go:build linux

package proc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/ja7ad/frogkill/pkg/system/util"
	"github.com/ja7ad/frogkill/pkg/types"
)

// DefaultRoot is the mount point of the kernel introspection filesystem.
const DefaultRoot = "/proc"

// FS is a Source backed by a procfs mount. The root is configurable so
// tests can point it at a fixture tree.
type FS struct {
	root string
	ncpu int
}

type Option func(*FS)

// WithNumCPU pins the reported core count instead of querying the host.
func WithNumCPU(n int) Option {
	return func(f *FS) { f.ncpu = n }
}

// NewFS returns a Source rooted at root; an empty root means DefaultRoot.
func NewFS(root string, opts ...Option) *FS {
	if root == "" {
		root = DefaultRoot
	}
	f := &FS{root: root}
	for _, opt := range opts {
		opt(f)
	}
	if f.ncpu <= 0 {
		f.ncpu = util.CPUCount()
	}
	return f
}

func (f *FS) NumCPU() int { return f.ncpu }

// ListPIDs returns the numeric entries of the proc root. Order follows the
// directory listing and carries no meaning.
func (f *FS) ListPIDs() ([]int, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("proc: list %s: %w", f.root, err)
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !isDigits(e.Name()) {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// ReadProcess reads stat, status and cmdline of one pid. A process that
// disappeared mid-read yields an error wrapping ErrNotFound.
func (f *FS) ReadProcess(pid int) (RawProcess, error) {
	dir := filepath.Join(f.root, strconv.Itoa(pid))

	statData, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return RawProcess{}, readErr(pid, "stat", err)
	}
	p, err := parseStat(string(statData))
	if err != nil {
		return RawProcess{}, fmt.Errorf("pid %d: %w", pid, err)
	}
	p.PID = pid

	uidKnown := false
	if statusData, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
		p.RSS, p.UID, uidKnown = parseStatus(statusData)
	} else if isGone(err) {
		return RawProcess{}, readErr(pid, "status", err)
	}
	if !uidKnown {
		// status unreadable: the directory owner is the process's uid
		info, err := os.Stat(dir)
		if err != nil {
			return RawProcess{}, readErr(pid, "dir", err)
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			p.UID = st.Uid
		}
	}

	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		p.Cmdline = cmdline
	}
	return p, nil
}

// ReadCPUTimes parses the aggregate "cpu" line of /proc/stat.
func (f *FS) ReadCPUTimes() (CPUTimes, error) {
	fh, err := os.Open(filepath.Join(f.root, "stat"))
	if err != nil {
		return CPUTimes{}, fmt.Errorf("proc: open stat: %w", err)
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		cols := strings.Fields(sc.Text())
		if len(cols) == 0 || cols[0] != "cpu" {
			continue
		}
		return parseCPULine(cols[1:])
	}
	if err := sc.Err(); err != nil {
		return CPUTimes{}, fmt.Errorf("proc: scan stat: %w", err)
	}
	return CPUTimes{}, ErrNoCPU
}

// ReadMemInfo parses MemTotal, MemAvailable, SwapTotal and SwapFree.
// Kernels without MemAvailable get MemFree+Buffers+Cached instead.
func (f *FS) ReadMemInfo() (MemInfo, error) {
	fh, err := os.Open(filepath.Join(f.root, "meminfo"))
	if err != nil {
		return MemInfo{}, fmt.Errorf("proc: open meminfo: %w", err)
	}
	defer fh.Close()

	var (
		mi                   MemInfo
		haveTotal, haveAvail bool
		free, buffers, cache uint64
	)
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		key, kib, ok := parseMemLine(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "MemTotal":
			mi.MemTotal, haveTotal = types.FromKiB(kib), true
		case "MemAvailable":
			mi.MemAvailable, haveAvail = types.FromKiB(kib), true
		case "MemFree":
			free = kib
		case "Buffers":
			buffers = kib
		case "Cached":
			cache = kib
		case "SwapTotal":
			mi.SwapTotal = types.FromKiB(kib)
		case "SwapFree":
			mi.SwapFree = types.FromKiB(kib)
		}
	}
	if err := sc.Err(); err != nil {
		return MemInfo{}, fmt.Errorf("proc: scan meminfo: %w", err)
	}
	if !haveTotal {
		return MemInfo{}, ErrNoMemInfo
	}
	if !haveAvail {
		mi.MemAvailable = types.FromKiB(free + buffers + cache)
	}
	return mi, nil
}

func readErr(pid int, what string, err error) error {
	if isGone(err) {
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	return fmt.Errorf("proc: read %s of pid %d: %w", what, pid, err)
}

// isGone reports whether err means the process no longer exists. Reading
// files of a reaped process can fail with ESRCH rather than ENOENT.
func isGone(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ESRCH)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseStat extracts comm, ppid, utime and stime from a /proc/<pid>/stat line.
// comm sits in parens and may itself contain spaces and parens, so the
// numeric fields start after the last ") ".
func parseStat(line string) (RawProcess, error) {
	line = strings.TrimRight(line, "\n")
	open := strings.IndexByte(line, '(')
	end := strings.LastIndex(line, ") ")
	if open < 0 || end < 0 || end < open {
		return RawProcess{}, ErrNoStat
	}
	p := RawProcess{Comm: line[open+1 : end], PPID: -1}

	// fields[0] is state (3rd overall), ppid 4th, utime 14th, stime 15th
	fields := strings.Fields(line[end+2:])
	if len(fields) < 13 {
		return RawProcess{}, ErrShortStat
	}
	if ppid, err := strconv.Atoi(fields[1]); err == nil && ppid >= 0 {
		p.PPID = ppid
	}
	var err error
	if p.UTime, err = strconv.ParseUint(fields[11], 10, 64); err != nil {
		return RawProcess{}, fmt.Errorf("%w: utime %q", ErrNoStat, fields[11])
	}
	if p.STime, err = strconv.ParseUint(fields[12], 10, 64); err != nil {
		return RawProcess{}, fmt.Errorf("%w: stime %q", ErrNoStat, fields[12])
	}
	return p, nil
}

// parseStatus returns VmRSS and the real uid. Kernel threads have no VmRSS.
func parseStatus(data []byte) (rss types.Bytes, uid uint32, uidOK bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "VmRSS:"):
			if cols := strings.Fields(line); len(cols) >= 2 {
				if kib, err := strconv.ParseUint(cols[1], 10, 64); err == nil {
					rss = types.FromKiB(kib)
				}
			}
		case strings.HasPrefix(line, "Uid:"):
			if cols := strings.Fields(line); len(cols) >= 2 {
				if v, err := strconv.ParseUint(cols[1], 10, 32); err == nil {
					uid, uidOK = uint32(v), true
				}
			}
		}
	}
	return rss, uid, uidOK
}

func parseCPULine(fields []string) (CPUTimes, error) {
	if len(fields) < 4 {
		return CPUTimes{}, ErrNoCPU
	}
	vals := make([]uint64, 10)
	for i := 0; i < len(fields) && i < len(vals); i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return CPUTimes{}, fmt.Errorf("%w: field %d %q", ErrNoCPU, i+1, fields[i])
		}
		vals[i] = v
	}
	return CPUTimes{
		User: vals[0], Nice: vals[1], System: vals[2], Idle: vals[3],
		IOWait: vals[4], IRQ: vals[5], SoftIRQ: vals[6], Steal: vals[7],
		Guest: vals[8], GuestNice: vals[9],
	}, nil
}

// parseMemLine splits "MemTotal:       16318412 kB".
func parseMemLine(line string) (key string, kib uint64, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", 0, false
	}
	cols := strings.Fields(line[i+1:])
	if len(cols) == 0 {
		return "", 0, false
	}
	v, err := strconv.ParseUint(cols[0], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return line[:i], v, true
}
