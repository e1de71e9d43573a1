// Package proctest builds fake procfs trees for tests.
package proctest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Process describes the fields a fixture writes for one pid.
type Process struct {
	PID     int
	PPID    int
	Comm    string
	UTime   uint64
	STime   uint64
	RSSKiB  uint64
	UID     uint32
	Cmdline []string // joined with NUL, like the kernel does
}

// Tree is a directory laid out like /proc.
type Tree struct {
	t    testing.TB
	Root string
}

// New creates an empty tree under t.TempDir() with an idle /proc/stat and a
// small /proc/meminfo.
func New(t testing.TB) *Tree {
	t.Helper()
	tr := &Tree{t: t, Root: t.TempDir()}
	tr.SetCPU(100, 0, 50, 1000, 10)
	tr.SetMemInfo(8*1024*1024, 4*1024*1024, 2*1024*1024, 2*1024*1024)
	return tr
}

// Add writes stat, status and cmdline for p, replacing any previous entry.
func (tr *Tree) Add(p Process) *Tree {
	tr.t.Helper()
	dir := filepath.Join(tr.Root, strconv.Itoa(p.PID))
	tr.mkdir(dir)

	comm := p.Comm
	if comm == "" {
		comm = fmt.Sprintf("proc%d", p.PID)
	}
	// pid (comm) state ppid pgrp session tty tpgid flags minflt cminflt majflt cmajflt utime stime ...
	stat := fmt.Sprintf("%d (%s) S %d %d %d 0 -1 4194304 100 0 0 0 %d %d 0 0 20 0 1 0 12345 1000000 200 18446744073709551615\n",
		p.PID, comm, p.PPID, p.PID, p.PID, p.UTime, p.STime)
	tr.write(filepath.Join(dir, "stat"), stat)

	status := fmt.Sprintf("Name:\t%s\nState:\tS (sleeping)\nPPid:\t%d\nUid:\t%d\t%d\t%d\t%d\n",
		comm, p.PPID, p.UID, p.UID, p.UID, p.UID)
	if p.RSSKiB > 0 {
		status += fmt.Sprintf("VmRSS:\t%8d kB\n", p.RSSKiB)
	}
	tr.write(filepath.Join(dir, "status"), status)

	var cmdline string
	if len(p.Cmdline) > 0 {
		cmdline = strings.Join(p.Cmdline, "\x00") + "\x00"
	}
	tr.write(filepath.Join(dir, "cmdline"), cmdline)
	return tr
}

// WriteFile overwrites a file of a pid directory verbatim, for malformed input.
func (tr *Tree) WriteFile(pid int, name, content string) *Tree {
	tr.t.Helper()
	dir := filepath.Join(tr.Root, strconv.Itoa(pid))
	tr.mkdir(dir)
	tr.write(filepath.Join(dir, name), content)
	return tr
}

// Remove deletes a pid, as if it exited.
func (tr *Tree) Remove(pid int) *Tree {
	tr.t.Helper()
	if err := os.RemoveAll(filepath.Join(tr.Root, strconv.Itoa(pid))); err != nil {
		tr.t.Fatalf("proctest: remove %d: %v", pid, err)
	}
	return tr
}

// SetCPU writes the aggregate cpu line of /proc/stat.
func (tr *Tree) SetCPU(user, nice, system, idle, iowait uint64) *Tree {
	tr.t.Helper()
	content := fmt.Sprintf("cpu  %d %d %d %d %d 0 0 0 0 0\ncpu0 %d %d %d %d %d 0 0 0 0 0\nctxt 1\n",
		user, nice, system, idle, iowait, user, nice, system, idle, iowait)
	tr.write(filepath.Join(tr.Root, "stat"), content)
	return tr
}

// SetMemInfo writes /proc/meminfo; values are in kB.
func (tr *Tree) SetMemInfo(totalKiB, availKiB, swapTotalKiB, swapFreeKiB uint64) *Tree {
	tr.t.Helper()
	content := fmt.Sprintf("MemTotal:       %d kB\nMemFree:        %d kB\nMemAvailable:   %d kB\nBuffers:        0 kB\nCached:         0 kB\nSwapTotal:      %d kB\nSwapFree:       %d kB\n",
		totalKiB, availKiB, availKiB, swapTotalKiB, swapFreeKiB)
	tr.write(filepath.Join(tr.Root, "meminfo"), content)
	return tr
}

func (tr *Tree) mkdir(dir string) {
	tr.t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tr.t.Fatalf("proctest: mkdir %s: %v", dir, err)
	}
}

func (tr *Tree) write(path, content string) {
	tr.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("proctest: write %s: %v", path, err)
	}
}
