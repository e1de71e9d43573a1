//go:build linux

// Package helper implements frogkill-helper, the small executable run
// through the privilege broker. It trusts nothing from its caller beyond
// the pid, the signal and the tree flag: the pid is re-validated and, in
// tree mode, the descendant set is re-derived from its own read of /proc.
package helper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/frogkill/internal/logging"
	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/terminate"
	"github.com/ja7ad/frogkill/pkg/tree"
)

// Helper holds the collaborators of one invocation.
type Helper struct {
	Source   proc.Source
	Signaler terminate.Signaler
	Log      *slog.Logger
	Self     int
}

// New returns a Helper on the live /proc and kill(2), logging to stderr.
func New(stderr io.Writer) *Helper {
	return &Helper{
		Source:   proc.NewFS(""),
		Signaler: terminate.UnixSignaler{},
		Log:      logging.New("text", "info", stderr).With(logging.KeyComponent, "helper"),
		Self:     os.Getpid(),
	}
}

// Run validates pid, then signals it alone or its whole freshly derived
// tree, and returns the process exit code.
func (h *Helper) Run(pid int, sig terminate.Signal, withTree bool) int {
	if pid <= 1 {
		h.Log.Error("refusing to signal pid <= 1", "pid", pid)
		return terminate.ExitMissing
	}
	if err := terminate.Probe(h.Signaler, pid); errors.Is(err, unix.ESRCH) {
		h.Log.Error("pid does not exist", "pid", pid)
		return terminate.ExitMissing
	}

	engine := terminate.NewEngine(
		terminate.WithSignaler(h.Signaler),
		terminate.WithSelfPID(h.Self),
		terminate.WithLogger(h.Log),
	)
	req := terminate.Request{Target: pid, Signal: sig}
	var pairs []tree.Pair
	if withTree {
		req.Scope = terminate.ScopeTree
		var err error
		if pairs, err = h.pairs(); err != nil {
			h.Log.Error("read process table", "err", err)
			return terminate.ExitDeliveryFailed
		}
	}

	plan, err := engine.Plan(req, pairs)
	if err != nil {
		h.Log.Error("plan", "pid", pid, "err", err)
		if errors.Is(err, terminate.ErrSelfTarget) || errors.Is(err, terminate.ErrProtectedPID) {
			return terminate.ExitMissing
		}
		return terminate.ExitDeliveryFailed
	}

	out := engine.Deliver(plan)
	if out.State != terminate.StateSucceeded {
		h.Log.Error("delivery failed", "pid", out.FailedPID, "sig", sig.String(), "err", out.Err)
		return terminate.ExitDeliveryFailed
	}
	return terminate.ExitOK
}

// pairs reads the (pid, ppid) relation. Processes that vanish or cannot be
// parsed while reading are left out.
func (h *Helper) pairs() ([]tree.Pair, error) {
	pids, err := h.Source.ListPIDs()
	if err != nil {
		return nil, fmt.Errorf("helper: %w", err)
	}
	pairs := make([]tree.Pair, 0, len(pids))
	for _, pid := range pids {
		p, err := h.Source.ReadProcess(pid)
		if err != nil {
			continue
		}
		pairs = append(pairs, tree.Pair{PID: p.PID, PPID: p.PPID})
	}
	return pairs, nil
}
