//go:build linux

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ja7ad/frogkill/pkg/monitor"
	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/system/proc/proctest"
	"github.com/ja7ad/frogkill/pkg/terminate"
)

type fakeSignaler struct {
	err  map[int]error
	sent []int
}

func (f *fakeSignaler) Kill(pid int, _ unix.Signal) error {
	f.sent = append(f.sent, pid)
	return f.err[pid]
}

func fixtureController(t *testing.T, sig terminate.Signaler, opts ...monitor.Option) *monitor.Controller {
	tr := proctest.New(t).
		Add(proctest.Process{PID: 1, PPID: 0, Comm: "init"}).
		Add(proctest.Process{PID: 50, PPID: 1, Comm: "tmux"}).
		Add(proctest.Process{PID: 51, PPID: 50, Comm: "bash"}).
		Add(proctest.Process{PID: 52, PPID: 51, Comm: "top"})
	eng := terminate.NewEngine(terminate.WithSignaler(sig), terminate.WithSelfPID(999))
	return monitor.New(proc.NewFS(tr.Root, proc.WithNumCPU(1)), eng, opts...)
}

func TestParsePID(t *testing.T) {
	pid, err := parsePID("42")
	require.NoError(t, err)
	assert.Equal(t, 42, pid)
	for _, bad := range []string{"", "0", "-3", "4x"} {
		_, err := parsePID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\nno\n\nYES\n"), &out, false)
	assert.True(t, p.ask("first?"))
	assert.False(t, p.ask("second?"))
	assert.False(t, p.ask("third?"))
	assert.True(t, p.ask("fourth?"))
	assert.False(t, p.ask("eof?"))
	assert.Contains(t, out.String(), "first? [y/N]")

	assert.True(t, newPrompter(strings.NewReader(""), &out, true).ask("auto?"))
}

func TestRunKill_Tree(t *testing.T) {
	sig := &fakeSignaler{}
	ctrl := fixtureController(t, sig)
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\n"), &out, false)

	err := runKill(context.Background(), ctrl,
		terminate.Request{Target: 50, Signal: terminate.SignalKill, Scope: terminate.ScopeTree}, p, &out)
	require.NoError(t, err)
	assert.Equal(t, []int{52, 51, 50}, sig.sent)
	assert.Contains(t, out.String(), "This may terminate 3 processes")
	assert.Contains(t, out.String(), "sent SIGKILL to 3 process(es)")
}

func TestRunKill_Aborted(t *testing.T) {
	sig := &fakeSignaler{}
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("n\n"), &out, false)

	err := runKill(context.Background(), fixtureController(t, sig), terminate.Request{Target: 52}, p, &out)
	require.NoError(t, err)
	assert.Empty(t, sig.sent)
	assert.Contains(t, out.String(), "aborted")
}

func TestRunKill_PermissionDeclined(t *testing.T) {
	sig := &fakeSignaler{err: map[int]error{52: unix.EPERM}}
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\nn\n"), &out, false)

	err := runKill(context.Background(), fixtureController(t, sig), terminate.Request{Target: 52}, p, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No permission to send SIGTERM to pid 52")
	assert.Contains(t, out.String(), "not terminated: permission denied for pid 52")
}

func TestRunKill_Protected(t *testing.T) {
	var out bytes.Buffer
	err := runKill(context.Background(), fixtureController(t, &fakeSignaler{}), terminate.Request{Target: 1},
		newPrompter(strings.NewReader("y\n"), &out, false), &out)
	assert.ErrorIs(t, err, terminate.ErrProtectedPID)
}

func TestRunKill_Strict(t *testing.T) {
	sig := &fakeSignaler{}
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\n"), &out, false)

	t.Run("unknown_pid_refused", func(t *testing.T) {
		err := runKill(context.Background(), fixtureController(t, sig, monitor.WithStrictTargets()),
			terminate.Request{Target: 4242}, p, &out)
		assert.ErrorIs(t, err, monitor.ErrUnknownPID)
		assert.Empty(t, sig.sent)
	})
	t.Run("lenient_by_default", func(t *testing.T) {
		// a pid that is already gone counts as terminated
		sig.err = map[int]error{4242: unix.ESRCH}
		err := runKill(context.Background(), fixtureController(t, sig), terminate.Request{Target: 4242},
			newPrompter(strings.NewReader("y\n"), &out, false), &out)
		require.NoError(t, err)
		assert.Equal(t, []int{4242}, sig.sent)
	})
}

func TestNewKillCmd_StrictFlag(t *testing.T) {
	cmd := newKillCmd(&app{})
	f := cmd.Flags().Lookup("strict")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestReport(t *testing.T) {
	err := report(&bytes.Buffer{}, terminate.Outcome{
		State: terminate.StateFailed,
		Plan:  terminate.Plan{Request: terminate.Request{Target: 9}},
		Err:   &terminate.DeliveryError{PID: 9, Signal: terminate.SignalTerm, Err: unix.EINVAL},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pid 9")
	assert.True(t, errors.Is(err, unix.EINVAL))

	var out bytes.Buffer
	err = report(&out, terminate.Outcome{
		State: terminate.StateEscalationFailed, ExitCode: 126, Output: "Not authorized",
		Err: terminate.ErrEscalationFailed,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorization")
	assert.Contains(t, out.String(), "Not authorized")
}

func TestRunTree(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTree(fixtureController(t, &fakeSignaler{}), 50, &out))
	s := out.String()
	assert.Contains(t, s, "3 process(es) in tree, 1 direct child(ren)")
	assert.Less(t, strings.Index(s, "top"), strings.Index(s, "tmux"))
}
