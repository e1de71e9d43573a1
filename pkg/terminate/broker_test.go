package terminate_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/frogkill/pkg/terminate"
)

func shell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipping: sh not available: %v", err)
	}
	return sh
}

func TestBrokerEscalator_Command(t *testing.T) {
	b := terminate.NewBrokerEscalator("", nil, "/opt/frogkill/helper")
	argv, err := b.Command(terminate.Request{Target: 42, Signal: terminate.SignalKill, Scope: terminate.ScopeTree})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pkexec", "--disable-internal-agent", "/opt/frogkill/helper",
		"--pid", "42", "--sig", "KILL", "--tree",
	}, argv)

	argv, err = b.Command(terminate.Request{Target: 7, Signal: terminate.SignalTerm})
	require.NoError(t, err)
	assert.NotContains(t, argv, "--tree")
	assert.Equal(t, "TERM", argv[len(argv)-1])
}

func TestBrokerEscalator_RelativeHelperMadeAbsolute(t *testing.T) {
	b := terminate.NewBrokerEscalator("doas", []string{}, "bin/frogkill-helper")
	argv, err := b.Command(terminate.Request{Target: 5})
	require.NoError(t, err)
	assert.Equal(t, "doas", argv[0])
	assert.True(t, strings.HasPrefix(argv[1], "/"), argv[1])
}

func TestNewBrokerEscalator_DefaultArgsOnlyForPkexec(t *testing.T) {
	req := terminate.Request{Target: 42}
	tests := []struct {
		name   string
		broker string
		args   []string
		want   []string
	}{
		{"pkexec", "pkexec", nil, []string{"pkexec", "--disable-internal-agent", "/x/helper"}},
		{"pkexec_abs", "/usr/bin/pkexec", nil, []string{"/usr/bin/pkexec", "--disable-internal-agent", "/x/helper"}},
		{"pkexec_explicit_empty", "pkexec", []string{}, []string{"pkexec", "/x/helper"}},
		{"sudo", "sudo", nil, []string{"sudo", "/x/helper"}},
		{"sudo_with_args", "sudo", []string{"-n"}, []string{"sudo", "-n", "/x/helper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := terminate.NewBrokerEscalator(tt.broker, tt.args, "/x/helper").Command(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, argv[:len(tt.want)])
			assert.Equal(t, []string{"--pid", "42", "--sig", "TERM"}, argv[len(tt.want):])
		})
	}
}

func TestBrokerEscalator_Escalate(t *testing.T) {
	sh := shell(t)

	t.Run("merged_output_and_exit_code", func(t *testing.T) {
		// the helper path lands in $0 and the flags in $@
		b := terminate.NewBrokerEscalator(sh, []string{"-c", `echo "$@"; echo oops >&2; exit 4`}, "/x/helper")
		res, err := b.Escalate(context.Background(), terminate.Request{Target: 42, Signal: terminate.SignalKill, Scope: terminate.ScopeTree})
		require.NoError(t, err)
		assert.Equal(t, 4, res.ExitCode)
		assert.Contains(t, res.Output, "--pid 42 --sig KILL --tree")
		assert.Contains(t, res.Output, "oops")
	})

	t.Run("success", func(t *testing.T) {
		b := terminate.NewBrokerEscalator(sh, []string{"-c", "exit 0"}, "/x/helper")
		res, err := b.Escalate(context.Background(), terminate.Request{Target: 42})
		require.NoError(t, err)
		assert.Zero(t, res.ExitCode)
	})

	t.Run("missing_broker", func(t *testing.T) {
		b := terminate.NewBrokerEscalator("/nonexistent/broker", nil, "/x/helper")
		res, err := b.Escalate(context.Background(), terminate.Request{Target: 42})
		require.Error(t, err)
		assert.Equal(t, -1, res.ExitCode)
	})

	t.Run("cancelled", func(t *testing.T) {
		b := terminate.NewBrokerEscalator(sh, []string{"-c", "exec sleep 30"}, "/x/helper")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := b.Escalate(ctx, terminate.Request{Target: 42})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestDescribeExit(t *testing.T) {
	assert.Equal(t, "success", terminate.DescribeExit(0))
	assert.Contains(t, terminate.DescribeExit(2), "arguments")
	assert.Contains(t, terminate.DescribeExit(3), "pid <= 1")
	assert.Contains(t, terminate.DescribeExit(4), "delivery")
	assert.Contains(t, terminate.DescribeExit(126), "authorization")
	assert.Contains(t, terminate.DescribeExit(127), "broker")
	assert.Equal(t, "unexpected exit code 55", terminate.DescribeExit(55))
}
