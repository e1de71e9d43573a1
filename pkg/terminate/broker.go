package terminate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBroker     = "pkexec"
	DefaultHelperPath = "/usr/libexec/frogkill/frogkill-helper"
)

// DefaultBrokerArgs keeps pkexec from falling back to a text agent on the
// controlling terminal.
var DefaultBrokerArgs = []string{"--disable-internal-agent"}

// Helper and broker exit codes.
const (
	ExitOK             = 0
	ExitUsage          = 2
	ExitMissing        = 3
	ExitDeliveryFailed = 4

	// pkexec
	ExitNotAuthorized = 126
	ExitBrokerFailure = 127
)

// BrokerEscalator runs the helper through a privilege broker:
//
//	<Broker> [BrokerArgs...] <abs helper> --pid N --sig TERM|KILL [--tree]
type BrokerEscalator struct {
	Broker     string
	BrokerArgs []string
	HelperPath string
	Log        *slog.Logger
}

// NewBrokerEscalator fills empty fields with the pkexec defaults. Nil
// brokerArgs means DefaultBrokerArgs for pkexec and none for any other
// broker; a non-nil empty slice means none.
func NewBrokerEscalator(broker string, brokerArgs []string, helperPath string) *BrokerEscalator {
	if broker == "" {
		broker = DefaultBroker
	}
	if brokerArgs == nil && filepath.Base(broker) == DefaultBroker {
		brokerArgs = DefaultBrokerArgs
	}
	if helperPath == "" {
		helperPath = DefaultHelperPath
	}
	return &BrokerEscalator{Broker: broker, BrokerArgs: brokerArgs, HelperPath: helperPath, Log: slog.Default()}
}

// Command returns the argv the broker is started with.
func (b *BrokerEscalator) Command(req Request) ([]string, error) {
	helper, err := filepath.Abs(b.HelperPath)
	if err != nil {
		return nil, fmt.Errorf("terminate: helper path: %w", err)
	}
	argv := []string{b.Broker}
	argv = append(argv, b.BrokerArgs...)
	argv = append(argv, helper, "--pid", strconv.Itoa(req.Target), "--sig", req.Signal.String())
	if req.Scope == ScopeTree {
		argv = append(argv, "--tree")
	}
	return argv, nil
}

// Escalate starts the broker and waits for it without a deadline. Output
// is stdout and stderr merged. A non-zero exit is reported through
// EscalationResult, not as an error.
func (b *BrokerEscalator) Escalate(ctx context.Context, req Request) (EscalationResult, error) {
	argv, err := b.Command(req)
	if err != nil {
		return EscalationResult{ExitCode: -1}, err
	}
	if b.Log != nil {
		b.Log.Debug("terminate: starting broker", "argv", strings.Join(argv, " "))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// only applies once ctx is done; grandchildren may hold the pipe open
	cmd.WaitDelay = 2 * time.Second
	out, err := cmd.CombinedOutput()
	res := EscalationResult{Output: strings.TrimSpace(string(out))}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("terminate: broker: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	case err != nil:
		res.ExitCode = -1
		return res, fmt.Errorf("terminate: start broker %s: %w", argv[0], err)
	}
	return res, nil
}

// DescribeExit explains a helper or broker exit code.
func DescribeExit(code int) string {
	switch code {
	case ExitOK:
		return "success"
	case ExitUsage:
		return "invalid or missing arguments"
	case ExitMissing:
		return "target missing or protected (pid <= 1)"
	case ExitDeliveryFailed:
		return "signal delivery failed"
	case ExitNotAuthorized:
		return "authorization dismissed or not granted"
	case ExitBrokerFailure:
		return "broker could not run the helper"
	case -1:
		return "broker did not exit normally"
	default:
		return "unexpected exit code " + strconv.Itoa(code)
	}
}
