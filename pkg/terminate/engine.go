package terminate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/frogkill/pkg/tree"
)

// EscalationResult is what the privileged helper reported.
type EscalationResult struct {
	ExitCode int
	Output   string
}

// Escalator runs the privileged helper for the whole requested scope.
type Escalator interface {
	Escalate(ctx context.Context, req Request) (EscalationResult, error)
}

// Confirmer asks the user whether to escalate after a permission denial.
type Confirmer interface {
	ConfirmEscalation(ctx context.Context, plan Plan, failedPID int) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan Plan, failedPID int) bool

func (f ConfirmFunc) ConfirmEscalation(ctx context.Context, plan Plan, failedPID int) bool {
	return f(ctx, plan, failedPID)
}

// Engine plans and delivers terminations. It is stateless between calls.
type Engine struct {
	sig      Signaler
	esc      Escalator
	log      *slog.Logger
	self     int
	treeOpts []tree.Option
}

type Option func(*Engine)

func WithSignaler(s Signaler) Option { return func(e *Engine) { e.sig = s } }

func WithEscalator(esc Escalator) Option { return func(e *Engine) { e.esc = esc } }

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSelfPID overrides the pid treated as this process.
func WithSelfPID(pid int) Option { return func(e *Engine) { e.self = pid } }

// WithTreeLimit caps how many pids a tree plan may contain.
func WithTreeLimit(n int) Option {
	return func(e *Engine) {
		e.treeOpts = append(e.treeOpts, tree.WithLimit(n))
	}
}

// NewEngine returns an Engine using kill(2) and no escalator by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sig:  UnixSignaler{},
		log:  slog.Default(),
		self: os.Getpid(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan resolves req against the (pid, ppid) pairs of one snapshot. A tree
// plan is computed eagerly so the user can be shown its size.
func (e *Engine) Plan(req Request, pairs []tree.Pair) (Plan, error) {
	if req.Target <= 1 {
		return Plan{}, fmt.Errorf("%w: %d", ErrProtectedPID, req.Target)
	}
	if req.Scope == ScopeSingle {
		if req.Target == e.self {
			return Plan{}, fmt.Errorf("%w: %d", ErrSelfTarget, req.Target)
		}
		return Plan{Request: req, Order: []int{req.Target}, Count: 1}, nil
	}
	order, err := tree.New(pairs, e.treeOpts...).PostorderTerminationOrder(req.Target)
	if err != nil {
		return Plan{}, fmt.Errorf("terminate: plan tree of %d: %w", req.Target, err)
	}
	return Plan{Request: req, Order: order, Count: len(order)}, nil
}

// Reject records a request that was refused before any signal was sent,
// such as a protected target: Requested then Failed, carrying err.
func Reject(req Request, err error) Outcome {
	out := Outcome{Plan: Plan{Request: req}, Err: err}
	out.advance(StateRequested)
	out.advance(StateFailed)
	return out
}

// Deliver walks plan.Order sending the signal directly. Protected pids and
// the engine's own pid are skipped. A pid that is already gone counts as
// delivered. The walk stops at the first EPERM, ending in
// EscalationOffered, or at the first other error, ending in Failed. No
// further signal is sent after a stop.
func (e *Engine) Deliver(plan Plan) Outcome {
	out := Outcome{Plan: plan}
	out.advance(StateRequested)
	out.advance(StateDirectAttempt)

	sig := plan.Signal.Unix()
	for _, pid := range plan.Order {
		if pid <= 1 || pid == e.self {
			continue
		}
		err := e.sig.Kill(pid, sig)
		switch {
		case err == nil:
			out.Delivered = append(out.Delivered, pid)
		case errors.Is(err, unix.ESRCH):
			e.log.Debug("terminate: already gone", "pid", pid)
			out.Delivered = append(out.Delivered, pid)
		case errors.Is(err, unix.EPERM):
			e.log.Info("terminate: permission denied", "pid", pid, "sig", plan.Signal.String())
			out.FailedPID = pid
			out.Err = fmt.Errorf("%w: %w", ErrPermissionDenied, &DeliveryError{PID: pid, Signal: plan.Signal, Err: err})
			out.advance(StatePermissionDenied)
			out.advance(StateEscalationOffered)
			return out
		default:
			e.log.Warn("terminate: delivery failed", "pid", pid, "sig", plan.Signal.String(), "err", err)
			out.FailedPID = pid
			out.Err = &DeliveryError{PID: pid, Signal: plan.Signal, Err: err}
			out.advance(StateFailed)
			return out
		}
	}
	e.log.Info("terminate: delivered", "target", plan.Target, "sig", plan.Signal.String(),
		"scope", plan.Scope.String(), "count", len(out.Delivered))
	out.advance(StateSucceeded)
	return out
}

// Escalate runs the escalator for the whole original request, not just the
// remainder of the walk. There is no timeout; cancel ctx to abort.
func (e *Engine) Escalate(ctx context.Context, plan Plan) Outcome {
	out := Outcome{Plan: plan}
	out.advance(StateEscalationAccepted)
	out.advance(StateEscalationRunning)

	if e.esc == nil {
		out.Err = ErrNoEscalator
		out.ExitCode = -1
		out.advance(StateEscalationFailed)
		return out
	}
	e.log.Info("terminate: escalating", "target", plan.Target, "sig", plan.Signal.String(), "scope", plan.Scope.String())
	res, err := e.esc.Escalate(ctx, plan.Request)
	out.ExitCode, out.Output = res.ExitCode, res.Output
	switch {
	case err != nil:
		out.Err = fmt.Errorf("%w: %w", ErrEscalationFailed, err)
		out.advance(StateEscalationFailed)
	case res.ExitCode != 0:
		out.Err = fmt.Errorf("%w: exit %d: %s", ErrEscalationFailed, res.ExitCode, DescribeExit(res.ExitCode))
		out.advance(StateEscalationFailed)
	default:
		out.advance(StateEscalationSucceeded)
	}
	if out.Err != nil {
		e.log.Warn("terminate: escalation failed", "target", plan.Target, "code", res.ExitCode, "err", out.Err)
	}
	return out
}

// Resolve continues an outcome that stopped at EscalationOffered. It asks
// confirmer once; declining ends the protocol without error. Outcomes in
// any other state are returned unchanged.
func (e *Engine) Resolve(ctx context.Context, prior Outcome, confirmer Confirmer) Outcome {
	if prior.State != StateEscalationOffered {
		return prior
	}
	if confirmer == nil || !confirmer.ConfirmEscalation(ctx, prior.Plan, prior.FailedPID) {
		prior.Err = nil
		prior.advance(StateEscalationDeclined)
		return prior
	}
	esc := e.Escalate(ctx, prior.Plan)
	prior.Trail = append(prior.Trail, esc.Trail...)
	prior.State = esc.State
	prior.Err = esc.Err
	prior.ExitCode, prior.Output = esc.ExitCode, esc.Output
	return prior
}

// Execute runs the full protocol: direct delivery, then on permission
// denial a single confirmation and escalation. It never retries.
func (e *Engine) Execute(ctx context.Context, plan Plan, confirmer Confirmer) Outcome {
	return e.Resolve(ctx, e.Deliver(plan), confirmer)
}
