//go:build linux

// Package monitor is the synchronous front door used by the CLI: it owns the
// samplers, keeps the snapshot of the last refresh and runs termination
// requests against exactly that snapshot.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ja7ad/frogkill/pkg/sampler"
	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/terminate"
	"github.com/ja7ad/frogkill/pkg/tree"
)

// ErrUnknownPID is returned in strict mode when the target is absent from
// the current snapshot.
var ErrUnknownPID = errors.New("monitor: pid not in current snapshot")

// Snapshot is the immutable result of one refresh.
type Snapshot struct {
	Processes []sampler.ProcessRecord
	System    sampler.SystemSnapshot
	Taken     time.Time
}

// Pairs returns the (pid, ppid) relation of the snapshot.
func (s Snapshot) Pairs() []tree.Pair {
	pairs := make([]tree.Pair, 0, len(s.Processes))
	for _, p := range s.Processes {
		pairs = append(pairs, tree.Pair{PID: p.PID, PPID: p.PPID})
	}
	return pairs
}

// Find returns the record for pid.
func (s Snapshot) Find(pid int) (sampler.ProcessRecord, bool) {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p, true
		}
	}
	return sampler.ProcessRecord{}, false
}

// Observer is notified after every refresh.
type Observer interface {
	OnRefresh(Snapshot)
}

// TerminationObserver is an Observer that also wants every finished
// termination request, rejected ones included.
type TerminationObserver interface {
	Observer
	OnTermination(terminate.Outcome)
}

// Controller serialises refreshes and direct delivery. Escalation waits
// run outside the lock so a pending authorization prompt does not stall
// sampling.
type Controller struct {
	mu      sync.Mutex
	procs   *sampler.Sampler
	sys     *sampler.SystemSampler
	engine  *terminate.Engine
	current Snapshot
	fresh   bool

	log         *slog.Logger
	observers   []Observer
	samplerOpts []sampler.Option
	now         func() time.Time
	strict      bool
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithSamplerOptions passes options through to the process sampler.
func WithSamplerOptions(opts ...sampler.Option) Option {
	return func(c *Controller) { c.samplerOpts = append(c.samplerOpts, opts...) }
}

// WithStrictTargets rejects targets absent from the current snapshot.
func WithStrictTargets() Option { return func(c *Controller) { c.strict = true } }

// New builds a Controller over src. A nil engine gets one with defaults
// and no escalator.
func New(src proc.Source, engine *terminate.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = terminate.NewEngine(terminate.WithLogger(c.log))
	}
	sopts := append([]sampler.Option{sampler.WithLogger(c.log)}, c.samplerOpts...)
	c.procs = sampler.New(src, sopts...)
	c.sys = sampler.NewSystem(src, c.log)
	return c
}

// Refresh samples processes and system counters and makes the result the
// current snapshot.
func (c *Controller) Refresh() Snapshot {
	c.mu.Lock()
	snap := c.refreshLocked()
	c.mu.Unlock()

	for _, o := range c.observers {
		o.OnRefresh(snap)
	}
	return snap
}

func (c *Controller) refreshLocked() Snapshot {
	snap := Snapshot{
		System:    c.sys.Sample(),
		Processes: c.procs.Sample(),
		Taken:     c.now(),
	}
	c.current, c.fresh = snap, true
	c.log.Debug("monitor: refreshed", "processes", len(snap.Processes), "cpu", snap.System.CPUPercent)
	return snap
}

// Current returns the last snapshot without sampling.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Preview resolves req against the current snapshot without sending
// anything, for confirmation prompts. The first call refreshes.
func (c *Controller) Preview(req terminate.Request) (terminate.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.planLocked(req)
}

func (c *Controller) planLocked(req terminate.Request) (terminate.Plan, error) {
	if !c.fresh {
		c.refreshLocked()
	}
	if c.strict && req.Target > 1 {
		if _, ok := c.current.Find(req.Target); !ok {
			return terminate.Plan{}, fmt.Errorf("%w: %d", ErrUnknownPID, req.Target)
		}
	}
	return c.engine.Plan(req, c.current.Pairs())
}

// RequestTermination plans req against the current snapshot, delivers
// directly, and on permission denial asks confirmer once whether to
// escalate. A request refused during planning, such as pid 1, is returned
// both as the error and as an Outcome that went Requested then Failed.
// Delivery and escalation failures are reported in the Outcome only.
func (c *Controller) RequestTermination(ctx context.Context, req terminate.Request, confirmer terminate.Confirmer) (terminate.Outcome, error) {
	c.mu.Lock()
	plan, err := c.planLocked(req)
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("monitor: termination refused", "target", req.Target, "err", err)
		out := terminate.Reject(req, err)
		c.notify(out)
		return out, err
	}
	out := c.engine.Deliver(plan)
	c.mu.Unlock()

	out = c.engine.Resolve(ctx, out, confirmer)
	level := slog.LevelInfo
	if !out.Success() {
		level = slog.LevelWarn
	}
	c.log.Log(ctx, level, "monitor: termination finished",
		"target", req.Target, "sig", req.Signal.String(), "scope", req.Scope.String(),
		"state", out.State.String(), "delivered", len(out.Delivered))

	c.notify(out)
	return out, nil
}

func (c *Controller) notify(out terminate.Outcome) {
	for _, o := range c.observers {
		if to, ok := o.(TerminationObserver); ok {
			to.OnTermination(out)
		}
	}
}
