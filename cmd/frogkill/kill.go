//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ja7ad/frogkill/pkg/monitor"
	"github.com/ja7ad/frogkill/pkg/terminate"
)

type killOpts struct {
	force  bool
	tree   bool
	yes    bool
	strict bool
}

func newKillCmd(a *app) *cobra.Command {
	var o killOpts
	cmd := &cobra.Command{
		Use:   "kill PID",
		Short: "Terminate a process or its whole tree (children first)",
		Long: `Send SIGTERM (or SIGKILL with --force) to PID, or with --tree to PID and
all its descendants, deepest first. The tree is taken from a single snapshot
and shown before anything is sent. Processes that already exited count as
terminated. On a permission error frogkill asks before escalating.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			req := terminate.Request{Target: pid, Signal: terminate.SignalTerm}
			if o.force {
				req.Signal = terminate.SignalKill
			}
			if o.tree {
				req.Scope = terminate.ScopeTree
			}
			var copts []monitor.Option
			if o.strict {
				copts = append(copts, monitor.WithStrictTargets())
			}
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), o.yes)
			return runKill(cmd.Context(), a.controller(copts...), req, p, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&o.force, "force", false, "send SIGKILL instead of SIGTERM")
	cmd.Flags().BoolVar(&o.tree, "tree", false, "also terminate all descendants")
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "answer yes to every confirmation")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "refuse a pid that is not in the current process list")
	return cmd
}

func parsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return pid, nil
}

func runKill(ctx context.Context, ctrl *monitor.Controller, req terminate.Request, p *prompter, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := ctrl.Preview(req)
	if err != nil {
		return err
	}
	name := "?"
	if r, ok := ctrl.Current().Find(req.Target); ok {
		name = r.Name
	}

	var q string
	if plan.Count <= 1 {
		q = fmt.Sprintf("Send SIG%s to %q (pid %d)?", req.Signal, name, req.Target)
	} else {
		q = fmt.Sprintf("Send SIG%s to the tree of %q (pid %d)?\nThis may terminate %d processes.", req.Signal, name, req.Target, plan.Count)
	}
	if !p.ask(q) {
		fmt.Fprintln(w, "aborted")
		return nil
	}

	out, err := ctrl.RequestTermination(ctx, req, p)
	if err != nil {
		return err
	}
	return report(w, out)
}

func report(w io.Writer, out terminate.Outcome) error {
	switch out.State {
	case terminate.StateSucceeded:
		fmt.Fprintf(w, "sent SIG%s to %d process(es)\n", out.Plan.Signal, len(out.Delivered))
		return nil
	case terminate.StateEscalationSucceeded:
		fmt.Fprintf(w, "sent SIG%s to pid %d via the privileged helper\n", out.Plan.Signal, out.Plan.Target)
		return nil
	case terminate.StateEscalationDeclined:
		fmt.Fprintf(w, "not terminated: permission denied for pid %d\n", out.FailedPID)
		return nil
	case terminate.StateEscalationFailed:
		if out.Output != "" {
			fmt.Fprintf(w, "helper output:\n%s\n", out.Output)
		}
		return fmt.Errorf("helper exited with code %d (%s): %w", out.ExitCode, terminate.DescribeExit(out.ExitCode), out.Err)
	default:
		var de *terminate.DeliveryError
		if errors.As(out.Err, &de) {
			return fmt.Errorf("failed to send SIG%s to pid %d: %w", de.Signal, de.PID, de.Err)
		}
		return out.Err
	}
}
