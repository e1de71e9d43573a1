//go:build linux

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ja7ad/frogkill/pkg/monitor"
	"github.com/ja7ad/frogkill/pkg/terminate"
	"github.com/ja7ad/frogkill/pkg/tree"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree PID",
		Short: "Show the processes `kill --tree PID` would signal, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			return runTree(a.controller(), pid, cmd.OutOrStdout())
		},
	}
}

func runTree(ctrl *monitor.Controller, pid int, w io.Writer) error {
	snap := ctrl.Refresh()
	plan, err := ctrl.Preview(terminate.Request{Target: pid, Scope: terminate.ScopeTree})
	if err != nil {
		return err
	}
	tr := tree.New(snap.Pairs())
	fmt.Fprintf(w, "pid %d: %d process(es) in tree, %d direct child(ren), termination order:\n",
		pid, tr.CountDescendants(pid), len(tr.Children(pid)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPID\tPPID\tUSER\tNAME")
	for i, p := range plan.Order {
		r, ok := snap.Find(p)
		if !ok {
			fmt.Fprintf(tw, "%d\t%d\t?\t?\t(not in snapshot)\n", i+1, p)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", i+1, r.PID, r.PPID, r.User, truncate(r.Name, 80))
	}
	return tw.Flush()
}
