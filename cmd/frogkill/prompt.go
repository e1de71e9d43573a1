//go:build linux

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ja7ad/frogkill/pkg/terminate"
)

// prompter asks yes/no questions on a terminal. A missing or unreadable
// answer counts as no.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPrompter(in io.Reader, out io.Writer, assumeYes bool) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, yes: assumeYes}
}

func (p *prompter) ask(question string) bool {
	if p.yes {
		fmt.Fprintf(p.out, "%s [y/N] y\n", question)
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// ConfirmEscalation implements terminate.Confirmer.
func (p *prompter) ConfirmEscalation(_ context.Context, plan terminate.Plan, failedPID int) bool {
	var q string
	if plan.Scope == terminate.ScopeTree {
		q = fmt.Sprintf("No permission to send SIG%s to the tree of pid %d (stopped at pid %d).\nRun as administrator via the privileged helper?",
			plan.Signal, plan.Target, failedPID)
	} else {
		q = fmt.Sprintf("No permission to send SIG%s to pid %d.\nRun as administrator via the privileged helper?",
			plan.Signal, plan.Target)
	}
	return p.ask(q)
}
