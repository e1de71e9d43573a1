//go:build linux

package helper

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ja7ad/frogkill/pkg/terminate"
)

const Usage = "frogkill-helper --pid <PID> --sig TERM|KILL [--tree]"

var errUsage = errors.New("usage")

// NewCommand wires flags to h.Run; the exit code is stored in *code.
func NewCommand(h *Helper, code *int) *cobra.Command {
	var (
		pid      int
		sigName  string
		withTree bool
	)
	cmd := &cobra.Command{
		Use:   Usage,
		Short: "Privileged signal delivery for frogkill",
		Long: `frogkill-helper is started by the privilege broker (pkexec by default) when
frogkill lacks permission to signal a process. It accepts only a pid, a
signal and an optional --tree flag. Tree members are computed by the helper
itself from /proc; pid 1 and lower are always refused.

Exit codes:
  0  success
  2  invalid or missing arguments
  3  target missing or pid <= 1
  4  signal delivery failed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pid <= 0 {
				return fmt.Errorf("%w: --pid must be a positive integer", errUsage)
			}
			sig, err := terminate.ParseSignal(sigName)
			if err != nil {
				return fmt.Errorf("%w: --sig must be TERM or KILL: %w", errUsage, err)
			}
			*code = h.Run(pid, sig, withTree)
			return nil
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 0, "target process id (> 1)")
	cmd.Flags().StringVar(&sigName, "sig", "", "signal to send: TERM or KILL")
	cmd.Flags().BoolVar(&withTree, "tree", false, "signal the target and all its descendants, children first")
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

// Main runs the helper with args (without the program name) and returns
// the exit code. Any argument error maps to ExitUsage; --help exits 0.
func Main(args []string, h *Helper, stdout, stderr io.Writer) int {
	code := terminate.ExitOK
	cmd := NewCommand(h, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "frogkill-helper: %v\n", err)
		fmt.Fprintln(stderr, Usage)
		return terminate.ExitUsage
	}
	return code
}
