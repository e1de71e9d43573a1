//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ja7ad/frogkill/internal/config"
	"github.com/ja7ad/frogkill/internal/logging"
	"github.com/ja7ad/frogkill/pkg/monitor"
	"github.com/ja7ad/frogkill/pkg/system/proc"
	"github.com/ja7ad/frogkill/pkg/terminate"
)

type app struct {
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:   "frogkill",
		Short: "Linux process monitor and safe process-tree killer",
		Long: `frogkill lists running processes with CPU and memory usage and terminates
a single process or a whole process tree, children first. Pid 1 and lower
are never signalled. When a process belongs to another user, frogkill offers
to finish the job through a privileged helper started by pkexec.

Examples:
  frogkill top --filter firefox --limit 20
  frogkill kill 12345
  frogkill kill --tree --force 12345
  frogkill tree 12345`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: frogkill.yaml in $XDG_CONFIG_HOME/frogkill, ~/.config/frogkill, /etc/frogkill or .)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("proc-root", proc.DefaultRoot, "procfs mount point")
	pf.String("helper", terminate.DefaultHelperPath, "path of frogkill-helper")
	pf.String("broker", terminate.DefaultBroker, "privilege broker used to run the helper")

	root.AddCommand(newTopCmd(a), newKillCmd(a), newTreeCmd(a))

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.log = logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	for _, e := range cfg.Validate() {
		a.log.Warn("config", "err", e)
	}
	a.cfg = cfg
	return nil
}

func (a *app) source() *proc.FS { return proc.NewFS(a.cfg.ProcRoot) }

func (a *app) engine() *terminate.Engine {
	log := logging.L("terminate")
	esc := terminate.NewBrokerEscalator(a.cfg.Broker, a.cfg.BrokerArgs, a.cfg.HelperPath)
	esc.Log = log
	return terminate.NewEngine(
		terminate.WithEscalator(esc),
		terminate.WithLogger(log),
		terminate.WithTreeLimit(a.cfg.TreeLimit),
	)
}

func (a *app) controller(opts ...monitor.Option) *monitor.Controller {
	opts = append([]monitor.Option{monitor.WithLogger(logging.L("monitor"))}, opts...)
	return monitor.New(a.source(), a.engine(), opts...)
}
