//go:build linux

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/frogkill/internal/metrics"
	"github.com/ja7ad/frogkill/pkg/monitor"
	"github.com/ja7ad/frogkill/pkg/sampler"
	"github.com/ja7ad/frogkill/pkg/system/util"
)

type topOpts struct {
	filter string
	once   bool
	json   bool
}

func newTopCmd(a *app) *cobra.Command {
	var o topOpts
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show processes sorted by CPU usage, refreshed periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTop(cmd.Context(), a, o, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationP("interval", "i", time.Second, "refresh interval (e.g. 1s, 500ms)")
	cmd.Flags().IntP("limit", "n", 25, "rows to show (0 = all)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on host:port")
	cmd.Flags().StringVarP(&o.filter, "filter", "f", "", "show only rows whose name, user or pid contains this text")
	cmd.Flags().BoolVar(&o.once, "once", false, "print one table and exit")
	cmd.Flags().BoolVar(&o.json, "json", false, "print one JSON object per refresh")
	return cmd
}

func runTop(ctx context.Context, a *app, o topOpts, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []monitor.Option
	if a.cfg.MetricsAddr != "" {
		m := metrics.New()
		opts = append(opts, monitor.WithObserver(m))
		srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server", "addr", a.cfg.MetricsAddr, "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		a.log.Info("serving metrics", "addr", a.cfg.MetricsAddr)
	}
	ctrl := a.controller(opts...)

	host, kernel, cpus, mem := util.SystemSummary()
	if !o.json {
		fmt.Fprintf(w, _console, host, kernel, cpus, mem, time.Now().Format("2006-01-02 15:04:05"))
	}

	// the first pass only primes the counters; every CPU value in it is 0
	ctrl.Refresh()

	ticker := time.NewTicker(a.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := ctrl.Refresh()
			rows := monitor.Top(monitor.Filter(snap.Processes, o.filter), a.cfg.TopLimit)
			if o.json {
				if err := printJSON(w, snap, rows); err != nil {
					return err
				}
			} else {
				printSnapshot(w, snap, rows)
			}
			if o.once {
				return nil
			}
		}
	}
}

func printSnapshot(w io.Writer, snap monitor.Snapshot, rows []sampler.ProcessRecord) {
	sys := snap.System
	fmt.Fprintf(w, "\n%s  CPU %5.1f%%  RAM %.2f/%.2f GiB  Swap %.2f/%.2f GiB  %d processes\n",
		snap.Taken.Format("15:04:05"), sys.CPUPercent,
		sys.MemUsedMiB/1024, sys.MemTotalMiB/1024,
		sys.SwapUsedMiB/1024, sys.SwapTotalMiB/1024,
		len(snap.Processes))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUSER\tCPU%\tRSS (MiB)\tNAME")
	fmt.Fprintln(tw, "---\t----\t----\t---------\t----")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%s\n", r.PID, r.User, r.CPUPercent, r.RSSMiB, truncate(r.Name, 80))
	}
	tw.Flush()
}

func printJSON(w io.Writer, snap monitor.Snapshot, rows []sampler.ProcessRecord) error {
	return json.NewEncoder(w).Encode(struct {
		Time      time.Time               `json:"time"`
		System    sampler.SystemSnapshot  `json:"system"`
		Total     int                     `json:"total"`
		Processes []sampler.ProcessRecord `json:"processes"`
	}{snap.Taken, snap.System, len(snap.Processes), rows})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

const _console = `FrogKill - Process Monitor and Tree Killer

       Host: %s
       Kernel: %s
       CPUs: %s
       Mem: %s

Processes as of %s:
`
