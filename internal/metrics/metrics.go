// Package metrics exports monitor state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ja7ad/frogkill/pkg/monitor"
)

const (
	namespace = "frogkill"

	mib = 1024 * 1024
)

// Metrics implements monitor.Observer on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cpu       prometheus.Gauge
	memUsed   prometheus.Gauge
	memTotal  prometheus.Gauge
	swapUsed  prometheus.Gauge
	swapTotal prometheus.Gauge
	processes prometheus.Gauge
	refreshes prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "system_cpu_percent",
			Help: "Machine-wide CPU busy percentage over the last refresh interval.",
		}),
		memUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "memory_used_bytes",
			Help: "MemTotal minus MemAvailable.",
		}),
		memTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "memory_total_bytes",
			Help: "MemTotal.",
		}),
		swapUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "swap_used_bytes",
			Help: "SwapTotal minus SwapFree.",
		}),
		swapTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "swap_total_bytes",
			Help: "SwapTotal.",
		}),
		processes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "processes",
			Help: "Processes in the last snapshot.",
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "refreshes_total",
			Help: "Snapshots taken.",
		}),
	}
	m.registry.MustRegister(
		m.cpu, m.memUsed, m.memTotal, m.swapUsed, m.swapTotal,
		m.processes, m.refreshes,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OnRefresh(s monitor.Snapshot) {
	m.cpu.Set(s.System.CPUPercent)
	m.memUsed.Set(s.System.MemUsedMiB * mib)
	m.memTotal.Set(s.System.MemTotalMiB * mib)
	m.swapUsed.Set(s.System.SwapUsedMiB * mib)
	m.swapTotal.Set(s.System.SwapTotalMiB * mib)
	m.processes.Set(float64(len(s.Processes)))
	m.refreshes.Inc()
}
