// Package metrics exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version string
}

// Provider owns a private registry and the process metrics.
type Provider struct {
	reg        *prometheus.Registry
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	features   *prometheus.CounterVec
}

func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geo_build_info",
		Help: "Build info for this binary (value is always 1).",
	}, []string{"version"})
	reg.MustRegister(info)
	info.WithLabelValues(build.Version).Set(1)

	p := &Provider{
		reg: reg,
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geo_process_executions_total",
			Help: "Process executions by outcome.",
		}, []string{"process", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geo_process_execution_seconds",
			Help:    "Time from execution start to its recorded outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"process"}),
		features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geo_process_features_total",
			Help: "Features produced by process outputs.",
		}, []string{"process"}),
	}
	reg.MustRegister(p.executions, p.duration, p.features)
	return p
}

// ObserveExecution implements process.Recorder.
func (p *Provider) ObserveExecution(id, status string, elapsed time.Duration) {
	p.executions.WithLabelValues(id, status).Inc()
	p.duration.WithLabelValues(id).Observe(elapsed.Seconds())
}

// AddFeatures counts features written for a process output.
func (p *Provider) AddFeatures(id string, n int) {
	p.features.WithLabelValues(id).Add(float64(n))
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}
