// Package telemetry collects batch run metrics and writes them as a
// Prometheus textfile for a node exporter textfile collector.
package telemetry

import (
	"fmt"
	"time"

	"github.com/huangsam/tribal/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process. Each Metrics owns its
// registry so tests and commands never share global state.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	generatedProjects prometheus.Gauge
	generatedRepos    prometheus.Gauge
	usageRows         prometheus.Gauge
	labeledRepos      prometheus.Gauge
	fitIterations     prometheus.Gauge
	fitMaxRhat        prometheus.Gauge
	fitMinESS         prometheus.Gauge
	riskIndex         *prometheus.GaugeVec
	lastSuccess       prometheus.Gauge
}

// New returns a Metrics backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tribal_runs_total",
			Help: "Total command runs by command and status",
		}, []string{"command", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tribal_run_duration_seconds",
			Help:    "Duration of command runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"command"}),
		generatedProjects: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_dataset_projects",
			Help: "Projects in the last dataset",
		}),
		generatedRepos: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_dataset_repositories",
			Help: "Repositories in the last dataset",
		}),
		usageRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_dataset_usage_rows",
			Help: "Language usage edges in the last dataset",
		}),
		labeledRepos: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_dataset_labeled_repositories",
			Help: "Repositories carrying a risk proxy label in the last dataset",
		}),
		fitIterations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_fit_iterations",
			Help: "Iterations per chain of the last fit, warmup included",
		}),
		fitMaxRhat: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_fit_max_rhat",
			Help: "Worst split R-hat across parameters of the last fit",
		}),
		fitMinESS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_fit_min_ess",
			Help: "Smallest effective sample size across parameters of the last fit",
		}),
		riskIndex: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tribal_project_risk_index",
			Help: "Posterior mean risk index of each project in the last fit",
		}, []string{"project"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tribal_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}

// ObserveRun records one command run.
func (m *Metrics) ObserveRun(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.lastSuccess.SetToCurrentTime()
	}
	m.runsTotal.WithLabelValues(command, status).Inc()
	m.runDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// ObserveDataset records the shape of a dataset.
func (m *Metrics) ObserveDataset(data *schema.Dataset) {
	m.generatedProjects.Set(float64(len(data.Projects())))
	m.generatedRepos.Set(float64(len(data.Metrics)))
	m.usageRows.Set(float64(len(data.Usage)))
	m.labeledRepos.Set(float64(data.LabelCount()))
}

// ObserveFit records the convergence and project risk of a fit.
func (m *Metrics) ObserveFit(summary schema.FitSummary) {
	m.fitIterations.Set(float64(summary.Iterations))
	if len(summary.Diagnostics) > 0 {
		maxRhat, minESS := summary.Diagnostics[0].Rhat, summary.Diagnostics[0].ESS
		for _, d := range summary.Diagnostics[1:] {
			maxRhat = max(maxRhat, d.Rhat)
			minESS = min(minESS, d.ESS)
		}
		m.fitMaxRhat.Set(maxRhat)
		m.fitMinESS.Set(minESS)
	}
	m.riskIndex.Reset()
	for _, p := range summary.Projects {
		m.riskIndex.WithLabelValues(p.ProjectID).Set(p.RiskIndex)
	}
}

// WriteTextfile writes every collected metric to path in the text exposition
// format. The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
