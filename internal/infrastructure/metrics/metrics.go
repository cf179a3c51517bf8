// Package metrics records recipebump run statistics with Prometheus collectors.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// Metrics holds all Prometheus metrics for a run.
type Metrics struct {
	RecipeResultsTotal *prometheus.CounterVec
	GitCommandDuration *prometheus.HistogramVec
	PullRequestsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RecipeResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipebump_recipe_results_total",
				Help: "Recipes processed, by outcome.",
			},
			[]string{"status"},
		),
		GitCommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipebump_git_command_duration_seconds",
				Help:    "Duration of git invocations by subcommand and outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command", "failed"},
		),
		PullRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipebump_pull_requests_total",
				Help: "Pull request creations by provider and result.",
			},
			[]string{"provider", "result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RecipeResultsTotal)
	reg.MustRegister(m.GitCommandDuration)
	reg.MustRegister(m.PullRequestsTotal)

	return m
}

var _ repositories.MetricsRepository = (*Metrics)(nil)

func (m *Metrics) RecordRecipeResult(status string) {
	m.RecipeResultsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordGitCommand(command string, duration time.Duration, failed bool) {
	m.GitCommandDuration.WithLabelValues(command, strconv.FormatBool(failed)).Observe(duration.Seconds())
}

func (m *Metrics) RecordPullRequest(provider, result string) {
	m.PullRequestsTotal.WithLabelValues(provider, result).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
