// Package metrics provides Prometheus metrics for doddns.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "doddns"

var (
	// BuildInfo is always 1 and carries version labels.
	BuildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information.",
	}, []string{"version", "go_version"})

	// RunsTotal counts reconciliation runs by outcome (success, partial, failed).
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total reconciliation runs by outcome.",
	}, []string{"status"})

	// RunDuration observes the wall time of each run.
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of reconciliation runs.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// LastSuccessTimestamp is the unix time of the last run without failures.
	LastSuccessTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last fully successful run.",
	})

	// ResolvedIP is 1 for the address applied by the most recent run.
	ResolvedIP = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "resolved_ip_info",
		Help:      "Address resolved by the most recent run.",
	}, []string{"ip", "mode"})

	// ResolveAttemptsTotal counts IP resolution attempts by mode and result.
	ResolveAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "resolve_attempts_total",
		Help:      "IP resolution attempts by mode and result.",
	}, []string{"mode", "status"})

	// RecordsUpdatedTotal counts records patched, per domain.
	RecordsUpdatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_updated_total",
		Help:      "A records patched to the resolved IP.",
	}, []string{"domain"})

	// RecordsExcludedTotal counts records skipped by the exclusion list, per domain.
	RecordsExcludedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_excluded_total",
		Help:      "A records skipped because their name is excluded.",
	}, []string{"domain"})

	// RecordsFailedTotal counts failed operations per domain and operation (list, update).
	RecordsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_failed_total",
		Help:      "Failed record operations.",
	}, []string{"domain", "operation"})

	// ProviderAPIRequestsTotal counts provider API calls by operation and result.
	ProviderAPIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_api_requests_total",
		Help:      "Provider API requests by operation and result.",
	}, []string{"provider", "operation", "status"})

	// ProviderAPIDuration observes provider API latency.
	ProviderAPIDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "provider_api_duration_seconds",
		Help:      "Provider API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// RetriesTotal counts waits performed by the retry wrapper, per operation.
	RetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "retries_total",
		Help:      "Retries after transient failures.",
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(
		BuildInfo,
		RunsTotal,
		RunDuration,
		LastSuccessTimestamp,
		ResolvedIP,
		ResolveAttemptsTotal,
		RecordsUpdatedTotal,
		RecordsExcludedTotal,
		RecordsFailedTotal,
		ProviderAPIRequestsTotal,
		ProviderAPIDuration,
		RetriesTotal,
	)
}

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetResolvedIP replaces the resolved_ip_info series with ip.
func SetResolvedIP(ip, mode string) {
	ResolvedIP.Reset()
	ResolvedIP.WithLabelValues(ip, mode).Set(1)
}

// WriteTextfile writes all registered metrics to path in the node_exporter
// textfile collector format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
