package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	backupTracker = "backup_tracker"

	// Job metrics
	jobsStartedTotal   = "jobs_started_total"
	jobsCompletedTotal = "jobs_completed_total"

	// VM result metrics
	vmResultsStartedTotal   = "vm_results_started_total"
	vmResultsCompletedTotal = "vm_results_completed_total"

	// Labels
	statusLabel = "status"
)

var completedLabels = []string{
	statusLabel,
}

/**
* Metrics definition
**/
var jobsStartedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: backupTracker,
		Name:      jobsStartedTotal,
		Help:      "number of backup jobs started",
	},
)

var jobsCompletedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: backupTracker,
		Name:      jobsCompletedTotal,
		Help:      "number of backup jobs finished, by terminal status",
	},
	completedLabels,
)

var vmResultsStartedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: backupTracker,
		Name:      vmResultsStartedTotal,
		Help:      "number of per-vm backup records opened",
	},
)

var vmResultsCompletedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: backupTracker,
		Name:      vmResultsCompletedTotal,
		Help:      "number of per-vm backup records finished, by terminal status",
	},
	completedLabels,
)

func IncreaseJobsStartedTotalMetric() {
	jobsStartedTotalMetric.Inc()
}

func IncreaseJobsCompletedTotalMetric(status string) {
	labels := prometheus.Labels{
		statusLabel: status,
	}
	jobsCompletedTotalMetric.With(labels).Inc()
}

func IncreaseVMResultsStartedTotalMetric() {
	vmResultsStartedTotalMetric.Inc()
}

func IncreaseVMResultsCompletedTotalMetric(status string) {
	labels := prometheus.Labels{
		statusLabel: status,
	}
	vmResultsCompletedTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsStartedTotalMetric)
	prometheus.MustRegister(jobsCompletedTotalMetric)
	prometheus.MustRegister(vmResultsStartedTotalMetric)
	prometheus.MustRegister(vmResultsCompletedTotalMetric)
}
