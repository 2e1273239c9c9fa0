package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pvetools/backup-tracker/internal/store"
)

// backupStatsCollector polls the store on every scrape and reports the
// current number of jobs and per-vm records in each status.
type backupStatsCollector struct {
	store             store.Store
	jobsByStatus      *prometheus.Desc
	vmResultsByStatus *prometheus.Desc
}

func NewBackupStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_%s", backupTracker, name)
	}

	return &backupStatsCollector{
		store: s,
		jobsByStatus: prometheus.NewDesc(
			fqName("jobs"),
			"Number of jobs currently recorded, by status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
		vmResultsByStatus: prometheus.NewDesc(
			fqName("vm_results"),
			"Number of per-vm records currently recorded, by status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
	}
}

func (c *backupStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobsByStatus
	ch <- c.vmResultsByStatus
}

// Collect implements Collector.
func (c *backupStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Statistics(context.Background())
	if err != nil {
		zap.S().Named("backup_collector").Errorf("failed to collect backup statistics: %s", err)
		return
	}

	for status, total := range stats.Jobs.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobsByStatus, prometheus.GaugeValue, float64(total), status)
	}

	for status, total := range stats.VMResults.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.vmResultsByStatus, prometheus.GaugeValue, float64(total), status)
	}
}
