package model

type JobStats struct {
	// Total is the total number of jobs ever recorded.
	Total int
	// ByStatus counts jobs per status value.
	ByStatus map[string]int
}

type VMResultStats struct {
	// Total is the total number of per-VM records.
	Total int
	// ByStatus counts records per status value.
	ByStatus map[string]int
}

// BackupStats is a point-in-time snapshot of the tracked state, used by the
// metrics collector and the stats endpoint.
type BackupStats struct {
	Jobs      JobStats
	VMResults VMResultStats
}

func NewBackupStats(jobCounts, resultCounts map[string]int) BackupStats {
	jobs := JobStats{ByStatus: jobCounts}
	for _, count := range jobCounts {
		jobs.Total += count
	}

	results := VMResultStats{ByStatus: resultCounts}
	for _, count := range resultCounts {
		results.Total += count
	}

	return BackupStats{Jobs: jobs, VMResults: results}
}
