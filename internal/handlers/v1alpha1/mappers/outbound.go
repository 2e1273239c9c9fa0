package mappers

import (
	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/store/model"
)

func JobToApi(j model.Job) api.Job {
	return api.Job{
		Id:           j.ID.String(),
		Type:         j.Type,
		RelatedVm:    j.RelatedVM,
		Status:       string(j.Status),
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}

func JobListToApi(jobs model.JobList) api.JobList {
	list := make(api.JobList, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, JobToApi(j))
	}
	return list
}

// JobDetailToApi folds the job's VM results into per-status counts and the
// derived outcome.
func JobDetailToApi(j model.Job, results model.VMResultList) api.JobDetail {
	counts := make(map[string]int)
	for _, r := range results {
		counts[string(r.Status)]++
	}

	return api.JobDetail{
		Job:            JobToApi(j),
		DerivedOutcome: string(model.DeriveJobOutcome(results)),
		ResultCounts:   counts,
	}
}

func VmResultToApi(r model.VMResult) api.VmResult {
	return api.VmResult{
		Id:                r.ID.String(),
		JobId:             r.JobID.String(),
		Vmid:              r.VMID,
		VmName:            r.VMName,
		HostName:          r.HostName,
		StorageName:       r.StorageName,
		Status:            string(r.Status),
		Reason:            r.Reason,
		ErrorMessage:      r.ErrorMessage,
		IoFreezeAttempted: r.IOFreezeAttempted,
		IoFreezeSucceeded: r.IOFreezeSucceeded,
		WasRunning:        r.WasRunning,
		SnapshotRequested: r.SnapshotRequested,
		SnapshotName:      r.SnapshotName,
		SnapshotUpid:      r.SnapshotUPID,
		SnapshotTaken:     r.SnapshotTaken,
		BackupRecordId:    r.BackupRecordID,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
	}
}

func VmResultListToApi(results model.VMResultList) api.VmResultList {
	list := make(api.VmResultList, 0, len(results))
	for _, r := range results {
		list = append(list, VmResultToApi(r))
	}
	return list
}

func VmLogToApi(l model.VMLog) api.VmLog {
	return api.VmLog{
		Id:         l.ID,
		VmResultId: l.VMResultID.String(),
		Level:      l.Level,
		Message:    l.Message,
		Timestamp:  l.Timestamp,
	}
}

func VmLogListToApi(logs model.VMLogList) api.VmLogList {
	list := make(api.VmLogList, 0, len(logs))
	for _, l := range logs {
		list = append(list, VmLogToApi(l))
	}
	return list
}

func StatsToApi(stats model.BackupStats) api.Stats {
	return api.Stats{
		Jobs: api.ResourceStats{
			Total:    stats.Jobs.Total,
			ByStatus: statusCounts(stats.Jobs.ByStatus),
		},
		VmResults: api.ResourceStats{
			Total:    stats.VMResults.Total,
			ByStatus: statusCounts(stats.VMResults.ByStatus),
		},
	}
}

// statusCounts keeps JSON output free of null maps.
func statusCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}
	return counts
}
