package e2e_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pvetools/backup-tracker/internal/client"
	"github.com/pvetools/backup-tracker/internal/service"
	"github.com/pvetools/backup-tracker/internal/service/mappers"
	"github.com/pvetools/backup-tracker/internal/store/model"
)

var _ = Describe("backup tracker", Ordered, func() {
	var (
		jobSrv *service.JobService
		vmSrv  *service.VMResultService
		logSrv *service.LogService
	)

	BeforeAll(func() {
		jobSrv = service.NewJobService(testStore, eventProducer)
		vmSrv = service.NewVMResultService(testStore, eventProducer)
		logSrv = service.NewLogService(testStore)
	})

	Context("full lifecycle", func() {
		It("tracks a job end to end and serves it over the api", func() {
			job, err := jobSrv.CreateJob(context.TODO(), mappers.JobCreateForm{
				Payload: []byte(`{"storage":"pbs-main","mode":"snapshot"}`),
			})
			Expect(err).To(BeNil())

			v1, err := vmSrv.BeginVM(context.TODO(), mappers.VMBeginForm{
				JobID: job.ID, VMID: 101, VMName: "web-frontend", HostName: "pve-node-1", StorageName: "local-zfs",
			})
			Expect(err).To(BeNil())
			v2, err := vmSrv.BeginVM(context.TODO(), mappers.VMBeginForm{
				JobID: job.ID, VMID: 102, VMName: "db-server", HostName: "pve-node-2", StorageName: "local-zfs",
			})
			Expect(err).To(BeNil())

			Expect(vmSrv.SetIOFreezeResult(context.TODO(), v1.ID, true, true, true)).To(BeNil())
			Expect(vmSrv.MarkSnapshotRequested(context.TODO(), v1.ID, "vzdump-qemu-101", "UPID:pve1:000A1B2C")).To(BeNil())
			Expect(vmSrv.MarkSnapshotTaken(context.TODO(), v1.ID)).To(BeNil())
			recordID := int64(55)
			Expect(vmSrv.MarkSuccess(context.TODO(), v1.ID, &recordID)).To(BeNil())

			Expect(vmSrv.SetIOFreezeResult(context.TODO(), v2.ID, true, false, true)).To(BeNil())
			Expect(logSrv.LogVM(context.TODO(), v2.ID, "snapshot timed out after 60s", model.LogLevelError)).To(BeNil())
			Expect(vmSrv.MarkFailure(context.TODO(), v2.ID, "snapshot timeout")).To(BeNil())

			Expect(jobSrv.CompleteJob(context.TODO(), job.ID, model.JobStatusWarning)).To(BeNil())

			detail, err := testClient.GetJob(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(detail.Status).To(Equal("Warning"))
			Expect(detail.DerivedOutcome).To(Equal("Warning"))
			Expect(detail.CompletedAt).ToNot(BeNil())
			Expect(detail.ResultCounts).To(HaveKeyWithValue("Success", 1))
			Expect(detail.ResultCounts).To(HaveKeyWithValue("Failed", 1))

			results, err := testClient.ListJobResults(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))

			served, err := testClient.GetVmResult(context.TODO(), v1.ID)
			Expect(err).To(BeNil())
			Expect(served.Status).To(Equal("Success"))
			Expect(served.SnapshotTaken).To(BeTrue())
			Expect(served.SnapshotUpid).To(Equal("UPID:pve1:000A1B2C"))
			Expect(served.BackupRecordId).ToNot(BeNil())
			Expect(*served.BackupRecordId).To(Equal(int64(55)))

			logs, err := testClient.ListVmResultLogs(context.TODO(), v2.ID)
			Expect(err).To(BeNil())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Level).To(Equal("Error"))

			stats, err := testClient.Stats(context.TODO())
			Expect(err).To(BeNil())
			Expect(stats.Jobs.Total).To(BeNumerically(">=", 1))
			Expect(stats.VmResults.ByStatus).To(HaveKeyWithValue("Success", 1))
		})

		It("filters the job listing", func() {
			job, err := jobSrv.CreateJob(context.TODO(), mappers.JobCreateForm{
				Type:      "Verify",
				RelatedVM: "vm-200",
			})
			Expect(err).To(BeNil())

			jobs, err := testClient.ListJobs(context.TODO(), &client.ListJobsParams{Type: "Verify"})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Id).To(Equal(job.ID.String()))

			jobs, err = testClient.ListJobs(context.TODO(), &client.ListJobsParams{RelatedVm: "vm-200"})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))

			jobs, err = testClient.ListJobs(context.TODO(), &client.ListJobsParams{Status: "Running"})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal("Running"))
		})
	})

	Context("errors", func() {
		It("reports an unknown job over the api", func() {
			_, err := testClient.GetJob(context.TODO(), uuid.New())
			Expect(err).ToNot(BeNil())
			Expect(err.Error()).To(ContainSubstring("status 404"))
		})

		It("reports an unknown vm result over the api", func() {
			_, err := testClient.GetVmResult(context.TODO(), uuid.New())
			Expect(err).ToNot(BeNil())
			Expect(err.Error()).To(ContainSubstring("status 404"))
		})
	})
})
