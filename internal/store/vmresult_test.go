package store_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/pvetools/backup-tracker/internal/store"
	"github.com/pvetools/backup-tracker/internal/store/model"
)

const (
	insertVMResultStm         = "INSERT INTO vm_results (id, job_id, vmid, vm_name, status, started_at, created_at) VALUES ('%s', '%s', %d, '%s', '%s', '%s', '%s');"
	insertFrozenVMResultStm   = "INSERT INTO vm_results (id, job_id, vmid, vm_name, status, io_freeze_attempted, io_freeze_succeeded, was_running, started_at, created_at) VALUES ('%s', '%s', %d, '%s', 'Pending', TRUE, TRUE, TRUE, '%s', '%s');"
	insertSnapshotVMResultStm = "INSERT INTO vm_results (id, job_id, vmid, vm_name, status, snapshot_requested, snapshot_name, snapshot_upid, started_at, created_at) VALUES ('%s', '%s', %d, '%s', 'Pending', TRUE, '%s', '%s', '%s', '%s');"
)

var _ = Describe("vm result store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		tmpDir string
		jobID  uuid.UUID
	)

	BeforeAll(func() {
		s, gormdb, tmpDir = initTestStore()
	})

	AfterAll(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})

	BeforeEach(func() {
		jobID = uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "Backup", "Running", testTime, testTime))
		Expect(tx.Error).To(BeNil())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM vm_logs;")
		gormdb.Exec("DELETE FROM vm_results;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	Context("create", func() {
		It("successfully creates a vm result", func() {
			resultID := uuid.New()
			result, err := s.VMResult().Create(context.TODO(), model.VMResult{
				ID:          resultID,
				JobID:       jobID,
				VMID:        101,
				VMName:      "web-frontend",
				HostName:    "pve-node-1",
				StorageName: "local-zfs",
				Status:      model.VMResultStatusPending,
				StartedAt:   time.Now().UTC(),
			})
			Expect(err).To(BeNil())
			Expect(result).ToNot(BeNil())

			stored, err := s.VMResult().Get(context.TODO(), resultID)
			Expect(err).To(BeNil())
			Expect(stored.JobID).To(Equal(jobID))
			Expect(stored.VMID).To(Equal(101))
			Expect(stored.VMName).To(Equal("web-frontend"))
			Expect(stored.Status).To(Equal(model.VMResultStatusPending))
			Expect(stored.IOFreezeAttempted).To(BeFalse())
			Expect(stored.SnapshotTaken).To(BeFalse())
			Expect(stored.BackupRecordID).To(BeNil())
			Expect(stored.CompletedAt).To(BeNil())
		})

		It("rejects a duplicate id", func() {
			m := model.VMResult{
				ID:        uuid.New(),
				JobID:     jobID,
				VMID:      101,
				VMName:    "web-frontend",
				Status:    model.VMResultStatusPending,
				StartedAt: time.Now().UTC(),
			}

			_, err := s.VMResult().Create(context.TODO(), m)
			Expect(err).To(BeNil())

			_, err = s.VMResult().Create(context.TODO(), m)
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})
	})

	Context("get", func() {
		It("fails to read an unknown id", func() {
			_, err := s.VMResult().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("reads phase flags back", func() {
			resultID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertFrozenVMResultStm, resultID, jobID, 101, "web-frontend", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			result, err := s.VMResult().Get(context.TODO(), resultID)
			Expect(err).To(BeNil())
			Expect(result.IOFreezeAttempted).To(BeTrue())
			Expect(result.IOFreezeSucceeded).To(BeTrue())
			Expect(result.WasRunning).To(BeTrue())
			Expect(result.SnapshotRequested).To(BeFalse())
		})
	})

	Context("list", func() {
		It("filters by job id", func() {
			otherJobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, otherJobID, "Backup", "Running", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "vm-a", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "vm-b", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), otherJobID, 103, "vm-c", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			results, err := s.VMResult().List(context.TODO(), store.NewVMResultQueryFilter().ByJobID(jobID), nil)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))
		})

		It("filters by status", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "vm-a", "Success", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "vm-b", "Failed", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			results, err := s.VMResult().List(context.TODO(), store.NewVMResultQueryFilter().ByStatus(model.VMResultStatusFailed), nil)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(1))
			Expect(results[0].VMID).To(Equal(102))
		})

		It("filters by vmid", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "vm-a", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "vm-b", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			results, err := s.VMResult().List(context.TODO(), store.NewVMResultQueryFilter().ByVMID(101), nil)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(1))
			Expect(results[0].VMName).To(Equal("vm-a"))
		})

		It("sorts by creation time", func() {
			older := uuid.New()
			newer := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertVMResultStm, newer, jobID, 102, "vm-b", "Pending", testTime, "2026-08-01 11:00:00"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, older, jobID, 101, "vm-a", "Pending", testTime, "2026-08-01 09:00:00"))
			Expect(tx.Error).To(BeNil())

			results, err := s.VMResult().List(context.TODO(), nil, store.NewVMResultQueryOptions().WithSortOrder(store.SortByCreatedTime))
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal(older))
			Expect(results[1].ID).To(Equal(newer))
		})
	})

	Context("update", func() {
		It("persists false flags when selected", func() {
			resultID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertFrozenVMResultStm, resultID, jobID, 101, "web-frontend", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			updated, err := s.VMResult().Update(context.TODO(), model.VMResult{
				ID:                resultID,
				IOFreezeAttempted: true,
				IOFreezeSucceeded: false,
				WasRunning:        false,
			}, "io_freeze_attempted", "io_freeze_succeeded", "was_running")
			Expect(err).To(BeNil())
			Expect(updated.IOFreezeAttempted).To(BeTrue())
			Expect(updated.IOFreezeSucceeded).To(BeFalse())
			Expect(updated.WasRunning).To(BeFalse())
			Expect(updated.UpdatedAt).ToNot(BeNil())
		})

		It("leaves unselected fields alone", func() {
			resultID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertSnapshotVMResultStm, resultID, jobID, 101, "web-frontend", "vzdump-qemu-101", "UPID:pve1:0001", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			updated, err := s.VMResult().Update(context.TODO(), model.VMResult{
				ID:            resultID,
				SnapshotTaken: true,
			}, "snapshot_taken")
			Expect(err).To(BeNil())
			Expect(updated.SnapshotTaken).To(BeTrue())
			Expect(updated.SnapshotRequested).To(BeTrue())
			Expect(updated.SnapshotName).To(Equal("vzdump-qemu-101"))
			Expect(updated.SnapshotUPID).To(Equal("UPID:pve1:0001"))
		})

		It("fails to update an unknown id", func() {
			_, err := s.VMResult().Update(context.TODO(), model.VMResult{ID: uuid.New(), SnapshotTaken: true}, "snapshot_taken")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("count by status", func() {
		It("groups vm results by status", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "vm-a", "Success", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "vm-b", "Success", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 103, "vm-c", "Skipped", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			counts, err := s.VMResult().CountByStatus(context.TODO())
			Expect(err).To(BeNil())
			Expect(counts).To(HaveKeyWithValue("Success", 2))
			Expect(counts).To(HaveKeyWithValue("Skipped", 1))
		})
	})
})
