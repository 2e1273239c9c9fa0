package v1alpha1_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/store"
)

const (
	insertJobStm      = "INSERT INTO jobs (id, type, status, started_at, created_at) VALUES ('%s', '%s', '%s', '%s', '%s');"
	insertVMResultStm = "INSERT INTO vm_results (id, job_id, vmid, vm_name, status, started_at, created_at) VALUES ('%s', '%s', %d, '%s', '%s', '%s', '%s');"
)

var _ = Describe("job handler", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		tmpDir string
		router *chi.Mux
	)

	BeforeAll(func() {
		s, gormdb, tmpDir = initTestStore()
		router = newTestRouter(s)
	})

	AfterAll(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM vm_logs;")
		gormdb.Exec("DELETE FROM vm_results;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	Context("get job", func() {
		It("returns 404 when the job is unknown", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+uuid.NewString(), nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 on a malformed id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/not-a-uuid", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var apiErr api.Error
			Expect(json.Unmarshal(rec.Body.Bytes(), &apiErr)).To(BeNil())
			Expect(apiErr.Message).To(ContainSubstring("invalid job id"))
		})

		It("returns the detail with result counts and derived outcome", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "Backup", "Running", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "web-frontend", "Success", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "db-server", "Failed", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+jobID.String(), nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var detail api.JobDetail
			Expect(json.Unmarshal(rec.Body.Bytes(), &detail)).To(BeNil())
			Expect(detail.Id).To(Equal(jobID.String()))
			Expect(detail.Status).To(Equal("Running"))
			Expect(detail.DerivedOutcome).To(Equal("Warning"))
			Expect(detail.ResultCounts).To(HaveKeyWithValue("Success", 1))
			Expect(detail.ResultCounts).To(HaveKeyWithValue("Failed", 1))
		})
	})

	Context("list jobs", func() {
		It("returns every job", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.New(), "Backup", "Running", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.New(), "Backup", "Completed", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var jobs api.JobList
			Expect(json.Unmarshal(rec.Body.Bytes(), &jobs)).To(BeNil())
			Expect(jobs).To(HaveLen(2))
		})

		It("filters by status", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.New(), "Backup", "Running", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.New(), "Backup", "Completed", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs?status=Completed", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var jobs api.JobList
			Expect(json.Unmarshal(rec.Body.Bytes(), &jobs)).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal("Completed"))
		})

		It("rejects an unknown status", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs?status=Bogus", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-numeric limit", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs?limit=abc", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("list job results", func() {
		It("returns 404 when the job is unknown", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+uuid.NewString()+"/results", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the job's results", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "Backup", "Running", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 101, "web-frontend", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertVMResultStm, uuid.New(), jobID, 102, "db-server", "Pending", testTime, testTime))
			Expect(tx.Error).To(BeNil())

			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+jobID.String()+"/results", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var results api.VmResultList
			Expect(json.Unmarshal(rec.Body.Bytes(), &results)).To(BeNil())
			Expect(results).To(HaveLen(2))
			Expect(results[0].JobId).To(Equal(jobID.String()))
		})
	})
})
