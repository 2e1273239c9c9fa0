package v1alpha1

import (
	"github.com/go-chi/chi/v5"

	"github.com/pvetools/backup-tracker/internal/service"
)

type ServiceHandler struct {
	jobSrv   *service.JobService
	vmSrv    *service.VMResultService
	logSrv   *service.LogService
	statsSrv *service.StatsService
}

func NewServiceHandler(jobSrv *service.JobService, vmSrv *service.VMResultService, logSrv *service.LogService, statsSrv *service.StatsService) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:   jobSrv,
		vmSrv:    vmSrv,
		logSrv:   logSrv,
		statsSrv: statsSrv,
	}
}

// RegisterRoutes mounts the read-only inspection surface. All mutation goes
// through the service layer called by the orchestrator, never through HTTP.
func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)

	router.Route("/api/v1alpha1", func(r chi.Router) {
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Get("/jobs/{id}/results", h.ListJobResults)
		r.Get("/results/{id}", h.GetVmResult)
		r.Get("/results/{id}/logs", h.ListVmResultLogs)
		r.Get("/stats", h.GetStats)
	})
}
