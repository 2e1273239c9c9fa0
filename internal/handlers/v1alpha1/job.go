package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/handlers/v1alpha1/mappers"
	"github.com/pvetools/backup-tracker/internal/service"
	"github.com/pvetools/backup-tracker/internal/store/model"
	"github.com/pvetools/backup-tracker/pkg/requestid"
)

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := service.NewJobFilter()
	if status := r.URL.Query().Get("status"); status != "" {
		parsed, err := model.ParseJobStatus(status)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, api.Error{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)})
			return
		}
		filter = filter.WithOption(service.WithJobStatus(parsed))
	}
	if jobType := r.URL.Query().Get("type"); jobType != "" {
		filter = filter.WithOption(service.WithJobType(jobType))
	}
	if relatedVm := r.URL.Query().Get("relatedVm"); relatedVm != "" {
		filter = filter.WithOption(service.WithRelatedVM(relatedVm))
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid limit: %v", err), RequestId: requestid.FromContextPtr(ctx)})
			return
		}
		filter = filter.WithOption(service.WithLimit(v))
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		v, err := strconv.Atoi(offset)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid offset: %v", err), RequestId: requestid.FromContextPtr(ctx)})
			return
		}
		filter = filter.WithOption(service.WithOffset(v))
	}

	jobs, err := h.jobSrv.ListJobs(ctx, filter)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to list jobs: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs))
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid job id: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	job, err := h.jobSrv.GetJob(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, api.Error{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)})
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to get job: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		}
		return
	}

	results, err := h.vmSrv.ListByJob(ctx, id)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to list job results: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	render.JSON(w, r, mappers.JobDetailToApi(*job, results))
}

func (h *ServiceHandler) ListJobResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid job id: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	results, err := h.vmSrv.ListByJob(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, api.Error{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)})
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to list job results: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		}
		return
	}

	render.JSON(w, r, mappers.VmResultListToApi(results))
}
