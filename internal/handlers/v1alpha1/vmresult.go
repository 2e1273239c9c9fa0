package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/handlers/v1alpha1/mappers"
	"github.com/pvetools/backup-tracker/internal/service"
	"github.com/pvetools/backup-tracker/pkg/requestid"
)

func (h *ServiceHandler) GetVmResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid vm result id: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	result, err := h.vmSrv.Get(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, api.Error{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)})
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to get vm result: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		}
		return
	}

	render.JSON(w, r, mappers.VmResultToApi(*result))
}

func (h *ServiceHandler) ListVmResultLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("invalid vm result id: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	logs, err := h.logSrv.ListByResult(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, api.Error{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)})
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to list vm result logs: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		}
		return
	}

	render.JSON(w, r, mappers.VmLogListToApi(logs))
}
