package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	api "github.com/pvetools/backup-tracker/api/v1alpha1"
	"github.com/pvetools/backup-tracker/internal/handlers/v1alpha1/mappers"
	"github.com/pvetools/backup-tracker/pkg/requestid"
)

func (h *ServiceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.statsSrv.Statistics(ctx)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, api.Error{Message: fmt.Sprintf("failed to collect statistics: %v", err), RequestId: requestid.FromContextPtr(ctx)})
		return
	}

	render.JSON(w, r, mappers.StatsToApi(stats))
}
