package link

import (
	"net/http"

	apperrors "github.com/snapcal/registrar/internal/http/errors"

	dto "github.com/snapcal/registrar/internal/http/dto/link"

	"github.com/snapcal/registrar/internal/http/helpers"
	svc "github.com/snapcal/registrar/internal/http/services/link"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// AdminController handles operator endpoints.
type AdminController struct {
	admin svc.AdminService
}

// NewAdminController builds the controller.
func NewAdminController(admin svc.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

// Sweep handles POST /v1/admin/sessions/sweep.
func (c *AdminController) Sweep(w http.ResponseWriter, r *http.Request) {
	n, err := c.admin.Sweep(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("manual sweep failed",
			logger.Layer("controller"),
			logger.Component("link.admin"),
			logger.Err(err),
		)
		apperrors.WriteError(w, apperrors.ErrInternalServerError)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, &dto.SweepResponse{Deleted: n})
}
