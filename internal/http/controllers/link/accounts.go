package link

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/snapcal/registrar/internal/http/errors"

	dto "github.com/snapcal/registrar/internal/http/dto/link"

	"github.com/snapcal/registrar/internal/http/helpers"
	svc "github.com/snapcal/registrar/internal/http/services/link"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// AccountsController handles the identity directory endpoints: status,
// the positional account listing and the active-account switch.
type AccountsController struct {
	directory svc.DirectoryService
}

// NewAccountsController builds the controller.
func NewAccountsController(directory svc.DirectoryService) *AccountsController {
	return &AccountsController{directory: directory}
}

// Status handles GET /v1/identities/{externalID}/status.
func (c *AccountsController) Status(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(r.PathValue("externalID"))
	if externalID == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("external id is required"))
		return
	}

	resp, err := c.directory.Status(r.Context(), externalID)
	if err != nil {
		c.writeError(w, r, "status", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// List handles GET /v1/identities/{externalID}/accounts.
func (c *AccountsController) List(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(r.PathValue("externalID"))
	if externalID == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("external id is required"))
		return
	}

	resp, err := c.directory.List(r.Context(), externalID)
	if err != nil {
		c.writeError(w, r, "list", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// SwitchActive handles POST /v1/identities/{externalID}/active.
func (c *AccountsController) SwitchActive(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(r.PathValue("externalID"))
	if externalID == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("external id is required"))
		return
	}

	var req dto.SwitchRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	switched, err := c.directory.SwitchActive(r.Context(), externalID, req.Position)
	if err != nil {
		c.writeError(w, r, "switch_active", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, &dto.SwitchResponse{Switched: *switched})
}

func (c *AccountsController) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var rangeErr *svc.OutOfRangeError
	switch {
	case errors.Is(err, svc.ErrNoAccounts):
		apperrors.WriteError(w, apperrors.ErrNoAccounts)
	case errors.As(err, &rangeErr):
		apperrors.WriteError(w, apperrors.ErrPositionOutOfRange.WithDetail(rangeErr.Error()))
	default:
		logger.From(r.Context()).Error("directory request failed",
			logger.Layer("controller"),
			logger.Component("link.accounts"),
			logger.Op(op),
			logger.Err(err),
		)
		apperrors.WriteError(w, apperrors.ErrInternalServerError)
	}
}
