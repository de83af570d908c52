// Package link holds the HTTP controllers for the account-linking API.
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
	"github.com/snapcal/registrar/internal/ratelimit"
)

// StartController handles POST /v1/link/start.
type StartController struct {
	start   svc.StartService
	limiter *ratelimit.PerKey
}

// NewStartController builds the controller. limiter may be nil to
// disable per-identity rate limiting.
func NewStartController(start svc.StartService, limiter *ratelimit.PerKey) *StartController {
	return &StartController{start: start, limiter: limiter}
}

func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("external_id is required"))
		return
	}

	// One bucket per chat identity, so a single user re-running the
	// command in a loop cannot exhaust the session store.
	if c.limiter != nil && !c.limiter.Allow(req.ExternalID) {
		apperrors.WriteError(w, apperrors.ErrRateLimitExceeded)
		return
	}

	resp, err := c.start.Start(r.Context(), &req)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func (c *StartController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, svc.ErrNotConfigured) {
		apperrors.WriteError(w, apperrors.ErrConfigurationMissing)
		return
	}
	logger.From(r.Context()).Error("link start failed",
		logger.Layer("controller"),
		logger.Component("link.start"),
		logger.Err(err),
	)
	apperrors.WriteError(w, apperrors.ErrProcessingFailed)
}
