package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/catalog"
	"github.com/zendo/dispatch/internal/ledger"
	"github.com/zendo/dispatch/internal/middleware"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/queue"
	queue_publisher "github.com/zendo/dispatch/internal/service"
)

// InterventionHandler exposes the request ledger's operations.  All
// routes assume JWTAuth already ran; the acting user comes from the
// token's subject claim.
type InterventionHandler struct {
	Ledger  *ledger.Ledger
	Catalog catalog.Catalog
}

func NewInterventionHandler(lg *ledger.Ledger, cat catalog.Catalog) *InterventionHandler {
	return &InterventionHandler{Ledger: lg, Catalog: cat}
}

type createInterventionReq struct {
	ServiceType string          `json:"serviceType" validate:"required,oneof=PLUMBING ELECTRICITY LOCKSMITH HVAC"`
	Description string          `json:"description" validate:"required"`
	Location    *model.Location `json:"location"`
}

// Create handles POST /v1/interventions.  A missing location falls
// back to the ledger's default; the response carries the new id.
func (h *InterventionHandler) Create(c echo.Context) error {
	var req createInterventionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceType and description required"})
	}
	userID, _ := c.Get(middleware.CtxUserID).(string)
	id, err := h.Ledger.Create(c.Request().Context(), userID, model.ServiceType(req.ServiceType), req.Description, req.Location)
	if err != nil {
		if errors.Is(err, ledger.ErrNotAuthenticated) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"interventionId": id})
}

// List handles GET /v1/interventions, returning the full ledger most
// recent first.
func (h *InterventionHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ledger.ListAll())
}

// Get handles GET /v1/interventions/:id.
func (h *InterventionHandler) Get(c echo.Context) error {
	inv, ok := h.Ledger.GetByID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, inv)
}

// Active handles GET /v1/interventions/active: the derived view of
// the caller's single in-flight intervention.  204 when there is
// none.
func (h *InterventionHandler) Active(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	inv, ok := h.Ledger.ActiveFor(userID)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, inv)
}

// Accept handles POST /v1/interventions/:id/accept.  The acting
// artisan takes the job; repeating the call is harmless.  The ledger
// treats an unknown id as a no-op, so the 404 here comes from the
// read-back, not from the mutation.
func (h *InterventionHandler) Accept(c echo.Context) error {
	id := c.Param("id")
	artisanID, _ := c.Get(middleware.CtxUserID).(string)
	h.Ledger.Accept(c.Request().Context(), id, artisanID)
	inv, ok := h.Ledger.GetByID(id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	h.publishMatched(inv)
	return c.JSON(http.StatusOK, inv)
}

// Complete handles POST /v1/interventions/:id/complete.  Completion
// is allowed from any state.
func (h *InterventionHandler) Complete(c echo.Context) error {
	id := c.Param("id")
	h.Ledger.Complete(c.Request().Context(), id)
	inv, ok := h.Ledger.GetByID(id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	go func(inv model.Intervention) {
		completedAt := ""
		if inv.CompletedAt != nil {
			completedAt = inv.CompletedAt.Format(time.RFC3339)
		}
		_ = queue_publisher.PublishInterventionCompleted(context.Background(), queue.InterventionCompletedEvent{
			InterventionID: inv.ID,
			ClientID:       inv.ClientID,
			ArtisanID:      inv.ArtisanID,
			ServiceType:    string(inv.ServiceType),
			CompletedAt:    completedAt,
		})
	}(inv)
	return c.JSON(http.StatusOK, inv)
}

// Cancel handles POST /v1/interventions/:id/cancel.
func (h *InterventionHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	h.Ledger.Cancel(c.Request().Context(), id)
	inv, ok := h.Ledger.GetByID(id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, inv)
}

// publishMatched emits the matched event for a manual accept, in the
// background so broker trouble never delays the response.
func (h *InterventionHandler) publishMatched(inv model.Intervention) {
	artisanName := ""
	for _, a := range h.Catalog.All() {
		if a.ID == inv.ArtisanID {
			artisanName = a.Name
			break
		}
	}
	go func() {
		_ = queue_publisher.PublishInterventionMatched(context.Background(), queue.InterventionMatchedEvent{
			InterventionID: inv.ID,
			ClientID:       inv.ClientID,
			ArtisanID:      inv.ArtisanID,
			ArtisanName:    artisanName,
			ServiceType:    string(inv.ServiceType),
			PriceEstimate:  inv.PriceEstimate,
			Address:        inv.Location.Address,
			MatchedAt:      time.Now().UTC().Format(time.RFC3339),
		})
	}()
}
