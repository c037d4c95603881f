package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/api/handler/v1/request"
	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/service"
)

type LocationService interface {
	Create(ctx context.Context, location domain.Location) (domain.Location, error)
	List(ctx context.Context) ([]domain.Location, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Location, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.LocationPatch) (domain.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocationHandler struct {
	svc LocationService
}

func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{
		svc: svc,
	}
}

func renderLocationErr(ctx *gin.Context, op string, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Location with ID %s not found", id))
	case errors.Is(err, service.ErrLocationInUse):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// HandleCreateLocation godoc
// @Summary      Create a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateLocationRequest true "request body"
// @Success      201      {object}   domain.Location
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /locations [post]
// @Security BearerAuth
func (h *LocationHandler) HandleCreateLocation(ctx *gin.Context) {
	req := request.CreateLocationRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	location, err := h.svc.Create(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateLocation -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, location)
}

// HandleListLocations godoc
// @Summary      List locations
// @Tags         locations
// @Produce      json
// @Success      200      {array}    domain.Location
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /locations [get]
// @Security BearerAuth
func (h *LocationHandler) HandleListLocations(ctx *gin.Context) {
	locations, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListLocations -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, locations)
}

// HandleGetLocation godoc
// @Summary      Get a location
// @Tags         locations
// @Produce      json
// @Param        locationID   path      string  true  "location ID"
// @Success      200      {object}   domain.Location
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /locations/{locationID} [get]
// @Security BearerAuth
func (h *LocationHandler) HandleGetLocation(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "locationID")
	if !ok {
		return
	}

	location, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		renderLocationErr(ctx, "v1.HandleGetLocation -> h.svc.Get", id, err)
		return
	}

	ctx.JSON(http.StatusOK, location)
}

// HandleUpdateLocation godoc
// @Summary      Update a location and its address
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        locationID   path      string  true  "location ID"
// @Param        request   body      request.UpdateLocationRequest true "request body"
// @Success      200      {object}   domain.Location
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /locations/{locationID} [patch]
// @Security BearerAuth
func (h *LocationHandler) HandleUpdateLocation(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "locationID")
	if !ok {
		return
	}

	req := request.UpdateLocationRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	location, err := h.svc.Update(ctx.Request.Context(), id, req.ToDomain())
	if err != nil {
		renderLocationErr(ctx, "v1.HandleUpdateLocation -> h.svc.Update", id, err)
		return
	}

	ctx.JSON(http.StatusOK, location)
}

// HandleDeleteLocation godoc
// @Summary      Delete a location
// @Tags         locations
// @Param        locationID   path      string  true  "location ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /locations/{locationID} [delete]
// @Security BearerAuth
func (h *LocationHandler) HandleDeleteLocation(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "locationID")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), id); err != nil {
		renderLocationErr(ctx, "v1.HandleDeleteLocation -> h.svc.Delete", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
