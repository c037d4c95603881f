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

type InventoryService interface {
	Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error)
	Find(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error)
	List(ctx context.Context, filter domain.InventoryFilter) (domain.Paged[domain.ProductInventory], error)
	Logs(ctx context.Context, filter domain.InventoryLogFilter) (domain.Paged[domain.InventoryLog], error)
	UpdateStock(ctx context.Context, change domain.InventoryChange) (domain.ProductInventory, error)
	Reserve(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error)
	Release(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error)
}

type InventoryHandler struct {
	svc InventoryService
}

func NewInventoryHandler(svc InventoryService) *InventoryHandler {
	return &InventoryHandler{
		svc: svc,
	}
}

func renderInventoryErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInventoryNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Inventory record not found"))
	case errors.Is(err, service.ErrProductNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Product not found"))
	case errors.Is(err, service.ErrLocationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Location not found"))
	case errors.Is(err, service.ErrChannelNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Channel not found"))
	case errors.Is(err, service.ErrInventoryExists),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientStockReserve),
		errors.Is(err, service.ErrInsufficientReservedStock):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrStockOverflow):
		response.RenderErr(ctx, response.ErrConflict(service.ErrStockOverflow))
	case errors.Is(err, service.ErrNegativeStock):
		response.RenderErr(ctx, response.ErrConflict(service.ErrNegativeStock))
	case errors.Is(err, service.ErrInventoryBusy):
		response.RenderErr(ctx, response.ErrConflict(service.ErrInventoryBusy))
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidChangeType):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// HandleCreateInventory godoc
// @Summary      Create the inventory row of a product at a location and channel
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateInventoryRequest true "request body"
// @Success      201      {object}   domain.ProductInventory
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory [post]
// @Security BearerAuth
func (h *InventoryHandler) HandleCreateInventory(ctx *gin.Context) {
	req := request.CreateInventoryRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	inv, err := h.svc.Create(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderInventoryErr(ctx, "v1.HandleCreateInventory -> h.svc.Create", err)
		return
	}

	ctx.JSON(http.StatusCreated, inv)
}

// HandleGetInventory godoc
// @Summary      Get the inventory row for a product, location and channel
// @Tags         inventory
// @Produce      json
// @Param        productId    path      string  true  "product ID"
// @Param        locationId   path      string  true  "location ID"
// @Param        channelId    path      string  true  "channel ID"
// @Success      200      {object}   domain.ProductInventory
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory/{productId}/{locationId}/{channelId} [get]
// @Security BearerAuth
func (h *InventoryHandler) HandleGetInventory(ctx *gin.Context) {
	req := request.InventoryKeyRequest{}
	if err := ctx.ShouldBindUri(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	inv, err := h.svc.Find(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderInventoryErr(ctx, "v1.HandleGetInventory -> h.svc.Find", err)
		return
	}

	ctx.JSON(http.StatusOK, inv)
}

// HandleListInventory godoc
// @Summary      List inventory rows
// @Tags         inventory
// @Produce      json
// @Param        page         query     int     false  "page, default 1"
// @Param        limit        query     int     false  "page size, default 10"
// @Param        productName  query     string  false  "case-insensitive product name match"
// @Param        locationId   query     string  false  "location ID"
// @Param        channelId    query     string  false  "channel ID"
// @Success      200      {object}   domain.Paged[domain.ProductInventory]
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory [get]
// @Security BearerAuth
func (h *InventoryHandler) HandleListInventory(ctx *gin.Context) {
	q := request.InventoryListQuery{}
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := h.svc.List(ctx.Request.Context(), q.ToDomain())
	if err != nil {
		renderInventoryErr(ctx, "v1.HandleListInventory -> h.svc.List", err)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleListInventoryLogs godoc
// @Summary      List inventory movements
// @Tags         inventory
// @Produce      json
// @Param        page        query     int     false  "page, default 1"
// @Param        limit       query     int     false  "page size, default 10"
// @Param        productId   query     string  false  "product ID"
// @Param        changeType  query     string  false  "STOCK_IN, STOCK_OUT, RESERVE or RELEASE"
// @Param        userId      query     string  false  "user ID"
// @Param        channelId   query     string  false  "channel ID"
// @Success      200      {object}   domain.Paged[domain.InventoryLog]
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory/logs [get]
// @Security BearerAuth
func (h *InventoryHandler) HandleListInventoryLogs(ctx *gin.Context) {
	q := request.InventoryLogQuery{}
	if !bindQuery(ctx, &q) {
		return
	}

	page, err := h.svc.Logs(ctx.Request.Context(), q.ToDomain())
	if err != nil {
		renderInventoryErr(ctx, "v1.HandleListInventoryLogs -> h.svc.Logs", err)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleUpdateStock godoc
// @Summary      Apply a STOCK_IN or STOCK_OUT movement
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request   body      request.UpdateStockRequest true "request body"
// @Success      200      {object}   domain.ProductInventory
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory/update [post]
// @Security BearerAuth
func (h *InventoryHandler) HandleUpdateStock(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	req := request.UpdateStockRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	inv, err := h.svc.UpdateStock(ctx.Request.Context(), req.ToDomain(&actor.ID))
	if err != nil {
		renderInventoryErr(ctx, "v1.HandleUpdateStock -> h.svc.UpdateStock", err)
		return
	}

	ctx.JSON(http.StatusOK, inv)
}

// HandleReserve godoc
// @Summary      Reserve available stock for a transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request   body      request.ReservationRequest true "request body"
// @Success      200      {object}   domain.ProductInventory
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory/reserve [post]
// @Security BearerAuth
func (h *InventoryHandler) HandleReserve(ctx *gin.Context) {
	h.handleReservation(ctx, "v1.HandleReserve -> h.svc.Reserve", h.svc.Reserve)
}

// HandleRelease godoc
// @Summary      Release reserved stock of a transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request   body      request.ReservationRequest true "request body"
// @Success      200      {object}   domain.ProductInventory
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /inventory/release [post]
// @Security BearerAuth
func (h *InventoryHandler) HandleRelease(ctx *gin.Context) {
	h.handleReservation(ctx, "v1.HandleRelease -> h.svc.Release", h.svc.Release)
}

type reservationFunc func(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error)

func (h *InventoryHandler) handleReservation(ctx *gin.Context, op string, fn reservationFunc) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	req := request.ReservationRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	inv, err := fn(ctx.Request.Context(), req.InventoryKeyRequest.ToDomain(), req.Quantity, req.TransactionID, &actor.ID)
	if err != nil {
		renderInventoryErr(ctx, op, err)
		return
	}

	ctx.JSON(http.StatusOK, inv)
}
