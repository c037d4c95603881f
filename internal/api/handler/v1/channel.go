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

type ChannelService interface {
	Create(ctx context.Context, channel domain.Channel) (domain.Channel, error)
	List(ctx context.Context) ([]domain.Channel, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Channel, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ChannelPatch) (domain.Channel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChannelHandler struct {
	svc ChannelService
}

func NewChannelHandler(svc ChannelService) *ChannelHandler {
	return &ChannelHandler{
		svc: svc,
	}
}

func renderChannelErr(ctx *gin.Context, op string, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrChannelNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Channel with ID %q not found", id.String()))
	case errors.Is(err, service.ErrChannelInUse):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// HandleCreateChannel godoc
// @Summary      Create a sales channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateChannelRequest true "request body"
// @Success      201      {object}   domain.Channel
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /channels [post]
// @Security BearerAuth
func (h *ChannelHandler) HandleCreateChannel(ctx *gin.Context) {
	req := request.CreateChannelRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	channel, err := h.svc.Create(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateChannel -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, channel)
}

// HandleListChannels godoc
// @Summary      List channels
// @Tags         channels
// @Produce      json
// @Success      200      {array}    domain.Channel
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /channels [get]
// @Security BearerAuth
func (h *ChannelHandler) HandleListChannels(ctx *gin.Context) {
	channels, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListChannels -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, channels)
}

// HandleGetChannel godoc
// @Summary      Get a sales channel
// @Tags         channels
// @Produce      json
// @Param        channelID   path      string  true  "channel ID"
// @Success      200      {object}   domain.Channel
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /channels/{channelID} [get]
// @Security BearerAuth
func (h *ChannelHandler) HandleGetChannel(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "channelID")
	if !ok {
		return
	}

	channel, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		renderChannelErr(ctx, "v1.HandleGetChannel -> h.svc.Get", id, err)
		return
	}

	ctx.JSON(http.StatusOK, channel)
}

// HandleUpdateChannel godoc
// @Summary      Update a sales channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        channelID   path      string  true  "channel ID"
// @Param        request   body      request.UpdateChannelRequest true "request body"
// @Success      200      {object}   domain.Channel
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /channels/{channelID} [patch]
// @Security BearerAuth
func (h *ChannelHandler) HandleUpdateChannel(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "channelID")
	if !ok {
		return
	}

	req := request.UpdateChannelRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	channel, err := h.svc.Update(ctx.Request.Context(), id, req.ToDomain())
	if err != nil {
		renderChannelErr(ctx, "v1.HandleUpdateChannel -> h.svc.Update", id, err)
		return
	}

	ctx.JSON(http.StatusOK, channel)
}

// HandleDeleteChannel godoc
// @Summary      Delete a sales channel
// @Tags         channels
// @Param        channelID   path      string  true  "channel ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /channels/{channelID} [delete]
// @Security BearerAuth
func (h *ChannelHandler) HandleDeleteChannel(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "channelID")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), id); err != nil {
		renderChannelErr(ctx, "v1.HandleDeleteChannel -> h.svc.Delete", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
