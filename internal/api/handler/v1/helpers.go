package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/api/middleware"
	"github.com/meddist/internal-api/internal/domain"
)

// validator is implemented by every request type.
type validator interface {
	Validate() error
}

// bindJSON decodes and validates the body into req, rendering a 400 on failure.
func bindJSON(ctx *gin.Context, req validator) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}

	return true
}

func bindQuery(ctx *gin.Context, req validator) bool {
	if err := ctx.ShouldBindQuery(req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return false
	}

	return true
}

func paramUUID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("%s must be a valid UUID", name)))
		return uuid.Nil, false
	}

	return id, true
}

func actorFromContext(ctx *gin.Context) (domain.Actor, bool) {
	actor, err := middleware.Actor(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrUnauthorized(err))
		return domain.Actor{}, false
	}

	return actor, true
}
