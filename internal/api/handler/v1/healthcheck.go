package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meddist/internal-api/internal/api/handler/v1/response"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{
		db: db,
	}
}

// HandleHealthcheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200      {object}   map[string]string
// @Failure      500      {object}   response.Err
// @Router       / [get]
func (h *HealthHandler) HandleHealthcheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(pingCtx); err != nil {
		err = fmt.Errorf("v1.HandleHealthcheck -> h.db.PingContext -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerErrorMsg(err, "Database unavailable"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
