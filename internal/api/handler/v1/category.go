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

type CategoryService interface {
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Tree(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryHandler struct {
	svc CategoryService
}

func NewCategoryHandler(svc CategoryService) *CategoryHandler {
	return &CategoryHandler{
		svc: svc,
	}
}

func renderCategoryErr(ctx *gin.Context, op string, id uuid.UUID, parent *uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrParentCategoryNotFound):
		var p any = "<nil>"
		if parent != nil {
			p = *parent
		}
		response.RenderErr(ctx, response.ErrNotFound("Parent category with ID %v not found", p))
	case errors.Is(err, service.ErrCategoryNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Category with ID %s not found", id))
	case errors.Is(err, service.ErrCategoryOwnParent), errors.Is(err, service.ErrCategoryCycle):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrCategoryHasChildren):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// HandleCreateCategory godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateCategoryRequest true "request body"
// @Success      201      {object}   domain.Category
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /categories [post]
// @Security BearerAuth
func (h *CategoryHandler) HandleCreateCategory(ctx *gin.Context) {
	req := request.CreateCategoryRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	category := req.ToDomain()
	created, err := h.svc.Create(ctx.Request.Context(), category)
	if err != nil {
		renderCategoryErr(ctx, "v1.HandleCreateCategory -> h.svc.Create", uuid.Nil, category.ParentID, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListCategories godoc
// @Summary      List categories with their parent and children
// @Tags         categories
// @Produce      json
// @Success      200      {array}    domain.Category
// @Failure      500      {object}   response.Err
// @Router       /categories [get]
// @Security BearerAuth
func (h *CategoryHandler) HandleListCategories(ctx *gin.Context) {
	categories, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListCategories -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, categories)
}

// HandleCategoryTree godoc
// @Summary      Nested tree of root categories
// @Tags         categories
// @Produce      json
// @Success      200      {array}    domain.Category
// @Failure      500      {object}   response.Err
// @Router       /categories/tree [get]
// @Security BearerAuth
func (h *CategoryHandler) HandleCategoryTree(ctx *gin.Context) {
	tree, err := h.svc.Tree(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleCategoryTree -> h.svc.Tree -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tree)
}

// HandleGetCategory godoc
// @Summary      Get a category with parent, children and products
// @Tags         categories
// @Produce      json
// @Param        categoryID   path      string  true  "category ID"
// @Success      200      {object}   domain.Category
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /categories/{categoryID} [get]
// @Security BearerAuth
func (h *CategoryHandler) HandleGetCategory(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "categoryID")
	if !ok {
		return
	}

	category, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		renderCategoryErr(ctx, "v1.HandleGetCategory -> h.svc.Get", id, nil, err)
		return
	}

	ctx.JSON(http.StatusOK, category)
}

// HandleUpdateCategory godoc
// @Summary      Update a category
// @Description  An empty parentId moves the category to the root.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        categoryID   path      string  true  "category ID"
// @Param        request   body      request.UpdateCategoryRequest true "request body"
// @Success      200      {object}   domain.Category
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /categories/{categoryID} [patch]
// @Security BearerAuth
func (h *CategoryHandler) HandleUpdateCategory(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "categoryID")
	if !ok {
		return
	}

	req := request.UpdateCategoryRequest{}
	if !bindJSON(ctx, &req) {
		return
	}

	patch := req.ToDomain()
	category, err := h.svc.Update(ctx.Request.Context(), id, patch)
	if err != nil {
		renderCategoryErr(ctx, "v1.HandleUpdateCategory -> h.svc.Update", id, patch.ParentID, err)
		return
	}

	ctx.JSON(http.StatusOK, category)
}

// HandleDeleteCategory godoc
// @Summary      Delete a category
// @Tags         categories
// @Param        categoryID   path      string  true  "category ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /categories/{categoryID} [delete]
// @Security BearerAuth
func (h *CategoryHandler) HandleDeleteCategory(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "categoryID")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), id); err != nil {
		renderCategoryErr(ctx, "v1.HandleDeleteCategory -> h.svc.Delete", id, nil, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
