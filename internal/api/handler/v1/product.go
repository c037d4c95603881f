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

// maxProductFormMemory is the part of a product form kept in memory; larger files spill to disk.
const maxProductFormMemory = 32 << 20

type ProductService interface {
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) (domain.ProductList, error)
	Update(ctx context.Context, id uuid.UUID, in domain.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductHandler struct {
	svc ProductService
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{
		svc: svc,
	}
}

func renderProductErr(ctx *gin.Context, op string, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		response.RenderErr(ctx, response.ErrNotFound("Product with ID %s not found", id))
	case errors.Is(err, service.ErrProductImageNotFound), errors.Is(err, service.ErrUnknownCategory):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrProductCreateFailed):
		response.RenderErr(ctx, response.ErrInternalServerErrorMsg(fmt.Errorf("%s -> %w", op, err), "Failed to create product"))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// readProductForm parses the multipart body and converts it to a service input.
func readProductForm(ctx *gin.Context, partial bool) (domain.ProductInput, bool) {
	if err := ctx.Request.ParseMultipartForm(maxProductFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return domain.ProductInput{}, false
	}

	var form request.ProductForm
	if partial {
		form = request.NewProductPatchForm(ctx.Request.MultipartForm)
	} else {
		form = request.NewProductForm(ctx.Request.MultipartForm)
	}

	if err := form.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return domain.ProductInput{}, false
	}

	in, err := form.ToDomain()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return domain.ProductInput{}, false
	}

	return in, true
}

// HandleCreateProduct godoc
// @Summary      Create a product with images
// @Description  Images are uploaded to object storage. imagesMetadata entries are matched to files by position.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        name            formData  string  true   "name"
// @Param        description     formData  string  false  "description"
// @Param        brand           formData  string  true   "brand"
// @Param        price           formData  string  true   "price, comma or dot decimal separator"
// @Param        categories      formData  []string  false  "category IDs"
// @Param        imagesMetadata  formData  string  false  "JSON array of image metadata"
// @Param        images          formData  file    false  "image files"
// @Success      201      {object}   domain.Product
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /products [post]
// @Security BearerAuth
func (h *ProductHandler) HandleCreateProduct(ctx *gin.Context) {
	in, ok := readProductForm(ctx, false)
	if !ok {
		return
	}

	product, err := h.svc.Create(ctx.Request.Context(), in)
	if err != nil {
		renderProductErr(ctx, "v1.HandleCreateProduct -> h.svc.Create", uuid.Nil, err)
		return
	}

	ctx.JSON(http.StatusCreated, product)
}

// HandleListProducts godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page      query     int     false  "page, default 1"
// @Param        limit     query     int     false  "page size, default 10"
// @Param        search    query     string  false  "case-insensitive match on name, description or brand"
// @Param        category  query     string  false  "category ID"
// @Success      200      {object}   domain.ProductList
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /products [get]
// @Security BearerAuth
func (h *ProductHandler) HandleListProducts(ctx *gin.Context) {
	q := request.ProductListQuery{}
	if !bindQuery(ctx, &q) {
		return
	}

	list, err := h.svc.List(ctx.Request.Context(), q.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleListProducts -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// HandleGetProduct godoc
// @Summary      Get a product with images and categories
// @Tags         products
// @Produce      json
// @Param        productID   path      string  true  "product ID"
// @Success      200      {object}   domain.Product
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /products/{productID} [get]
// @Security BearerAuth
func (h *ProductHandler) HandleGetProduct(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "productID")
	if !ok {
		return
	}

	product, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		renderProductErr(ctx, "v1.HandleGetProduct -> h.svc.Get", id, err)
		return
	}

	ctx.JSON(http.StatusOK, product)
}

// HandleUpdateProduct godoc
// @Summary      Update a product
// @Description  Existing images missing from imagesMetadata are deleted. New files are uploaded.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        productID       path      string  true   "product ID"
// @Param        name            formData  string  false  "name"
// @Param        description     formData  string  false  "description"
// @Param        brand           formData  string  false  "brand"
// @Param        price           formData  string  false  "price"
// @Param        categories      formData  []string  false  "category IDs, replaces the current links"
// @Param        imagesMetadata  formData  string  false  "JSON array of image metadata"
// @Param        images          formData  file    false  "new image files"
// @Success      200      {object}   domain.Product
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /products/{productID} [patch]
// @Security BearerAuth
func (h *ProductHandler) HandleUpdateProduct(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "productID")
	if !ok {
		return
	}

	in, ok := readProductForm(ctx, true)
	if !ok {
		return
	}

	product, err := h.svc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		renderProductErr(ctx, "v1.HandleUpdateProduct -> h.svc.Update", id, err)
		return
	}

	ctx.JSON(http.StatusOK, product)
}

// HandleDeleteProduct godoc
// @Summary      Delete a product and its image objects
// @Tags         products
// @Param        productID   path      string  true  "product ID"
// @Success      204
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /products/{productID} [delete]
// @Security BearerAuth
func (h *ProductHandler) HandleDeleteProduct(ctx *gin.Context) {
	id, ok := paramUUID(ctx, "productID")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), id); err != nil {
		renderProductErr(ctx, "v1.HandleDeleteProduct -> h.svc.Delete", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
