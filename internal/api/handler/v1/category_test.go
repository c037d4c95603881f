package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/service"
)

type mockCategoryService struct {
	mock.Mock
}

func (m *mockCategoryService) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *mockCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryService) Tree(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryService) Get(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *mockCategoryService) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *mockCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func newCategoryRouter(svc CategoryService) *gin.Engine {
	h := NewCategoryHandler(svc)
	r, g := newTestRouter()
	g.POST("/categories", h.HandleCreateCategory)
	g.GET("/categories/tree", h.HandleCategoryTree)
	g.PATCH("/categories/:categoryID", h.HandleUpdateCategory)
	g.DELETE("/categories/:categoryID", h.HandleDeleteCategory)

	return r
}

func TestHandleCreateCategory_UnknownParent(t *testing.T) {
	parent := uuid.New()
	svc := &mockCategoryService{}
	svc.On("Create", mock.Anything, mock.Anything).Return(domain.Category{}, service.ErrParentCategoryNotFound)

	w := doJSON(newCategoryRouter(svc), http.MethodPost, "/categories", bearer(t, uuid.New()),
		map[string]string{"name": "Analgesicos", "parentId": parent.String()})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Parent category with ID "+parent.String()+" not found", decodeErr(t, w).Message)
}

func TestHandleUpdateCategory(t *testing.T) {
	id := uuid.New()
	auth := bearer(t, uuid.New())

	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{name: "own parent", err: service.ErrCategoryOwnParent, want: http.StatusBadRequest, wantMsg: "A category cannot be its own parent"},
		{name: "cycle", err: service.ErrCategoryCycle, want: http.StatusBadRequest},
		{name: "missing", err: service.ErrCategoryNotFound, want: http.StatusNotFound, wantMsg: "Category with ID " + id.String() + " not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCategoryService{}
			svc.On("Update", mock.Anything, id, mock.Anything).Return(domain.Category{}, tt.err)

			w := doJSON(newCategoryRouter(svc), http.MethodPatch, "/categories/"+id.String(), auth,
				map[string]string{"parentId": id.String()})

			assert.Equal(t, tt.want, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeErr(t, w).Message)
			}
		})
	}
}

func TestHandleUpdateCategory_EmptyParentDetaches(t *testing.T) {
	id := uuid.New()
	svc := &mockCategoryService{}
	svc.On("Update", mock.Anything, id, mock.MatchedBy(func(p domain.CategoryPatch) bool {
		return p.ParentID != nil && *p.ParentID == uuid.Nil
	})).Return(domain.Category{ID: id}, nil)

	w := doJSON(newCategoryRouter(svc), http.MethodPatch, "/categories/"+id.String(), bearer(t, uuid.New()),
		map[string]string{"parentId": ""})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleDeleteCategory_HasChildren(t *testing.T) {
	id := uuid.New()
	svc := &mockCategoryService{}
	svc.On("Delete", mock.Anything, id).Return(service.ErrCategoryHasChildren)

	w := doJSON(newCategoryRouter(svc), http.MethodDelete, "/categories/"+id.String(), bearer(t, uuid.New()), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}
