package v1

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/service"
)

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *mockInventoryService) Find(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *mockInventoryService) List(ctx context.Context, filter domain.InventoryFilter) (domain.Paged[domain.ProductInventory], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Paged[domain.ProductInventory]), args.Error(1)
}

func (m *mockInventoryService) Logs(ctx context.Context, filter domain.InventoryLogFilter) (domain.Paged[domain.InventoryLog], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Paged[domain.InventoryLog]), args.Error(1)
}

func (m *mockInventoryService) UpdateStock(ctx context.Context, change domain.InventoryChange) (domain.ProductInventory, error) {
	args := m.Called(ctx, change)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *mockInventoryService) Reserve(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error) {
	args := m.Called(ctx, key, quantity, transactionID, userID)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *mockInventoryService) Release(ctx context.Context, key domain.InventoryKey, quantity int, transactionID string, userID *uuid.UUID) (domain.ProductInventory, error) {
	args := m.Called(ctx, key, quantity, transactionID, userID)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func newInventoryRouter(svc InventoryService) *gin.Engine {
	h := NewInventoryHandler(svc)
	r, g := newTestRouter()
	g.GET("/inventory", h.HandleListInventory)
	g.GET("/inventory/logs", h.HandleListInventoryLogs)
	g.GET("/inventory/:productId/:locationId/:channelId", h.HandleGetInventory)
	g.POST("/inventory", h.HandleCreateInventory)
	g.POST("/inventory/update", h.HandleUpdateStock)
	g.POST("/inventory/reserve", h.HandleReserve)
	g.POST("/inventory/release", h.HandleRelease)

	return r
}

func newKeyBody() (domain.InventoryKey, map[string]any) {
	key := domain.InventoryKey{ProductID: uuid.New(), LocationID: uuid.New(), ChannelID: uuid.New()}
	return key, map[string]any{
		"productId":  key.ProductID.String(),
		"locationId": key.LocationID.String(),
		"channelId":  key.ChannelID.String(),
	}
}

func TestHandleUpdateStock(t *testing.T) {
	userID := uuid.New()
	key, body := newKeyBody()
	body["quantity"] = 4
	body["changeType"] = "STOCK_OUT"

	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{name: "ok", want: http.StatusOK},
		{name: "insufficient", err: service.ErrInsufficientStock, want: http.StatusConflict, wantMsg: "Insufficient stock for the operation"},
		{name: "busy", err: fmt.Errorf("s.mutate -> %w", service.ErrInventoryBusy), want: http.StatusConflict},
		{name: "overflow", err: service.ErrStockOverflow, want: http.StatusConflict, wantMsg: "Quantity exceeds the maximum stock a record can hold"},
		{name: "negative balance from store", err: fmt.Errorf("s.repo.Mutate -> r.dao.Mutate -> %w", service.ErrNegativeStock), want: http.StatusConflict, wantMsg: "Stock balances cannot be negative"},
		{name: "missing row", err: service.ErrInventoryNotFound, want: http.StatusNotFound, wantMsg: "Inventory record not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockInventoryService{}
			svc.On("UpdateStock", mock.Anything, mock.MatchedBy(func(c domain.InventoryChange) bool {
				return c.Key == key && c.Quantity == 4 && c.ChangeType == domain.ChangeStockOut &&
					c.UserID != nil && *c.UserID == userID
			})).Return(domain.ProductInventory{AvailableStock: 6}, tt.err)

			w := doJSON(newInventoryRouter(svc), http.MethodPost, "/inventory/update",
				bearer(t, userID, domain.RoleInventoryManager), body)

			assert.Equal(t, tt.want, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeErr(t, w).Message)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleUpdateStock_RejectsInvalidBody(t *testing.T) {
	_, body := newKeyBody()
	body["quantity"] = 0
	body["changeType"] = "STOCK_IN"

	svc := &mockInventoryService{}
	w := doJSON(newInventoryRouter(svc), http.MethodPost, "/inventory/update", bearer(t, uuid.New()), body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything)
}

func TestHandleUpdateStock_RejectsReservationTypes(t *testing.T) {
	_, body := newKeyBody()
	body["quantity"] = 1
	body["changeType"] = "RESERVE"

	svc := &mockInventoryService{}
	w := doJSON(newInventoryRouter(svc), http.MethodPost, "/inventory/update", bearer(t, uuid.New()), body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything)
}

func TestHandleReserveAndRelease(t *testing.T) {
	userID := uuid.New()
	key, body := newKeyBody()
	body["quantity"] = 2
	body["transactionId"] = "order-42"

	svc := &mockInventoryService{}
	svc.On("Reserve", mock.Anything, key, 2, "order-42", &userID).
		Return(domain.ProductInventory{}, service.ErrInsufficientStockReserve)
	svc.On("Release", mock.Anything, key, 2, "order-42", &userID).
		Return(domain.ProductInventory{AvailableStock: 2}, nil)
	r := newInventoryRouter(svc)
	auth := bearer(t, userID, domain.RoleInventoryManager)

	w := doJSON(r, http.MethodPost, "/inventory/reserve", auth, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Insufficient stock to reserve", decodeErr(t, w).Message)

	w = doJSON(r, http.MethodPost, "/inventory/release", auth, body)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleGetInventory(t *testing.T) {
	key, _ := newKeyBody()
	svc := &mockInventoryService{}
	svc.On("Find", mock.Anything, key).Return(domain.ProductInventory{}, service.ErrInventoryNotFound)

	path := fmt.Sprintf("/inventory/%s/%s/%s", key.ProductID, key.LocationID, key.ChannelID)
	w := doJSON(newInventoryRouter(svc), http.MethodGet, path, bearer(t, uuid.New()), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	e := decodeErr(t, w)
	assert.Equal(t, "Inventory record not found", e.Message)
	assert.Equal(t, path, e.Path)

	w = doJSON(newInventoryRouter(svc), http.MethodGet, "/inventory/x/y/z", bearer(t, uuid.New()), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListInventory(t *testing.T) {
	loc := uuid.New()
	svc := &mockInventoryService{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f domain.InventoryFilter) bool {
		return f.ProductName == "dipi" && f.LocationID != nil && *f.LocationID == loc &&
			f.Page.Page == 2 && f.Page.Limit == 5
	})).Return(domain.Paged[domain.ProductInventory]{Data: []domain.ProductInventory{{}}, Total: 6}, nil)

	path := fmt.Sprintf("/inventory?page=2&limit=5&productName=dipi&locationId=%s", loc)
	w := doJSON(newInventoryRouter(svc), http.MethodGet, path, bearer(t, uuid.New()), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":6`)
	svc.AssertExpectations(t)
}
